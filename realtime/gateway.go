// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/segmentio/encoding/json"

	"github.com/danielhkuo/live-poll/auth"
	"github.com/danielhkuo/live-poll/classroom"
	"github.com/danielhkuo/live-poll/cliparse"
	"github.com/danielhkuo/live-poll/db"
	"github.com/danielhkuo/live-poll/models"
)

// EventTimeout bounds the store work of a single inbound event
const EventTimeout = 10 * time.Second

type eventHandler func(ctx context.Context, c *Client, data json.RawMessage) error

// Gateway upgrades connections and routes their events to the classroom managers
type Gateway struct {
	hub     *Hub
	roster  *classroom.Roster
	polls   *classroom.Polls
	chat    *classroom.Chat
	history *classroom.History

	upgrader websocket.Upgrader
	handlers map[string]eventHandler
	timeout  time.Duration
}

func NewGateway(hub *Hub, store db.Store, cfg cliparse.Config) *Gateway {
	g := &Gateway{
		hub:     hub,
		roster:  classroom.NewRoster(store),
		polls:   classroom.NewPolls(store),
		chat:    classroom.NewChat(store, cfg.TeacherName),
		history: classroom.NewHistory(store),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(cfg.FrontendURL),
		},
		timeout: EventTimeout,
	}

	g.handlers = map[string]eventHandler{
		EventRegisterStudent:     g.registerStudent,
		EventRequestParticipants: g.requestParticipants,
		EventChatMessage:         g.chatMessage,
		EventGetAllMessages:      g.getAllMessages,
		EventCreatePoll:          g.createPoll,
		EventSubmitAnswer:        g.submitAnswer,
		EventCanAskNew:           g.canAskNew,
		EventGetPollHistory:      g.getPollHistory,
		EventKickStudent:         g.kickStudent,
	}
	return g
}

// checkOrigin accepts any origin for "*" or an empty setting, else only the
// configured frontend. Requests without an Origin header are not from a browser.
func checkOrigin(frontendURL string) func(*http.Request) bool {
	allowed := strings.TrimRight(frontendURL, "/")
	return func(r *http.Request) bool {
		if allowed == "" || allowed == "*" {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Scheme+"://"+u.Host, allowed)
	}
}

// ServeWS handles GET /ws. It blocks until the connection closes.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	sessionID, err := auth.GenerateSessionID()
	if err != nil {
		slog.Error("failed to generate session id", "error", err)
		conn.Close()
		return
	}

	client := newClient(conn, sessionID)
	if err := g.hub.register(client); err != nil {
		slog.Warn("rejecting connection", "session_id", sessionID, "error", err)
		conn.Close()
		return
	}
	defer g.hub.done()
	client.Send(EventSession, models.SessionInfo{SessionID: sessionID})

	go client.writePump()
	client.readPump(g.dispatch)

	g.hub.unregister(client)
	g.disconnected(sessionID)
}

// dispatch runs one event inside the error boundary: failures and panics
// are logged and reported to the caller only.
func (g *Gateway) dispatch(c *Client, f Frame) {
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("event handler panicked", "event", f.Type, "session_id", c.sessionID, "panic", rec)
			c.Send(EventError, models.EventError{Event: f.Type, Message: "internal error"})
		}
	}()

	handle, ok := g.handlers[f.Type]
	if !ok {
		slog.Warn("unknown event", "event", f.Type, "session_id", c.sessionID)
		c.Send(EventError, models.EventError{Event: f.Type, Message: "unknown event"})
		return
	}

	if err := handle(ctx, c, f.Data); err != nil {
		slog.Error("event failed", "event", f.Type, "session_id", c.sessionID, "error", err)
		c.Send(EventError, errorPayload(f.Type, err))
	}
}

// errorPayload hides store and internal errors behind a generic message
func errorPayload(event string, err error) models.EventError {
	msg := "internal error"
	switch {
	case errors.Is(err, errMalformed),
		errors.Is(err, classroom.ErrInvalidPoll),
		errors.Is(err, classroom.ErrInvalidName):
		msg = err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		msg = "timed out"
	}
	return models.EventError{Event: event, Message: msg}
}

func (g *Gateway) disconnected(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	names, err := g.roster.Unregister(ctx, sessionID)
	if err != nil {
		slog.Error("failed to unregister session", "session_id", sessionID, "error", err)
		return
	}
	g.hub.Broadcast(EventParticipantsUpdate, names)
}

// Roster events

func (g *Gateway) registerStudent(ctx context.Context, c *Client, data json.RawMessage) error {
	req, err := decode[models.RegisterStudentRequest](data)
	if err != nil {
		return err
	}

	names, err := g.roster.Register(ctx, req.Name, c.sessionID)
	if err != nil {
		return err
	}

	c.Send(EventRegistrationSuccess, nil)
	g.hub.Broadcast(EventParticipantsUpdate, names)
	return nil
}

func (g *Gateway) requestParticipants(ctx context.Context, c *Client, _ json.RawMessage) error {
	names, err := g.roster.Participants(ctx)
	if err != nil {
		return err
	}
	c.Send(EventParticipantsUpdate, names)
	return nil
}

func (g *Gateway) kickStudent(ctx context.Context, c *Client, data json.RawMessage) error {
	req, err := decode[models.KickStudentRequest](data)
	if err != nil {
		return err
	}

	res, err := g.roster.Kick(ctx, req.Name)
	if err != nil {
		return err
	}
	if !res.Found {
		return nil
	}

	for _, sid := range res.SessionIDs {
		g.hub.Disconnect(sid)
	}
	g.hub.Broadcast(EventParticipantsUpdate, res.Participants)
	return nil
}

// Chat events

func (g *Gateway) chatMessage(ctx context.Context, c *Client, data json.RawMessage) error {
	req, err := decode[models.ChatMessageRequest](data)
	if err != nil {
		return err
	}

	msg, err := g.chat.Post(ctx, req.Sender, req.Text, c.sessionID)
	if err != nil || msg == nil {
		return err
	}

	g.hub.Broadcast(EventChatMessage, models.ChatBroadcast{
		Sender:    msg.Sender,
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt,
	})
	return nil
}

func (g *Gateway) getAllMessages(ctx context.Context, c *Client, _ json.RawMessage) error {
	messages, err := g.chat.All(ctx)
	if err != nil {
		return err
	}
	c.Send(EventChatMessages, messages)
	return nil
}

// Poll events

func (g *Gateway) createPoll(ctx context.Context, c *Client, data json.RawMessage) error {
	req, err := decode[models.CreatePollRequest](data)
	if err != nil {
		return err
	}

	poll, err := g.polls.Create(ctx, req)
	if err != nil {
		return err
	}
	g.hub.Broadcast(EventPollStarted, poll)
	return nil
}

func (g *Gateway) submitAnswer(ctx context.Context, c *Client, data json.RawMessage) error {
	req, err := decode[models.SubmitAnswerRequest](data)
	if err != nil {
		return err
	}

	res, err := g.polls.Submit(ctx, c.sessionID, req.QuestionID, req.Answer)
	if err != nil || res == nil {
		return err
	}
	g.hub.Broadcast(EventPollResults, res)
	return nil
}

func (g *Gateway) canAskNew(ctx context.Context, c *Client, _ json.RawMessage) error {
	ok, err := g.polls.CanAskNew(ctx)
	if err != nil {
		return err
	}
	c.Send(EventCanAskNew, models.CanAskNewResponse{CanAskNew: ok})
	return nil
}

func (g *Gateway) getPollHistory(ctx context.Context, c *Client, _ json.RawMessage) error {
	snapshots, err := g.history.Recent(ctx, classroom.RecentPollLimit)
	if err != nil {
		return fmt.Errorf("failed to load poll history: %w", err)
	}
	c.Send(EventPollHistory, snapshots)
	return nil
}
