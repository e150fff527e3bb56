// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package classroom

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/danielhkuo/live-poll/auth"
	"github.com/danielhkuo/live-poll/db"
	"github.com/danielhkuo/live-poll/models"
)

// Chat stores and relays chat messages
type Chat struct {
	store       db.Store
	teacherName string
}

func NewChat(store db.Store, teacherName string) *Chat {
	return &Chat{store: store, teacherName: teacherName}
}

// Post stores a message. Messages from anyone but the teacher need a
// registered, non-kicked student of that name; others are dropped (nil, nil).
func (c *Chat) Post(ctx context.Context, sender, text, sessionID string) (*models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	if !auth.IsTeacher(sender, c.teacherName) {
		student, err := c.store.FindStudentByName(ctx, sender)
		if errors.Is(err, db.ErrNotFound) {
			slog.Debug("chat from unknown sender dropped", "sender", sender)
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if student.IsKicked {
			slog.Debug("chat from kicked sender dropped", "sender", sender)
			return nil, nil
		}
	}

	msg := &models.Message{
		Sender:    sender,
		Text:      text,
		SessionID: sessionID,
	}
	if err := c.store.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	slog.Info("message posted", "message_id", msg.ID, "sender", sender, "session_id", sessionID)
	return msg, nil
}

// All returns every message, oldest first
func (c *Chat) All(ctx context.Context) ([]models.Message, error) {
	return c.store.ListMessages(ctx)
}
