// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"errors"
	"fmt"

	"github.com/segmentio/encoding/json"
)

// Inbound events
const (
	EventRegisterStudent     = "register-student"
	EventRequestParticipants = "request-participants"
	EventChatMessage         = "chat:message"
	EventGetAllMessages      = "get-all-messages"
	EventCreatePoll          = "create-poll"
	EventSubmitAnswer        = "submit-answer"
	EventCanAskNew           = "can-ask-new"
	EventGetPollHistory      = "get-poll-history"
	EventKickStudent         = "kick-student"
)

// Outbound events. chat:message and can-ask-new reuse the inbound names.
const (
	EventSession             = "session"
	EventRegistrationSuccess = "registration:success"
	EventParticipantsUpdate  = "participants:update"
	EventChatMessages        = "chat:messages"
	EventPollStarted         = "poll-started"
	EventPollResults         = "poll-results"
	EventPollHistory         = "poll-history"
	EventKicked              = "kicked"
	EventError               = "error"
)

var errMalformed = errors.New("malformed payload")

// Frame is one websocket message in either direction
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type outboundFrame struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// EncodeFrame serializes an event and its payload. A nil payload omits data.
func EncodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(outboundFrame{Type: event, Data: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s frame: %w", event, err)
	}
	return data, nil
}

// DecodeFrame parses an inbound message
func DecodeFrame(raw []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if f.Type == "" {
		return Frame{}, fmt.Errorf("%w: missing type", errMalformed)
	}
	return f, nil
}

// decode unmarshals an event payload. A missing payload decodes to the zero value.
func decode[T any](data json.RawMessage) (T, error) {
	var v T
	if len(data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: %v", errMalformed, err)
	}
	return v, nil
}
