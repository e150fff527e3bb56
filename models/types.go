package models

import "time"

// DefaultTimeLimit is applied to polls created without a positive time limit (seconds)
const DefaultTimeLimit = 60

// Domain types

type Student struct {
	ID        string    `json:"_id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	SessionID string    `json:"socketId" bson:"socketId"`
	IsKicked  bool      `json:"isKicked" bson:"isKicked"`
	JoinedAt  time.Time `json:"joinedAt" bson:"joinedAt"`
}

type Option struct {
	ID        string `json:"_id" bson:"_id"`
	Text      string `json:"text" bson:"text"`
	IsCorrect bool   `json:"isCorrect" bson:"isCorrect"`
}

type Poll struct {
	ID        string    `json:"_id" bson:"_id"`
	Text      string    `json:"text" bson:"text"`
	Options   []Option  `json:"options" bson:"options"`
	TimeLimit int       `json:"timeLimit" bson:"timeLimit"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Option returns the option with the given ID, or nil
func (p *Poll) Option(id string) *Option {
	for i := range p.Options {
		if p.Options[i].ID == id {
			return &p.Options[i]
		}
	}
	return nil
}

type Response struct {
	ID             string    `json:"_id" bson:"_id"`
	StudentID      string    `json:"studentId" bson:"studentId"`
	PollID         string    `json:"pollId" bson:"pollId"`
	SelectedOption string    `json:"selectedOption" bson:"selectedOption"`
	IsCorrect      bool      `json:"isCorrect" bson:"isCorrect"`
	SubmittedAt    time.Time `json:"submittedAt" bson:"submittedAt"`
}

type Message struct {
	ID        string    `json:"_id" bson:"_id"`
	Sender    string    `json:"sender" bson:"sender"`
	Text      string    `json:"text" bson:"text"`
	SessionID string    `json:"socketId" bson:"socketId"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Request types (realtime event payloads)

type RegisterStudentRequest struct {
	Name string `json:"name"`
}

type ChatMessageRequest struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

type OptionInput struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

type CreatePollRequest struct {
	Text      string        `json:"text"`
	Options   []OptionInput `json:"options"`
	TimeLimit int           `json:"timeLimit"`
}

type SubmitAnswerRequest struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

type KickStudentRequest struct {
	Name string `json:"name"`
}

// Response types

type SessionInfo struct {
	SessionID string `json:"sessionId"`
}

// ChatBroadcast is what every participant sees for a new chat message
type ChatBroadcast struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// PollResults is the live tally: option_id -> count
type PollResults struct {
	PollID    string         `json:"pollId"`
	Answers   map[string]int `json:"answers"`
	CanAskNew bool           `json:"canAskNew"`
}

type CanAskNewResponse struct {
	CanAskNew bool `json:"canAskNew"`
}

// PollSnapshot is one entry of the realtime poll-history event
type PollSnapshot struct {
	Poll    Poll           `json:"poll"`
	Results map[string]int `json:"results"`
}

// Tally types

type OptionTally struct {
	ID         string `json:"_id"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"isCorrect"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// PollHistory is one entry of GET /api/polls/history
type PollHistory struct {
	ID        string        `json:"_id"`
	Question  string        `json:"question"`
	Options   []OptionTally `json:"options"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Error responses

type ErrorResponse struct {
	Error string `json:"error"`
}

// EventError is sent to the originating session when an event handler fails
type EventError struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}
