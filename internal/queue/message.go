package queue

import (
	"context"
	"encoding/json"
	"time"
)

// MessageVersion is the current screening message schema. Workers reject
// anything newer.
const MessageVersion = 1

// Message asks a worker to screen one application.
type Message struct {
	ApplicationID string `json:"applicationId"`
	JobID         string `json:"jobId"`
	RequestID     string `json:"requestId"`
	EnqueuedAt    string `json:"enqueuedAt"`
	Version       int    `json:"version"`
}

// Client publishes screening messages.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, msg Message) error

func (f ClientFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

// NewScreeningMessage stamps a message at the current schema version.
func NewScreeningMessage(applicationID, jobID, requestID string, now time.Time) Message {
	return Message{
		ApplicationID: applicationID,
		JobID:         jobID,
		RequestID:     requestID,
		EnqueuedAt:    now.UTC().Format(time.RFC3339),
		Version:       MessageVersion,
	}
}

func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
