package domain

import "time"

// ClientMessage is what a WebSocket client sends over the live channel.
type ClientMessage struct {
	Type string `json:"type"`
	To   int64  `json:"to,omitempty"`
	Body string `json:"body,omitempty"`
}

// ServerMessage is what the server pushes to a WebSocket client.
type ServerMessage struct {
	Type      string    `json:"type"`
	MessageID string    `json:"message_id,omitempty"`
	From      int64     `json:"from,omitempty"`
	FromName  string    `json:"from_name,omitempty"`
	Body      string    `json:"body,omitempty"`
	SentAt    time.Time `json:"sent_at,omitempty"`
	Message   string    `json:"message,omitempty"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
