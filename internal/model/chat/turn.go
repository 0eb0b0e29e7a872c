package chat

import "time"

// Turn pairs one user input with the assistant answer it produced.
type Turn struct {
	SessionID string    `json:"sessionId"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	CreatedAt time.Time `json:"createdAt"`
}
