package chat

import "time"

// Session captures an anonymous browser conversation identified by a cookie.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
