package models

import "time"

// Notification is an in-app message addressed to one user.
type Notification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient"`
	Message     string    `json:"message"`
	Link        string    `json:"link,omitempty"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}
