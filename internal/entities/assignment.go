package entities

import (
	"time"
)

// Assignment is a user-created study task. Create-only in the current scope
// and held in memory for the lifetime of the process.
type Assignment struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Subject     string    `json:"subject,omitempty"`
	Description string    `json:"description,omitempty"`
	Deadline    time.Time `json:"deadline"`
	CreatedAt   time.Time `json:"created_at"`
}
