package appstate

import (
	"github.com/avelkine/edushelf/internal/entities"
)

// FetchStatus is the lifecycle of a remote query slice.
type FetchStatus string

const (
	StatusIdle      FetchStatus = "idle"
	StatusPending   FetchStatus = "pending"
	StatusSucceeded FetchStatus = "succeeded"
	StatusFailed    FetchStatus = "failed"
)

// DetailState tracks one work's lazily fetched description, independent of
// the list-level slice.
type DetailState struct {
	Status FetchStatus          `json:"status"`
	Detail *entities.BookDetail `json:"detail,omitempty"`
	Err    string               `json:"error,omitempty"`
}

// BooksState is the catalogue query slice. On failure Items keeps the
// pre-request data; only Err records what went wrong.
type BooksState struct {
	Status  FetchStatus            `json:"status"`
	Query   string                 `json:"query"`
	Items   []entities.Book        `json:"items"`
	Err     string                 `json:"error,omitempty"`
	Details map[string]DetailState `json:"details,omitempty"`
}

// State is the process-wide state tree: one slice per manager plus the
// catalogue fetch slice. Snapshots handed to subscribers are copies; mutating
// them has no effect on the store.
type State struct {
	Session     *entities.Session     `json:"session,omitempty"`
	Favorites   []entities.Book       `json:"favorites"`
	Books       BooksState            `json:"books"`
	Assignments []entities.Assignment `json:"assignments"`
}

func (s State) copy() State {
	out := s

	if s.Session != nil {
		sess := *s.Session
		out.Session = &sess
	}

	out.Favorites = make([]entities.Book, len(s.Favorites))
	copy(out.Favorites, s.Favorites)

	out.Books.Items = make([]entities.Book, len(s.Books.Items))
	copy(out.Books.Items, s.Books.Items)

	out.Books.Details = make(map[string]DetailState, len(s.Books.Details))
	for k, v := range s.Books.Details {
		out.Books.Details[k] = v
	}

	out.Assignments = make([]entities.Assignment, len(s.Assignments))
	copy(out.Assignments, s.Assignments)

	return out
}
