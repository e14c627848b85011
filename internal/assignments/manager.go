// Package assignments owns the user-created list of study tasks. Create-only
// in the current scope, and in-memory only: tasks live for the lifetime of
// the process.
package assignments

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/avelkine/edushelf/internal/entities"
)

// ErrTitleRequired is returned when the title trims to empty.
var ErrTitleRequired = errors.New("assignment title is required")

type Manager struct {
	mu     sync.RWMutex
	items  []entities.Assignment
	nextID uint
}

func NewManager() *Manager {
	return &Manager{nextID: 1}
}

// Create validates and appends a new assignment. Past deadlines are accepted
// here; discouraging them is the presentation layer's concern.
func (m *Manager) Create(title, subject, description string, deadline time.Time) (*entities.Assignment, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	assignment := entities.Assignment{
		ID:          m.nextID,
		Title:       title,
		Subject:     subject,
		Description: description,
		Deadline:    deadline,
		CreatedAt:   time.Now(),
	}
	m.nextID++
	m.items = append(m.items, assignment)

	return &assignment, nil
}

// List returns all assignments in creation order.
func (m *Manager) List() []entities.Assignment {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]entities.Assignment, len(m.items))
	copy(out, m.items)
	return out
}

// DueWithin returns assignments whose deadline falls between now and
// now+window. Used by the reminder scheduler.
func (m *Manager) DueWithin(window time.Duration) []entities.Assignment {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	cutoff := now.Add(window)

	var due []entities.Assignment
	for _, a := range m.items {
		if a.Deadline.After(now) && !a.Deadline.After(cutoff) {
			due = append(due, a)
		}
	}
	return due
}
