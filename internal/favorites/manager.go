// Package favorites owns the set of favorited catalogue items. The set has
// set semantics keyed by the book's catalogue key but preserves insertion
// order, and it is written through to the key-value store on every mutation.
package favorites

import (
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/avelkine/edushelf/internal/entities"
	"github.com/avelkine/edushelf/internal/kvstore"
)

type Manager struct {
	store *kvstore.Store

	mu    sync.RWMutex
	items []entities.Book
}

func NewManager(store *kvstore.Store) *Manager {
	return &Manager{store: store}
}

// Add appends the book unless its key is already present, then persists the
// whole set. Duplicate adds are silent no-ops.
func (m *Manager) Add(book entities.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.items {
		if existing.Key == book.Key {
			return nil
		}
	}

	m.items = append(m.items, book)
	return m.persist()
}

// Remove deletes the entry with the given key, if any, and persists the set
// unconditionally. Removing an absent key is not an error.
func (m *Manager) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	filtered := m.items[:0]
	for _, item := range m.items {
		if item.Key != key {
			filtered = append(filtered, item)
		}
	}
	m.items = filtered
	return m.persist()
}

// Contains reports whether a book with the given key is favorited.
func (m *Manager) Contains(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, item := range m.items {
		if item.Key == key {
			return true
		}
	}
	return false
}

// List returns the favorites in insertion order.
func (m *Manager) List() []entities.Book {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]entities.Book, len(m.items))
	copy(out, m.items)
	return out
}

// Restore replaces the in-memory set with the persisted one. An absent key or
// a value that fails to parse yields an empty set, never an error.
func (m *Manager) Restore() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = nil

	raw, err := m.store.Get(entities.SettingKeyFavorites)
	if errors.Is(err, kvstore.ErrNotFound) {
		return
	}
	if err != nil {
		log.Printf("Failed to read persisted favorites: %v", err)
		return
	}

	var items []entities.Book
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		log.Printf("Failed to parse persisted favorites, starting empty: %v", err)
		return
	}
	m.items = items
}

// persist writes the full set. Caller must hold the lock.
func (m *Manager) persist() error {
	items := m.items
	if items == nil {
		items = []entities.Book{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return m.store.Set(entities.SettingKeyFavorites, string(data))
}
