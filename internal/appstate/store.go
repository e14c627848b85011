// Package appstate aggregates the session, favorites, catalogue and
// assignment managers into one process-wide state tree. Every mutation goes
// through a named action method; each action completes its synchronous state
// change before any subscriber sees the new snapshot, so readers never
// observe partial state.
package appstate

import (
	"context"
	"sync"
	"time"

	"github.com/avelkine/edushelf/internal/assignments"
	"github.com/avelkine/edushelf/internal/entities"
	"github.com/avelkine/edushelf/internal/favorites"
	"github.com/avelkine/edushelf/internal/session"
)

// Catalogue is the read-only remote catalogue surface the store depends on.
type Catalogue interface {
	Search(ctx context.Context, term string) ([]entities.Book, error)
	FetchDetail(ctx context.Context, key string) (*entities.BookDetail, error)
}

// Store serializes all state transitions. Network fetches are the only
// operations that suspend: they dispatch a synchronous start transition and a
// later settle transition when the response arrives. A superseding fetch does
// not cancel the in-flight one; whichever response arrives last wins.
type Store struct {
	sessions    *session.Service
	favorites   *favorites.Manager
	assignments *assignments.Manager
	catalogue   Catalogue

	mu    sync.Mutex
	state State

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

func NewStore(sessions *session.Service, favs *favorites.Manager, asgn *assignments.Manager, cat Catalogue) *Store {
	return &Store{
		sessions:    sessions,
		favorites:   favs,
		assignments: asgn,
		catalogue:   cat,
		state: State{
			Favorites: []entities.Book{},
			Books: BooksState{
				Status:  StatusIdle,
				Items:   []entities.Book{},
				Details: map[string]DetailState{},
			},
			Assignments: []entities.Assignment{},
		},
		subs: map[int]func(State){},
	}
}

// Subscribe registers fn to be called with a snapshot after every completed
// transition. The returned function unsubscribes.
func (s *Store) Subscribe(fn func(State)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// Snapshot returns a copy of the current state tree.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.copy()
}

// Restore replays persisted state at startup: session first, then favorites.
func (s *Store) Restore() {
	s.mu.Lock()
	s.state.Session = s.sessions.Restore()
	s.favorites.Restore()
	s.state.Favorites = s.favorites.List()
	snapshot := s.state.copy()
	s.mu.Unlock()

	s.notify(snapshot)
}

// --- Session actions ---

func (s *Store) Register(name, username, email, password string) (*entities.User, error) {
	// Registration mutates only the persisted registry, not the state tree.
	return s.sessions.Register(name, username, email, password)
}

func (s *Store) Login(identity, password string) (*entities.Session, error) {
	sess, err := s.sessions.Login(identity, password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.state.Session = sess
	snapshot := s.state.copy()
	s.mu.Unlock()

	s.notify(snapshot)
	return sess, nil
}

func (s *Store) Logout() error {
	err := s.sessions.Logout()

	s.mu.Lock()
	s.state.Session = nil
	snapshot := s.state.copy()
	s.mu.Unlock()

	s.notify(snapshot)
	return err
}

// --- Favorites actions ---

func (s *Store) AddFavorite(book entities.Book) error {
	s.mu.Lock()
	err := s.favorites.Add(book)
	s.state.Favorites = s.favorites.List()
	snapshot := s.state.copy()
	s.mu.Unlock()

	s.notify(snapshot)
	return err
}

func (s *Store) RemoveFavorite(key string) error {
	s.mu.Lock()
	err := s.favorites.Remove(key)
	s.state.Favorites = s.favorites.List()
	snapshot := s.state.copy()
	s.mu.Unlock()

	s.notify(snapshot)
	return err
}

// --- Assignment actions ---

func (s *Store) CreateAssignment(title, subject, description string, deadline time.Time) (*entities.Assignment, error) {
	s.mu.Lock()
	assignment, err := s.assignments.Create(title, subject, description, deadline)
	s.state.Assignments = s.assignments.List()
	snapshot := s.state.copy()
	s.mu.Unlock()

	s.notify(snapshot)
	return assignment, err
}

// --- Catalogue actions ---

// SearchBooks moves the books slice to pending, clears any prior error, and
// resolves the query in the background. The pending transition happens before
// SearchBooks returns.
func (s *Store) SearchBooks(ctx context.Context, term string) {
	s.mu.Lock()
	s.state.Books.Status = StatusPending
	s.state.Books.Query = term
	s.state.Books.Err = ""
	snapshot := s.state.copy()
	s.mu.Unlock()

	s.notify(snapshot)

	go s.settleSearch(ctx, term)
}

func (s *Store) settleSearch(ctx context.Context, term string) {
	books, err := s.catalogue.Search(ctx, term)

	s.mu.Lock()
	if err != nil {
		// Prior items stay displayed; only the failure reason is recorded.
		s.state.Books.Status = StatusFailed
		s.state.Books.Err = err.Error()
	} else {
		s.state.Books.Status = StatusSucceeded
		s.state.Books.Items = books
		s.state.Books.Err = ""
	}
	snapshot := s.state.copy()
	s.mu.Unlock()

	s.notify(snapshot)
}

// FetchDetail resolves a single work's description in the background,
// tracking its own three-state slice keyed by the book key.
func (s *Store) FetchDetail(ctx context.Context, key string) {
	s.startDetail(key)
	go func() {
		_ = s.settleDetail(ctx, key)
	}()
}

// FetchDetailWait is the synchronous variant used by background workers so
// that failures can be retried by the queue.
func (s *Store) FetchDetailWait(ctx context.Context, key string) error {
	s.startDetail(key)
	return s.settleDetail(ctx, key)
}

func (s *Store) startDetail(key string) {
	s.mu.Lock()
	s.state.Books.Details[key] = DetailState{Status: StatusPending}
	snapshot := s.state.copy()
	s.mu.Unlock()

	s.notify(snapshot)
}

func (s *Store) settleDetail(ctx context.Context, key string) error {
	detail, err := s.catalogue.FetchDetail(ctx, key)

	s.mu.Lock()
	if err != nil {
		s.state.Books.Details[key] = DetailState{Status: StatusFailed, Err: err.Error()}
	} else {
		s.state.Books.Details[key] = DetailState{Status: StatusSucceeded, Detail: detail}
	}
	snapshot := s.state.copy()
	s.mu.Unlock()

	s.notify(snapshot)
	return err
}

func (s *Store) notify(snapshot State) {
	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}
