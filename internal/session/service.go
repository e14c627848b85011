// Package session owns authentication state: the registered-user registry,
// the current session, and their persistence across restarts.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/avelkine/edushelf/internal/entities"
	"github.com/avelkine/edushelf/internal/kvstore"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrDuplicateUser      = errors.New("a user with this email or username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTooShort   = errors.New("username must be at least 3 characters")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrEmailInvalid       = errors.New("invalid email format")
)

// IsValidationError reports whether err belongs to the malformed-input class,
// as opposed to a duplicate or credential failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrUsernameTooShort) ||
		errors.Is(err, ErrPasswordTooShort) ||
		errors.Is(err, ErrEmailInvalid)
}

// RegistrationNotifier mirrors successful registrations to a remote endpoint.
// Purely informational; failures are logged and never surfaced.
type RegistrationNotifier interface {
	Notify(user entities.PublicUser)
}

// Service manages the user registry and the current session. The registry and
// session are persisted through the key-value store on every mutation; there
// are no concurrent writers in this single-user-per-device model, so each
// read-modify-write is atomic enough.
type Service struct {
	store      *kvstore.Store
	notifier   RegistrationNotifier
	bcryptCost int

	mu      sync.RWMutex
	current *entities.Session
}

func NewService(store *kvstore.Store, bcryptCost int, notifier RegistrationNotifier) *Service {
	return &Service{
		store:      store,
		notifier:   notifier,
		bcryptCost: bcryptCost,
	}
}

// Register validates the input, appends the new user to the persisted
// registry and returns it. It does not log the user in.
func (s *Service) Register(name, username, email, password string) (*entities.User, error) {
	if len(username) < 3 {
		return nil, ErrUsernameTooShort
	}
	if len(password) < 6 {
		return nil, ErrPasswordTooShort
	}
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to load user registry: %w", err)
	}

	for _, existing := range users {
		if existing.Email == email || existing.Username == username {
			return nil, ErrDuplicateUser
		}
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := entities.User{
		ID:           uint(len(users) + 1),
		Name:         name,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	users = append(users, user)
	if err := s.saveUsers(users); err != nil {
		return nil, fmt.Errorf("failed to persist user registry: %w", err)
	}

	if s.notifier != nil {
		s.notifier.Notify(user.Public())
	}

	return &user, nil
}

// Login matches identity (email or username) and password against the
// registry, mints an opaque token and installs the session. The session is
// persisted so it can be restored after a restart. On failure no state is
// mutated.
func (s *Service) Login(identity, password string) (*entities.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to load user registry: %w", err)
	}

	for _, user := range users {
		if user.Email != identity && user.Username != identity {
			continue
		}
		if err := CheckPassword(password, user.PasswordHash); err != nil {
			// A username may look like another user's email address, so the
			// same identity can match more than one entry. Keep scanning.
			continue
		}

		token, err := generateToken()
		if err != nil {
			return nil, fmt.Errorf("failed to generate token: %w", err)
		}

		sess := &entities.Session{User: user.Public(), Token: token}
		s.current = sess
		s.persistSession(sess)
		return sess, nil
	}

	return nil, ErrInvalidCredentials
}

// Logout clears the in-memory session and deletes the persisted entries.
// Idempotent.
func (s *Service) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	if err := s.store.Delete(entities.SettingKeySession); err != nil {
		return err
	}
	return s.store.Delete(entities.SettingKeyEmail)
}

// Restore installs the persisted session, if any, as current. Local storage
// is trusted: the password is not re-validated. An absent or corrupt value
// yields nil, never an error.
func (s *Service) Restore() *entities.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.store.Get(entities.SettingKeySession)
	if err != nil {
		return nil
	}

	var sess entities.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil || sess.Token == "" {
		return nil
	}

	s.current = &sess
	return &sess
}

// Current returns the active session, or nil when logged out.
func (s *Service) Current() *entities.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Service) persistSession(sess *entities.Session) {
	data, err := json.Marshal(sess)
	if err != nil {
		log.Printf("Failed to serialize session: %v", err)
		return
	}
	if err := s.store.Set(entities.SettingKeySession, string(data)); err != nil {
		log.Printf("Failed to persist session: %v", err)
	}
	// Legacy duplicate kept in sync with the session value.
	if err := s.store.Set(entities.SettingKeyEmail, fmt.Sprintf("%q", sess.User.Email)); err != nil {
		log.Printf("Failed to persist email: %v", err)
	}
}

func (s *Service) loadUsers() ([]entities.User, error) {
	raw, err := s.store.Get(entities.SettingKeyUsers)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var users []entities.User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		// Corrupt registry is treated as empty rather than fatal.
		log.Printf("Failed to parse user registry, starting empty: %v", err)
		return nil, nil
	}
	return users, nil
}

func (s *Service) saveUsers(users []entities.User) error {
	data, err := json.Marshal(users)
	if err != nil {
		return err
	}
	return s.store.Set(entities.SettingKeyUsers, string(data))
}

// RegistryLen reports how many users are registered. Used by tests and the
// setup hint at startup.
func (s *Service) RegistryLen() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users, err := s.loadUsers()
	if err != nil {
		return 0, err
	}
	return len(users), nil
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// NormalizeIdentity trims surrounding whitespace from a login identity.
// Passwords are left untouched.
func NormalizeIdentity(identity string) string {
	return strings.TrimSpace(identity)
}
