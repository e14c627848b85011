package kvstore

import (
	"github.com/avelkine/edushelf/internal/entities"
)

// ThemeStore resolves the appearance preference. Priority: stored value >
// configured default. It is passed explicitly to the consumers that need it
// rather than living in process-wide state.
type ThemeStore struct {
	store        *Store
	defaultTheme string
}

func NewThemeStore(store *Store, defaultTheme string) *ThemeStore {
	return &ThemeStore{store: store, defaultTheme: defaultTheme}
}

// Get returns the persisted theme, falling back to the configured default.
func (t *ThemeStore) Get() string {
	value, err := t.store.Get(entities.SettingKeyTheme)
	if err != nil || value == "" {
		return t.defaultTheme
	}
	return value
}

// Set persists the theme. The theme value is stored as a bare string, unlike
// the other keys which hold JSON text.
func (t *ThemeStore) Set(theme string) error {
	return t.store.Set(entities.SettingKeyTheme, theme)
}
