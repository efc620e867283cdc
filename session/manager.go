package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// DefaultCookieName is the name of the session cookie.
const DefaultCookieName = "docserve_session"

// Config configures a Manager.
type Config struct {
	CookieName string        // defaults to DefaultCookieName
	Secure     bool          // only send the cookie over HTTPS
	MaxAge     time.Duration // lifetime of the cookie; 0 makes it a browser session cookie
}

// Manager ties requests to stored theme preferences.
type Manager struct {
	store Store
	cfg   Config
}

// NewManager creates a Manager around store.
func NewManager(store Store, cfg Config) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	return &Manager{store: store, cfg: cfg}
}

// Theme returns the theme saved for the session of r.
func (m *Manager) Theme(r *http.Request) (Theme, bool, error) {
	id, ok := m.id(r)
	if !ok {
		return "", false, nil
	}
	return m.store.Theme(r.Context(), id)
}

// SetTheme saves t for the session of r, starting a session when there is none.
func (m *Manager) SetTheme(w http.ResponseWriter, r *http.Request, t Theme) error {
	id, ok := m.id(r)
	if !ok {
		id = uuid.NewString()
	}
	if err := m.store.SetTheme(r.Context(), id, t); err != nil {
		return err
	}
	c := &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if m.cfg.MaxAge > 0 {
		c.MaxAge = int(m.cfg.MaxAge / time.Second)
	}
	http.SetCookie(w, c)
	return nil
}

// id returns the session id of r when it carries a well-formed one.
func (m *Manager) id(r *http.Request) (string, bool) {
	c, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return "", false
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return "", false
	}
	return c.Value, true
}
