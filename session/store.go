// Package session holds the per-client view of who is signed in.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/truefans/server/auth"
	"github.com/truefans/server/models"
)

// Config controls the demo admin login and which signals count as admin.
type Config struct {
	// DemoAdminEmail and DemoAdminPassword sign in an admin without asking
	// the identity provider. An empty email turns the bypass off.
	DemoAdminEmail    string
	DemoAdminPassword string

	// LegacyAdminSignals also treats the demo email and the is_admin
	// metadata flag as admin, alongside the admin role.
	LegacyAdminSignals bool
}

// DemoAdmin is the user set by the demo admin login.
func (c Config) DemoAdmin() *models.User {
	return &models.User{
		ID:    "admin-123",
		Email: strings.TrimSpace(c.DemoAdminEmail),
		Role:  models.RoleAdmin,
		Metadata: models.UserMetadata{
			Name:    "Admin User",
			IsAdmin: true,
		},
	}
}

func (c Config) isDemoLogin(email, password string) bool {
	if c.DemoAdminEmail == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(email), strings.TrimSpace(c.DemoAdminEmail)) &&
		password == c.DemoAdminPassword
}

// isMusician honours the musician role and the is_musician flag alike.
func isMusician(u *models.User) bool {
	return u != nil && (u.Role == models.RoleMusician || u.Metadata.IsMusician)
}

func (c Config) isAdmin(u *models.User) bool {
	if u == nil {
		return false
	}
	if u.Role == models.RoleAdmin {
		return true
	}
	if !c.LegacyAdminSignals {
		return false
	}
	if c.DemoAdminEmail != "" && strings.EqualFold(strings.TrimSpace(u.Email), strings.TrimSpace(c.DemoAdminEmail)) {
		return true
	}
	return u.Metadata.IsAdmin
}

// Store is the session state of one client. Only its own methods and the
// provider listener installed by Init change the current user.
type Store struct {
	provider auth.Provider
	cfg      Config
	log      zerolog.Logger

	id string

	mu          sync.RWMutex
	user        *models.User
	loading     bool
	unsubscribe auth.Unsubscribe
}

// NewStore returns a Store that reports loading until Init runs.
func NewStore(provider auth.Provider, cfg Config, log zerolog.Logger) *Store {
	return &Store{
		provider: provider,
		cfg:      cfg,
		log:      log,
		loading:  true,
	}
}

// ID is the session id the Store was opened under, or "" for stores that
// are not held by a Manager.
func (s *Store) ID() string {
	return s.id
}

// Init loads the provider's current session and subscribes to its change
// notifications. Loading ends whether or not the lookup succeeds; on error
// the store is left signed out.
func (s *Store) Init(ctx context.Context) error {
	user, err := s.provider.CurrentSession(ctx)
	if err != nil {
		s.ClearUser()
	} else if user != nil {
		s.SetUser(user)
	} else {
		s.ClearUser()
	}

	unsubscribe := s.provider.OnSessionChanged(s.onSessionChanged)

	s.mu.Lock()
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	return err
}

// Close stops listening to the provider. It is safe to call more than once.
func (s *Store) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (s *Store) onSessionChanged(event auth.Event, user *models.User) {
	s.log.Debug().Str("session", s.id).Stringer("event", event).Msg("session changed")

	switch event {
	case auth.SignedIn:
		if user != nil {
			s.SetUser(user)
		}
	case auth.SignedOut:
		s.ClearUser()
	}
}

// Login signs in with the identity provider, except for the demo admin
// credentials which never reach it. Provider errors are returned as is.
func (s *Store) Login(ctx context.Context, email, password string) error {
	if s.cfg.isDemoLogin(email, password) {
		s.SetUser(s.cfg.DemoAdmin())
		return nil
	}

	user, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	s.SetUser(user)
	return nil
}

// Logout ends the provider session and clears the user even when the
// provider fails. The provider's error is returned for logging.
func (s *Store) Logout(ctx context.Context) error {
	err := s.provider.SignOut(ctx)
	s.ClearUser()
	if err != nil {
		s.log.Warn().Err(err).Str("session", s.id).Msg("identity provider sign out failed")
	}
	return err
}

// SetUser replaces the current user with a copy of user and ends loading.
func (s *Store) SetUser(user *models.User) {
	var u *models.User
	if user != nil {
		c := *user
		u = &c
	}

	s.mu.Lock()
	s.user = u
	s.loading = false
	s.mu.Unlock()
}

// ClearUser signs the store out locally and ends loading.
func (s *Store) ClearUser() {
	s.mu.Lock()
	s.user = nil
	s.loading = false
	s.mu.Unlock()
}

// User returns a copy of the current user, or nil. A nil Store has no user.
func (s *Store) User() *models.User {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsAuthenticated reports whether a user is signed in.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// IsLoading is true until Init or a setter has run.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// IsMusician reports whether the user has the musician role or flag.
func (s *Store) IsMusician() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return isMusician(s.user)
}

// IsAdmin reports whether the user counts as an admin under the Store's
// Config.
func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.isAdmin(s.user)
}

// Snapshot is a consistent read of a Store.
type Snapshot struct {
	User            *models.User `json:"user"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	IsLoading       bool         `json:"isLoading"`
	IsMusician      bool         `json:"isMusician"`
	IsAdmin         bool         `json:"isAdmin"`
}

// Snapshot reads every field under one lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		IsAuthenticated: s.user != nil,
		IsLoading:       s.loading,
		IsAdmin:         s.cfg.isAdmin(s.user),
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
		snap.IsMusician = isMusician(&u)
	}
	return snap
}
