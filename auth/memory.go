package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/truefans/server/models"
)

// Directory is an in-process identity provider. It backs local development
// and tests when no Firebase project is configured.
type Directory struct {
	mu       sync.RWMutex
	cost     int
	accounts map[string]account
	tokens   map[string]string
}

type account struct {
	user models.User
	hash []byte
}

// NewDirectory returns an empty Directory. Passwords are hashed with bcrypt
// at the given cost; zero means bcrypt.DefaultCost.
func NewDirectory(cost int) *Directory {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Directory{
		cost:     cost,
		accounts: make(map[string]account),
		tokens:   make(map[string]string),
	}
}

// Add registers an account. The user's role is derived from its metadata
// flags when unset.
func (d *Directory) Add(user models.User, password string) error {
	if user.Email == "" {
		return fmt.Errorf("%w: account email is required", models.ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = models.RoleFromFlags(user.Metadata)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.accounts[normalizeEmail(user.Email)] = account{user: user, hash: hash}
	return nil
}

func (d *Directory) NewClient() Provider {
	return &DirectoryClient{dir: d}
}

// ClientForToken returns a client already signed in with token. Unknown
// tokens yield a client with no session.
func (d *Directory) ClientForToken(token string) Provider {
	return &DirectoryClient{dir: d, token: token}
}

func (d *Directory) authenticate(email, password string) (*models.User, error) {
	d.mu.RLock()
	acc, ok := d.accounts[normalizeEmail(email)]
	d.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	user := acc.user
	return &user, nil
}

func (d *Directory) issue(email string) string {
	token := uuid.NewString()
	d.mu.Lock()
	d.tokens[token] = normalizeEmail(email)
	d.mu.Unlock()
	return token
}

func (d *Directory) revoke(token string) {
	d.mu.Lock()
	delete(d.tokens, token)
	d.mu.Unlock()
}

func (d *Directory) lookup(token string) *models.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	email, ok := d.tokens[token]
	if !ok {
		return nil
	}
	acc, ok := d.accounts[email]
	if !ok {
		return nil
	}
	user := acc.user
	return &user
}

// DirectoryClient is a single client session against a Directory.
type DirectoryClient struct {
	dir       *Directory
	mu        sync.Mutex
	token     string
	listeners listeners
}

func (c *DirectoryClient) CurrentSession(_ context.Context) (*models.User, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token == "" {
		return nil, nil
	}
	return c.dir.lookup(token), nil
}

func (c *DirectoryClient) SignIn(_ context.Context, email, password string) (*models.User, error) {
	user, err := c.dir.authenticate(email, password)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.token != "" {
		c.dir.revoke(c.token)
	}
	c.token = c.dir.issue(user.Email)
	c.mu.Unlock()

	c.listeners.emit(SignedIn, user)
	return user, nil
}

func (c *DirectoryClient) SignOut(_ context.Context) error {
	c.mu.Lock()
	if c.token != "" {
		c.dir.revoke(c.token)
		c.token = ""
	}
	c.mu.Unlock()

	c.listeners.emit(SignedOut, nil)
	return nil
}

func (c *DirectoryClient) OnSessionChanged(fn Listener) Unsubscribe {
	return c.listeners.subscribe(fn)
}

// Token is the bearer token for the client's current session, if any.
func (c *DirectoryClient) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
