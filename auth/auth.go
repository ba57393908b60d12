// Package auth talks to the identity provider that owns accounts,
// credentials and tokens. Session state built on top of it lives in the
// session package.
package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/truefans/server/models"
)

// ErrInvalidCredentials is returned by SignIn when the email and password
// do not match an account.
var ErrInvalidCredentials = errors.New("invalid login credentials")

type Event int

const (
	SignedIn Event = iota + 1
	SignedOut
)

func (e Event) String() string {
	switch e {
	case SignedIn:
		return "SIGNED_IN"
	case SignedOut:
		return "SIGNED_OUT"
	default:
		return "UNKNOWN"
	}
}

// Listener receives session changes. user is nil for SignedOut.
type Listener func(event Event, user *models.User)

// Unsubscribe stops a Listener from receiving further events.
type Unsubscribe func()

// Provider is one client's connection to the identity provider. Token
// storage, refresh and expiry are the provider's business.
type Provider interface {
	CurrentSession(ctx context.Context) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (*models.User, error)
	SignOut(ctx context.Context) error
	OnSessionChanged(fn Listener) Unsubscribe
}

// Factory hands out Providers, either fresh ones with no session or ones
// bound to a bearer token the caller already holds.
type Factory interface {
	NewClient() Provider
	ClientForToken(token string) Provider
}

// listeners fans session events out to subscribers in subscription order.
type listeners struct {
	mu   sync.Mutex
	next int
	fns  map[int]Listener
	ids  []int
}

func (l *listeners) subscribe(fn Listener) Unsubscribe {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fns == nil {
		l.fns = make(map[int]Listener)
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	l.ids = append(l.ids, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.fns, id)
			for i, v := range l.ids {
				if v == id {
					l.ids = append(l.ids[:i], l.ids[i+1:]...)
					break
				}
			}
		})
	}
}

func (l *listeners) emit(event Event, user *models.User) {
	l.mu.Lock()
	fns := make([]Listener, 0, len(l.ids))
	for _, id := range l.ids {
		fns = append(fns, l.fns[id])
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(event, copyUser(user))
	}
}

func copyUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
