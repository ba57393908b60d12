package session

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/truefans/server/auth"
)

// CookieName carries the session id between requests.
const CookieName = "truefans_session"

// A private key for context that only this package can access.
var storeCtxKey = &contextKey{"session"}

type contextKey struct {
	name string
}

// Middleware finds the caller's Store and packs it into the request
// context. A bearer token gets a Store of its own for the duration of the
// request; otherwise the session cookie selects one held by manager.
func Middleware(manager *Manager, tokens auth.Factory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := zerolog.Ctx(r.Context())

			var store *Store
			t := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
			if len(t) == 2 && t[0] == "Bearer" {
				store = NewStore(tokens.ClientForToken(t[1]), manager.Config(), *log)
				err := store.Init(r.Context())
				defer store.Close()
				if err != nil || !store.IsAuthenticated() {
					log.Debug().Err(err).Msg("rejected bearer token")
					http.Error(w, "Invalid token", http.StatusForbidden)
					return
				}
			} else if c, err := r.Cookie(CookieName); err == nil {
				store, _ = manager.Get(c.Value)
			}

			if store != nil {
				r = r.WithContext(WithStore(r.Context(), store))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithStore returns a copy of ctx carrying store.
func WithStore(ctx context.Context, store *Store) context.Context {
	return context.WithValue(ctx, storeCtxKey, store)
}

// ForContext finds the Store from the context. REQUIRES Middleware to have
// run; nil means the caller has no session.
func ForContext(ctx context.Context) *Store {
	raw, _ := ctx.Value(storeCtxKey).(*Store)
	return raw
}

// SetCookie points the client at the Store opened under id.
func SetCookie(w http.ResponseWriter, id string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ExpireCookie tells the client to forget its session id.
func ExpireCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
