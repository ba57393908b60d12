package resolvers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/truefans/server/session"
)

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *Resolver) currentSession(w http.ResponseWriter, req *http.Request) {
	store := session.ForContext(req.Context())
	if store == nil {
		writeJSON(w, http.StatusOK, session.Snapshot{})
		return
	}
	writeJSON(w, http.StatusOK, store.Snapshot())
}

// login signs in the caller's session. Callers without one get a new
// session, kept and sent as a cookie only when the login succeeds.
func (r *Resolver) login(w http.ResponseWriter, req *http.Request) {
	var input loginInput
	if err := decode(w, req, &input); err != nil {
		writeError(w, req, err)
		return
	}

	ctx := req.Context()
	store := session.ForContext(ctx)
	if store != nil {
		if err := store.Login(ctx, input.Email, input.Password); err != nil {
			writeError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, store.Snapshot())
		return
	}

	id, store, err := r.sessions.Open(ctx, r.identity.NewClient())
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("new session started signed out")
	}
	if err := store.Login(ctx, input.Email, input.Password); err != nil {
		r.sessions.Close(id)
		writeError(w, req, err)
		return
	}
	session.SetCookie(w, id, r.secureCookies)
	writeJSON(w, http.StatusOK, store.Snapshot())
}

// logout always ends the local session; provider failures are only logged.
func (r *Resolver) logout(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	store := session.ForContext(ctx)
	if store == nil {
		writeJSON(w, http.StatusOK, session.Snapshot{})
		return
	}

	_ = store.Logout(ctx)
	if id := store.ID(); id != "" {
		r.sessions.Close(id)
		session.ExpireCookie(w, r.secureCookies)
	}
	writeJSON(w, http.StatusOK, store.Snapshot())
}
