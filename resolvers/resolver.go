// Package resolvers serves the HTTP JSON API.
package resolvers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/truefans/server/auth"
	wrabitDB "github.com/truefans/server/db"
	"github.com/truefans/server/models"
	"github.com/truefans/server/notify"
	"github.com/truefans/server/payment"
	"github.com/truefans/server/session"
	"github.com/truefans/server/venue"
)

const maxBodyBytes = 1 << 20

// Options wires a Resolver to its collaborators.
type Options struct {
	DB        *sql.DB
	Sessions  *session.Manager
	Identity  auth.Factory
	Processor payment.Processor
	Payouts   payment.Payouts
	Notifier  notify.Notifier
	Log       zerolog.Logger

	CORSOrigins   []string
	EmbedBaseURL  string
	SecureCookies bool

	// PaymentMethod is charged when a donation request names none.
	PaymentMethod string
}

type Resolver struct {
	db        *sql.DB
	sessions  *session.Manager
	identity  auth.Factory
	processor payment.Processor
	payouts   payment.Payouts
	notifier  notify.Notifier
	log       zerolog.Logger

	donations     *wrabitDB.Donations
	payoutRecords *wrabitDB.Payouts
	catalog       *wrabitDB.Catalog
	shows         *wrabitDB.Shows
	venues        *venue.Service

	corsOrigins   []string
	secureCookies bool
	paymentMethod string
}

func New(opts Options) *Resolver {
	return &Resolver{
		db:            opts.DB,
		sessions:      opts.Sessions,
		identity:      opts.Identity,
		processor:     opts.Processor,
		payouts:       opts.Payouts,
		notifier:      opts.Notifier,
		log:           opts.Log,
		donations:     wrabitDB.NewDonations(opts.DB),
		payoutRecords: wrabitDB.NewPayouts(opts.DB),
		catalog:       wrabitDB.NewCatalog(opts.DB),
		shows:         wrabitDB.NewShows(opts.DB),
		venues:        venue.NewService(wrabitDB.NewVenues(opts.DB), opts.EmbedBaseURL, opts.Log),
		corsOrigins:   opts.CORSOrigins,
		secureCookies: opts.SecureCookies,
		paymentMethod: opts.PaymentMethod,
	}
}

// Routes builds the API router.
func (r *Resolver) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(r.log),
		middleware.Recoverer,
		cors.New(cors.Options{
			AllowedOrigins:   r.corsOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}).Handler,
		session.Middleware(r.sessions, r.identity),
	)

	router.Get("/healthz", r.health)

	router.Route("/session", func(s chi.Router) {
		s.Get("/", r.currentSession)
		s.Post("/login", r.login)
		s.Post("/logout", r.logout)
	})

	router.Route("/donations", func(d chi.Router) {
		d.Post("/", r.createDonation)
		d.Get("/presets", r.donationPresets)
	})

	router.Route("/musicians", func(m chi.Router) {
		m.Get("/", r.listMusicians)
		m.Get("/{id}", r.getMusician)
		m.Get("/{id}/songs", r.musicianSongs)
		m.Get("/{id}/shows", r.musicianShows)
		m.With(requireUser).Get("/{id}/balance", r.musicianBalance)
	})
	router.Get("/songs", r.listSongs)
	router.With(requireMusician).Get("/dashboard", r.dashboard)
	router.With(requireMusician).Post("/shows", r.createShow)

	router.Route("/venues", func(v chi.Router) {
		v.Post("/", r.registerVenue)
		v.Get("/projection", r.showProjection)
		v.Get("/{code}/embed", r.venueEmbed)
		v.Post("/{code}/submissions", r.submitToVenue)
		v.With(requireUser).Get("/{code}/submissions", r.venueSubmissions)
	})
	router.Get("/affiliate/projection", r.affiliateProjection)

	router.Route("/admin", func(a chi.Router) {
		a.Use(requireAdmin)
		a.Get("/stats", r.adminStats)
		a.Get("/donations", r.adminDonations)
		a.Post("/payouts/{musicianID}", r.adminPayout)
	})

	return router
}

func (r *Resolver) health(w http.ResponseWriter, req *http.Request) {
	if err := r.db.PingContext(req.Context()); err != nil {
		zerolog.Ctx(req.Context()).Error().Err(err).Msg("database ping failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps err to a status code. Unexpected errors are logged and
// hidden from the client.
func writeError(w http.ResponseWriter, req *http.Request, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		zerolog.Ctx(req.Context()).Error().Err(err).Msg("request failed")
		msg = http.StatusText(code)
		if errors.Is(err, models.ErrPersistence) {
			msg = models.ErrPersistence.Error()
		}
	}
	writeJSON(w, code, errorBody{Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrUnauthenticated), errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrInvalidAmount), errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrPaymentFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, req *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return invalidInput("malformed request body")
	}
	return nil
}

func invalidInput(msg string) error {
	return &inputError{msg: msg}
}

type inputError struct {
	msg string
}

func (e *inputError) Error() string { return models.ErrInvalidInput.Error() + ": " + e.msg }

func (e *inputError) Unwrap() error { return models.ErrInvalidInput }

// requireUser rejects requests without a signed in session.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if store := session.ForContext(req.Context()); store == nil || !store.IsAuthenticated() {
			writeError(w, req, models.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// requireMusician rejects requests from anyone but a signed in musician.
func requireMusician(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		store := session.ForContext(req.Context())
		if store == nil || !store.IsAuthenticated() {
			writeError(w, req, models.ErrUnauthenticated)
			return
		}
		if !store.IsMusician() {
			writeError(w, req, models.ErrForbidden)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// requireAdmin rejects requests from anyone but a signed in admin.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		store := session.ForContext(req.Context())
		if store == nil || !store.IsAuthenticated() {
			writeError(w, req, models.ErrUnauthenticated)
			return
		}
		if !store.IsAdmin() {
			writeError(w, req, models.ErrForbidden)
			return
		}
		next.ServeHTTP(w, req)
	})
}
