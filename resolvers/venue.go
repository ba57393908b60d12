package resolvers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi"

	"github.com/truefans/server/models"
	"github.com/truefans/server/session"
	"github.com/truefans/server/venue"
)

type venuePayload struct {
	Venue     *models.Venue `json:"venue"`
	EmbedCode string        `json:"embedCode"`
}

func (r *Resolver) registerVenue(w http.ResponseWriter, req *http.Request) {
	var input venue.Registration
	if err := decode(w, req, &input); err != nil {
		writeError(w, req, err)
		return
	}

	ctx := req.Context()
	v, err := r.venues.Register(ctx, input)
	if err != nil {
		writeError(w, req, err)
		return
	}
	embed, err := r.venues.Embed(ctx, v.FormCode)
	if err != nil {
		writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, venuePayload{Venue: v, EmbedCode: embed})
}

// formCode reads the {code} parameter. Malformed codes are reported as not
// found without a database lookup.
func formCode(req *http.Request) (string, error) {
	code := chi.URLParam(req, "code")
	if !venue.ValidFormCode(code) {
		return "", fmt.Errorf("venue %s: %w", code, models.ErrNotFound)
	}
	return code, nil
}

func (r *Resolver) venueEmbed(w http.ResponseWriter, req *http.Request) {
	code, err := formCode(req)
	if err != nil {
		writeError(w, req, err)
		return
	}
	embed, err := r.venues.Embed(req.Context(), code)
	if err != nil {
		writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"embedCode": embed})
}

func (r *Resolver) submitToVenue(w http.ResponseWriter, req *http.Request) {
	code, err := formCode(req)
	if err != nil {
		writeError(w, req, err)
		return
	}
	var input models.VenueSubmission
	if err := decode(w, req, &input); err != nil {
		writeError(w, req, err)
		return
	}

	sub, err := r.venues.Submit(req.Context(), code, input)
	if err != nil {
		writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// venueSubmissions is open to the venue's own account and to admins.
func (r *Resolver) venueSubmissions(w http.ResponseWriter, req *http.Request) {
	code, err := formCode(req)
	if err != nil {
		writeError(w, req, err)
		return
	}

	ctx := req.Context()
	v, err := r.venues.Venue(ctx, code)
	if err != nil {
		writeError(w, req, err)
		return
	}
	store := session.ForContext(ctx)
	if !store.IsAdmin() && !strings.EqualFold(store.User().Email, v.Email) {
		writeError(w, req, models.ErrForbidden)
		return
	}

	subs, err := r.venues.Submissions(ctx, code)
	if err != nil {
		writeError(w, req, err)
		return
	}
	if subs == nil {
		subs = []models.VenueSubmission{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": subs})
}
