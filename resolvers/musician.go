package resolvers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/google/uuid"

	wrabitDB "github.com/truefans/server/db"
	"github.com/truefans/server/models"
	"github.com/truefans/server/session"
)

const dashboardRecent = 10

// managedMusician returns the catalog id linked to the signed in musician
// account.
func managedMusician(req *http.Request) (string, error) {
	id := session.ForContext(req.Context()).User().Metadata.MusicianID
	if id == "" {
		return "", invalidInput("account is not linked to a musician profile")
	}
	return id, nil
}

// musicianBalance is open to the musician it belongs to and to admins.
func (r *Resolver) musicianBalance(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	musician, err := r.catalog.GetMusician(ctx, chi.URLParam(req, "id"))
	if err != nil {
		writeError(w, req, err)
		return
	}
	store := session.ForContext(ctx)
	if !store.IsAdmin() && !(store.IsMusician() && store.User().Metadata.MusicianID == musician.ID) {
		writeError(w, req, models.ErrForbidden)
		return
	}

	balance, err := wrabitDB.MusicianBalance(ctx, r.db, musician.ID)
	if err != nil {
		writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

type dashboardPayload struct {
	Musician *models.Musician  `json:"musician"`
	Stats    *models.Stats     `json:"stats"`
	Balance  *models.Balance   `json:"balance"`
	Recent   []models.Donation `json:"recent"`
}

func (r *Resolver) dashboard(w http.ResponseWriter, req *http.Request) {
	id, err := managedMusician(req)
	if err != nil {
		writeError(w, req, err)
		return
	}

	ctx := req.Context()
	musician, err := r.catalog.GetMusician(ctx, id)
	if err != nil {
		writeError(w, req, err)
		return
	}
	stats, err := r.donations.MusicianStats(ctx, musician.ID)
	if err != nil {
		writeError(w, req, err)
		return
	}
	balance, err := wrabitDB.MusicianBalance(ctx, r.db, musician.ID)
	if err != nil {
		writeError(w, req, err)
		return
	}
	recent, err := r.donations.RecentForMusician(ctx, musician.ID, dashboardRecent)
	if err != nil {
		writeError(w, req, err)
		return
	}
	if recent == nil {
		recent = []models.Donation{}
	}
	writeJSON(w, http.StatusOK, dashboardPayload{Musician: musician, Stats: stats, Balance: balance, Recent: recent})
}

func (r *Resolver) musicianShows(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	musician, err := r.catalog.GetMusician(ctx, chi.URLParam(req, "id"))
	if err != nil {
		writeError(w, req, err)
		return
	}
	shows, err := r.shows.ShowsByMusician(ctx, musician.ID)
	if err != nil {
		writeError(w, req, err)
		return
	}
	if shows == nil {
		shows = []models.Show{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": shows})
}

type showInput struct {
	Title       string       `json:"title"`
	Venue       string       `json:"venue"`
	Location    string       `json:"location"`
	Date        string       `json:"date"`
	Time        string       `json:"time"`
	TicketPrice models.Cents `json:"ticketPrice"`
	Description string       `json:"description"`
}

func (in showInput) validate() error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return invalidInput("title is required")
	case strings.TrimSpace(in.Venue) == "":
		return invalidInput("venue is required")
	case in.TicketPrice < 0:
		return invalidInput("ticket price cannot be negative")
	}
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return invalidInput("date must be YYYY-MM-DD")
	}
	return nil
}

// createShow schedules a show for the signed in musician's own profile.
func (r *Resolver) createShow(w http.ResponseWriter, req *http.Request) {
	musicianID, err := managedMusician(req)
	if err != nil {
		writeError(w, req, err)
		return
	}
	var in showInput
	if err := decode(w, req, &in); err != nil {
		writeError(w, req, err)
		return
	}
	if err := in.validate(); err != nil {
		writeError(w, req, err)
		return
	}

	ctx := req.Context()
	if _, err := r.catalog.GetMusician(ctx, musicianID); err != nil {
		writeError(w, req, err)
		return
	}
	show := &models.Show{
		ID:          uuid.NewString(),
		MusicianID:  musicianID,
		Title:       strings.TrimSpace(in.Title),
		Venue:       strings.TrimSpace(in.Venue),
		Location:    strings.TrimSpace(in.Location),
		Date:        in.Date,
		Time:        in.Time,
		TicketPrice: in.TicketPrice,
		Description: in.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.shows.InsertShow(ctx, show); err != nil {
		writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, show)
}
