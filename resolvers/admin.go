package resolvers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	wrabitDB "github.com/truefans/server/db"
	"github.com/truefans/server/models"
)

const (
	defaultDonationLimit = 50
	maxDonationLimit     = 500
)

func (r *Resolver) adminStats(w http.ResponseWriter, req *http.Request) {
	stats, err := r.donations.Stats(req.Context())
	if err != nil {
		writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (r *Resolver) adminDonations(w http.ResponseWriter, req *http.Request) {
	limit := defaultDonationLimit
	if v := req.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxDonationLimit {
			writeError(w, req, invalidInput(fmt.Sprintf("limit must be between 1 and %d", maxDonationLimit)))
			return
		}
		limit = n
	}

	donations, err := r.donations.ListRecent(req.Context(), limit)
	if err != nil {
		writeError(w, req, err)
		return
	}
	if donations == nil {
		donations = []models.Donation{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": donations})
}

// adminPayout pays a musician everything earned and not yet paid out.
func (r *Resolver) adminPayout(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	musician, err := r.catalog.GetMusician(ctx, chi.URLParam(req, "musicianID"))
	if err != nil {
		writeError(w, req, err)
		return
	}

	balance, err := wrabitDB.MusicianBalance(ctx, r.db, musician.ID)
	if err != nil {
		writeError(w, req, err)
		return
	}
	if balance.Available <= 0 {
		writeError(w, req, invalidInput("nothing to pay out"))
		return
	}

	res, err := r.payouts.ProcessPayout(ctx, musician.ID, balance.Available)
	if err != nil {
		writeError(w, req, fmt.Errorf("%w: %v", models.ErrPaymentFailed, err))
		return
	}
	if !res.Success {
		writeError(w, req, fmt.Errorf("%w: %s", models.ErrPaymentFailed, res.Error))
		return
	}

	p := &models.Payout{
		ID:            uuid.NewString(),
		MusicianID:    musician.ID,
		Amount:        res.Amount,
		Fee:           res.Fee,
		NetAmount:     res.NetAmount,
		TransactionID: res.TransactionID,
		Status:        string(res.Status),
		CreatedAt:     time.Now().UTC(),
	}
	if err := r.payoutRecords.InsertPayout(ctx, p); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("transaction", res.TransactionID).Msg("payout sent but not saved")
		writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}
