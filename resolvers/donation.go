package resolvers

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/truefans/server/donation"
	"github.com/truefans/server/models"
	"github.com/truefans/server/session"
)

type donationInput struct {
	MusicianID    string       `json:"musicianId"`
	SongID        *string      `json:"songId"`
	Amount        models.Cents `json:"amount"`
	Message       string       `json:"message"`
	PaymentMethod string       `json:"paymentMethod"`
}

type donationPayload struct {
	Donation *models.Donation `json:"donation"`
	Message  string           `json:"message"`
}

func (r *Resolver) createDonation(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	store := session.ForContext(ctx)
	if store == nil || !store.IsAuthenticated() {
		writeError(w, req, models.ErrUnauthenticated)
		return
	}

	var input donationInput
	if err := decode(w, req, &input); err != nil {
		writeError(w, req, err)
		return
	}
	if input.MusicianID == "" {
		writeError(w, req, invalidInput("musicianId is required"))
		return
	}

	musician, err := r.catalog.GetMusician(ctx, input.MusicianID)
	if err != nil {
		writeError(w, req, err)
		return
	}
	target := donation.Target{MusicianID: musician.ID, MusicianName: musician.Name}
	if input.SongID != nil && *input.SongID != "" {
		song, err := r.catalog.GetSong(ctx, *input.SongID)
		if err != nil {
			writeError(w, req, err)
			return
		}
		if song.MusicianID != musician.ID {
			writeError(w, req, invalidInput(fmt.Sprintf("song %s is not by musician %s", song.ID, musician.ID)))
			return
		}
		target.SongID = &song.ID
		target.SongTitle = song.Title
	}

	flow := donation.New(target, store, donation.Deps{
		Processor: r.processor,
		Recorder:  r.donations,
		Notifier:  r.notifier,
		Log:       *zerolog.Ctx(ctx),
	})
	flow.PaymentMethod = input.PaymentMethod
	if flow.PaymentMethod == "" {
		flow.PaymentMethod = r.paymentMethod
	}

	d, err := flow.Submit(ctx, input.Amount, input.Message)
	if err != nil {
		writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, donationPayload{Donation: d, Message: flow.ConfirmationMessage()})
}

func (r *Resolver) donationPresets(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"amounts":            donation.PresetAmounts,
		"platformFeePercent": models.PlatformFeePercent,
	})
}
