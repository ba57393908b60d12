// Package donation charges a fan and records the donation with its fixed
// platform fee split.
package donation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/truefans/server/models"
	"github.com/truefans/server/notify"
	"github.com/truefans/server/payment"
)

// State is where a Flow is in its Idle, Submitting, Complete or Failed cycle.
type State int

const (
	Idle State = iota
	Submitting
	Complete
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// PresetAmounts are the quick-pick donation amounts offered to fans.
var PresetAmounts = []models.Cents{
	models.Dollars(5),
	models.Dollars(10),
	models.Dollars(20),
	models.Dollars(50),
}

// Target is who a donation goes to.
type Target struct {
	MusicianID   string
	MusicianName string
	SongID       *string
	SongTitle    string
}

// Session reports the signed in fan. *session.Store satisfies it.
type Session interface {
	User() *models.User
}

// Recorder persists donations.
type Recorder interface {
	InsertDonation(ctx context.Context, d *models.Donation) error
}

type Deps struct {
	Processor payment.Processor
	Recorder  Recorder

	// Notifier is optional.
	Notifier notify.Notifier
	Log      zerolog.Logger

	Now   func() time.Time
	NewID func() string
}

// Flow is one donation form for a Target. Every Submit charges the fan and
// writes a new record; nothing is deduplicated or retried.
type Flow struct {
	target  Target
	session Session
	deps    Deps

	// PaymentMethod is passed to the processor with every charge.
	PaymentMethod string

	mu    sync.Mutex
	state State
	last  *models.Donation
}

// New returns an Idle Flow. Deps.Now and Deps.NewID default to time.Now and
// uuid.NewString.
func New(target Target, session Session, deps Deps) *Flow {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	return &Flow{target: target, session: session, deps: deps}
}

// State reports the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Reset returns a finished flow to Idle.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Submitting {
		f.state = Idle
	}
}

func (f *Flow) setState(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

// Submit charges amount to the signed in fan and records the donation.
//
// It fails with models.ErrUnauthenticated before touching any collaborator
// when nobody is signed in, models.ErrInvalidAmount for amounts that are not
// positive, models.ErrPaymentFailed when the processor errors or declines,
// and models.ErrPersistence when the charge went through but the record
// could not be written.
func (f *Flow) Submit(ctx context.Context, amount models.Cents, message string) (*models.Donation, error) {
	var user *models.User
	if f.session != nil {
		user = f.session.User()
	}
	if user == nil {
		return nil, models.ErrUnauthenticated
	}
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	f.setState(Submitting)
	log := f.deps.Log.With().
		Str("fan", user.ID).
		Str("musician", f.target.MusicianID).
		Str("amount", amount.String()).
		Logger()

	res, err := f.deps.Processor.ProcessDonation(ctx, payment.Request{
		Amount:        amount,
		FanID:         user.ID,
		MusicianID:    f.target.MusicianID,
		SongID:        f.target.SongID,
		PaymentMethod: f.PaymentMethod,
	})
	if err != nil {
		f.setState(Failed)
		log.Warn().Err(err).Msg("payment error")
		return nil, fmt.Errorf("%w: %v", models.ErrPaymentFailed, err)
	}
	if res == nil || !res.Success {
		f.setState(Failed)
		reason := "declined"
		if res != nil && res.Error != "" {
			reason = res.Error
		}
		log.Warn().Str("reason", reason).Msg("payment declined")
		return nil, fmt.Errorf("%w: %s", models.ErrPaymentFailed, reason)
	}

	fee, payout := models.Split(amount)
	d := &models.Donation{
		ID:            f.deps.NewID(),
		FanID:         user.ID,
		MusicianID:    f.target.MusicianID,
		SongID:        f.target.SongID,
		Amount:        amount,
		PlatformFee:   fee,
		ArtistPayout:  payout,
		Status:        models.DonationComplete,
		TransactionID: res.TransactionID,
		CreatedAt:     f.deps.Now().UTC(),
	}
	if m := strings.TrimSpace(message); m != "" {
		d.Message = &m
	}

	if err := f.deps.Recorder.InsertDonation(ctx, d); err != nil {
		f.setState(Failed)
		// The charge is not rolled back.
		log.Error().Err(err).Str("transaction", res.TransactionID).Msg("payment captured but donation not saved")
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	f.mu.Lock()
	f.state = Complete
	f.last = d
	f.mu.Unlock()
	log.Info().Str("donation", d.ID).Str("transaction", d.TransactionID).Msg("donation recorded")

	if f.deps.Notifier != nil {
		err := f.deps.Notifier.DonationConfirmed(ctx, notify.Confirmation{
			FanEmail:     user.Email,
			MusicianName: f.target.MusicianName,
			SongTitle:    f.target.SongTitle,
			Amount:       amount,
			Message:      strings.TrimSpace(message),
		})
		if err != nil {
			log.Warn().Err(err).Msg("donation confirmation not sent")
		}
	}

	c := *d
	return &c, nil
}

// ConfirmationMessage thanks the fan for the last completed donation, or is
// empty when there is none.
func (f *Flow) ConfirmationMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.last == nil || f.state != Complete {
		return ""
	}
	return Confirmation(f.target.MusicianName, f.last.Amount)
}

// Confirmation is the thank-you line shown after a donation.
func Confirmation(musicianName string, amount models.Cents) string {
	return notify.Confirmation{MusicianName: musicianName, Amount: amount}.Text()
}
