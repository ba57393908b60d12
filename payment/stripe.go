package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	stripe "github.com/stripe/stripe-go"
	"github.com/stripe/stripe-go/paymentintent"
	"github.com/stripe/stripe-go/transfer"

	"github.com/truefans/server/models"
)

type intentCreator interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type transferCreator interface {
	New(params *stripe.TransferParams) (*stripe.Transfer, error)
}

// Stripe charges donations with confirmed PaymentIntents. When the musician
// has a connected account the artist share is transferred to it and the
// platform fee is kept as the application fee.
type Stripe struct {
	intents       intentCreator
	transfers     transferCreator
	accounts      AccountLookup
	currency      string
	defaultMethod string
	log           zerolog.Logger
}

// NewStripe builds a Stripe processor for the given secret key. defaultMethod
// is used when a request carries no payment method, which only makes sense
// with test keys.
func NewStripe(key, currency, defaultMethod string, accounts AccountLookup, log zerolog.Logger) *Stripe {
	backend := stripe.GetBackend(stripe.APIBackend)
	return &Stripe{
		intents:       &paymentintent.Client{B: backend, Key: key},
		transfers:     &transfer.Client{B: backend, Key: key},
		accounts:      accounts,
		currency:      currency,
		defaultMethod: defaultMethod,
		log:           log,
	}
}

func (s *Stripe) ProcessDonation(ctx context.Context, req Request) (*Result, error) {
	method := req.PaymentMethod
	if method == "" {
		method = s.defaultMethod
	}
	if method == "" {
		return nil, fmt.Errorf("%w: payment method is required", models.ErrInvalidInput)
	}

	fee, net := models.Split(req.Amount)
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(int64(req.Amount)),
		Currency:      stripe.String(s.currency),
		PaymentMethod: stripe.String(method),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String("Donation to musician " + req.MusicianID),
	}
	params.Context = ctx
	params.AddMetadata("fan_id", req.FanID)
	params.AddMetadata("musician_id", req.MusicianID)
	if req.SongID != nil {
		params.AddMetadata("song_id", *req.SongID)
	}

	if s.accounts != nil {
		account, err := s.accounts.StripeAccount(ctx, req.MusicianID)
		if err != nil {
			return nil, fmt.Errorf("lookup stripe account: %w", err)
		}
		if account != "" {
			params.ApplicationFeeAmount = stripe.Int64(int64(fee))
			params.TransferData = &stripe.PaymentIntentTransferDataParams{
				Destination: stripe.String(account),
			}
		}
	}

	intent, err := s.intents.New(params)
	if err != nil {
		return nil, err
	}

	status := intentStatus(intent.Status)
	s.log.Info().
		Str("payment_intent", intent.ID).
		Str("status", string(intent.Status)).
		Str("musician_id", req.MusicianID).
		Msg("stripe payment intent created")

	return &Result{
		Success:       status == StatusCompleted,
		TransactionID: intent.ID,
		Amount:        models.Cents(intent.Amount),
		Fee:           fee,
		NetAmount:     net,
		Status:        status,
		Timestamp:     time.Unix(intent.Created, 0).UTC(),
	}, nil
}

func (s *Stripe) ProcessPayout(ctx context.Context, musicianID string, amount models.Cents) (*Result, error) {
	if s.accounts == nil {
		return nil, fmt.Errorf("no stripe account lookup configured")
	}
	account, err := s.accounts.StripeAccount(ctx, musicianID)
	if err != nil {
		return nil, fmt.Errorf("lookup stripe account: %w", err)
	}
	if account == "" {
		return nil, fmt.Errorf("%w: musician %s has no stripe account", models.ErrInvalidInput, musicianID)
	}

	params := &stripe.TransferParams{
		Amount:      stripe.Int64(int64(amount)),
		Currency:    stripe.String(s.currency),
		Destination: stripe.String(account),
	}
	params.Context = ctx
	params.AddMetadata("musician_id", musicianID)

	tr, err := s.transfers.New(params)
	if err != nil {
		return nil, err
	}

	return &Result{
		Success:       true,
		TransactionID: tr.ID,
		Amount:        amount,
		NetAmount:     amount,
		Status:        StatusCompleted,
		Timestamp:     time.Unix(tr.Created, 0).UTC(),
	}, nil
}

func intentStatus(s stripe.PaymentIntentStatus) Status {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return StatusCompleted
	case stripe.PaymentIntentStatusCanceled:
		return StatusFailed
	default:
		return StatusPending
	}
}
