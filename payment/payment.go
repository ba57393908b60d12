// Package payment moves money for donations and musician payouts.
package payment

import (
	"context"
	"time"

	"github.com/truefans/server/models"
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
)

// Request describes one donation charge.
type Request struct {
	Amount     models.Cents
	FanID      string
	MusicianID string
	SongID     *string

	// PaymentMethod is the processor's reference to the fan's card, when
	// the processor needs one.
	PaymentMethod string
}

type Result struct {
	Success       bool         `json:"success"`
	TransactionID string       `json:"transactionId"`
	Amount        models.Cents `json:"amount"`
	Fee           models.Cents `json:"fee"`
	NetAmount     models.Cents `json:"netAmount"`
	Status        Status       `json:"status"`
	Timestamp     time.Time    `json:"timestamp"`
	Error         string       `json:"error,omitempty"`
}

// Processor charges donations.
type Processor interface {
	ProcessDonation(ctx context.Context, req Request) (*Result, error)
}

// Payouts sends a musician's accumulated earnings to them.
type Payouts interface {
	ProcessPayout(ctx context.Context, musicianID string, amount models.Cents) (*Result, error)
}

// AccountLookup resolves the processor account a musician is paid into.
type AccountLookup interface {
	StripeAccount(ctx context.Context, musicianID string) (string, error)
}
