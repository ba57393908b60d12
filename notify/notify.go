// Package notify sends donation confirmations.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/truefans/server/models"
)

// Confirmation is sent to the fan after their donation is recorded.
type Confirmation struct {
	FanEmail     string
	MusicianName string
	SongTitle    string
	Amount       models.Cents
	Message      string
}

// Text is the human readable confirmation line.
func (c Confirmation) Text() string {
	return fmt.Sprintf("Thank you for supporting %s with $%s!", c.MusicianName, c.Amount)
}

type Notifier interface {
	DonationConfirmed(ctx context.Context, c Confirmation) error
}

// Log writes confirmations to the logger instead of delivering them.
type Log struct {
	Logger zerolog.Logger
}

func (l Log) DonationConfirmed(_ context.Context, c Confirmation) error {
	l.Logger.Info().Str("to", c.FanEmail).Str("amount", c.Amount.String()).Msg(c.Text())
	return nil
}
