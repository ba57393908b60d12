package payment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/truefans/server/models"
)

// PayoutFeePercent is what the mock processor charges for a payout.
const PayoutFeePercent = 5

// Mock approves every donation and payout after Delay. It stands in for the
// Manifest Financial API until a real integration is configured.
type Mock struct {
	Delay time.Duration
	Now   func() time.Time
}

func (m *Mock) ProcessDonation(ctx context.Context, req Request) (*Result, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	fee, net := models.Split(req.Amount)
	return &Result{
		Success:       true,
		TransactionID: "tx_" + randomID(13),
		Amount:        req.Amount,
		Fee:           fee,
		NetAmount:     net,
		Status:        StatusCompleted,
		Timestamp:     m.now(),
	}, nil
}

func (m *Mock) ProcessPayout(ctx context.Context, _ string, amount models.Cents) (*Result, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	fee := (amount*PayoutFeePercent + 50) / 100
	return &Result{
		Success:       true,
		TransactionID: "po_" + randomID(13),
		Amount:        amount,
		Fee:           fee,
		NetAmount:     amount - fee,
		Status:        StatusCompleted,
		Timestamp:     m.now(),
	}, nil
}

func (m *Mock) wait(ctx context.Context) error {
	if m.Delay <= 0 {
		return nil
	}
	t := time.NewTimer(m.Delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Mock) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now().UTC()
}

func randomID(n int) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(id) {
		n = len(id)
	}
	return id[:n]
}
