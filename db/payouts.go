package db

import (
	"context"
	"fmt"

	"github.com/truefans/server/models"
)

type Payouts struct {
	db Querier
}

func NewPayouts(db Querier) *Payouts {
	return &Payouts{db: db}
}

func (r *Payouts) InsertPayout(ctx context.Context, p *models.Payout) error {
	_, err := LogAndExec(ctx, r.db,
		"INSERT INTO payouts (id, musician_id, amount, fee, net_amount, transaction_id, status, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		p.ID, p.MusicianID, int64(p.Amount), int64(p.Fee), int64(p.NetAmount), p.TransactionID, p.Status, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payout: %w", err)
	}
	return nil
}

// PaidOut sums every payout to a musician that has not failed.
func (r *Payouts) PaidOut(ctx context.Context, musicianID string) (models.Cents, error) {
	var paid int64
	res := LogAndQueryRow(ctx, r.db,
		"SELECT COALESCE(SUM(amount), 0) FROM payouts WHERE musician_id = $1 AND status <> 'failed'",
		musicianID,
	)
	if err := res.Scan(&paid); err != nil {
		return 0, fmt.Errorf("paid out: %w", err)
	}
	return models.Cents(paid), nil
}

// MusicianBalance is the musician's earned artist share minus every payout
// that has not failed.
func MusicianBalance(ctx context.Context, db Querier, musicianID string) (*models.Balance, error) {
	earned, err := NewDonations(db).Earned(ctx, musicianID)
	if err != nil {
		return nil, err
	}
	paid, err := NewPayouts(db).PaidOut(ctx, musicianID)
	if err != nil {
		return nil, err
	}
	return &models.Balance{
		MusicianID: musicianID,
		Earned:     earned,
		PaidOut:    paid,
		Available:  earned - paid,
	}, nil
}
