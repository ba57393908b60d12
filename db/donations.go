package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/truefans/server/models"
)

// Donations stores donation records and the aggregates built from them.
type Donations struct {
	db Querier
}

func NewDonations(db Querier) *Donations {
	return &Donations{db: db}
}

// InsertDonation writes d as given; the caller assigns the id and split.
func (r *Donations) InsertDonation(ctx context.Context, d *models.Donation) error {
	_, err := LogAndExec(ctx, r.db,
		"INSERT INTO donations (id, fan_id, musician_id, song_id, amount, platform_fee, artist_payout, personal_message, payment_status, transaction_id, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)",
		d.ID, d.FanID, d.MusicianID, nullable(d.SongID), int64(d.Amount), int64(d.PlatformFee), int64(d.ArtistPayout), nullable(d.Message), string(d.Status), d.TransactionID, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}
	return nil
}

const donationColumns = "id, fan_id, musician_id, song_id, amount, platform_fee, artist_payout, personal_message, payment_status, transaction_id, created_at"

// ListRecent returns the newest donations first.
func (r *Donations) ListRecent(ctx context.Context, limit int) ([]models.Donation, error) {
	return r.queryDonations(ctx,
		"SELECT "+donationColumns+" FROM donations ORDER BY created_at DESC LIMIT $1",
		limit,
	)
}

// RecentForMusician returns a musician's newest donations first.
func (r *Donations) RecentForMusician(ctx context.Context, musicianID string, limit int) ([]models.Donation, error) {
	return r.queryDonations(ctx,
		"SELECT "+donationColumns+" FROM donations WHERE musician_id = $1 ORDER BY created_at DESC LIMIT $2",
		musicianID, limit,
	)
}

func (r *Donations) queryDonations(ctx context.Context, query string, args ...interface{}) ([]models.Donation, error) {
	rows, err := LogAndQuery(ctx, r.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	defer rows.Close()

	var donations []models.Donation
	for rows.Next() {
		var (
			d                   models.Donation
			songID, message     sql.NullString
			amount, fee, payout int64
			status              string
		)
		if err := rows.Scan(&d.ID, &d.FanID, &d.MusicianID, &songID, &amount, &fee, &payout, &message, &status, &d.TransactionID, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		d.SongID = fromNullable(songID)
		d.Message = fromNullable(message)
		d.Amount, d.PlatformFee, d.ArtistPayout = models.Cents(amount), models.Cents(fee), models.Cents(payout)
		d.Status = models.DonationStatus(status)
		donations = append(donations, d)
	}
	return donations, rows.Err()
}

// Stats aggregates completed donations for the admin dashboard.
func (r *Donations) Stats(ctx context.Context) (*models.Stats, error) {
	return r.stats(ctx, "")
}

// MusicianStats aggregates the completed donations to one musician.
func (r *Donations) MusicianStats(ctx context.Context, musicianID string) (*models.Stats, error) {
	return r.stats(ctx, musicianID)
}

func (r *Donations) stats(ctx context.Context, musicianID string) (*models.Stats, error) {
	where := "payment_status = $1"
	args := []interface{}{string(models.DonationComplete)}
	if musicianID != "" {
		where += " AND musician_id = $2"
		args = append(args, musicianID)
	}

	var (
		stats                models.Stats
		total, fees, payouts int64
	)
	res := LogAndQueryRow(ctx, r.db,
		"SELECT COUNT(*), COUNT(DISTINCT fan_id), COALESCE(SUM(amount), 0), COALESCE(SUM(platform_fee), 0), COALESCE(SUM(artist_payout), 0) FROM donations WHERE "+where,
		args...,
	)
	if err := res.Scan(&stats.DonationCount, &stats.Supporters, &total, &fees, &payouts); err != nil {
		return nil, fmt.Errorf("donation totals: %w", err)
	}
	stats.TotalAmount, stats.PlatformRevenue, stats.ArtistPayouts = models.Cents(total), models.Cents(fees), models.Cents(payouts)

	rows, err := LogAndQuery(ctx, r.db,
		"SELECT CASE WHEN amount < 1000 THEN 'under_10' WHEN amount < 2000 THEN '10_to_20' WHEN amount < 5000 THEN '20_to_50' ELSE '50_plus' END AS tier, COUNT(*) FROM donations WHERE "+where+" GROUP BY 1",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("donation tiers: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int, len(models.Tiers))
	for rows.Next() {
		var (
			tier  string
			count int
		)
		if err := rows.Scan(&tier, &count); err != nil {
			return nil, fmt.Errorf("scan tier: %w", err)
		}
		counts[tier] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, tier := range models.Tiers {
		stats.Tiers = append(stats.Tiers, models.TierCount{Tier: tier, Count: counts[tier]})
	}
	return &stats, nil
}

// Earned is the artist share of all completed donations to a musician.
func (r *Donations) Earned(ctx context.Context, musicianID string) (models.Cents, error) {
	var earned int64
	res := LogAndQueryRow(ctx, r.db,
		"SELECT COALESCE(SUM(artist_payout), 0) FROM donations WHERE musician_id = $1 AND payment_status = $2",
		musicianID, string(models.DonationComplete),
	)
	if err := res.Scan(&earned); err != nil {
		return 0, fmt.Errorf("musician earnings: %w", err)
	}
	return models.Cents(earned), nil
}

func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func fromNullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
