package db

import (
	"context"
	"fmt"

	"github.com/truefans/server/models"
)

type Shows struct {
	db Querier
}

func NewShows(db Querier) *Shows {
	return &Shows{db: db}
}

func (r *Shows) InsertShow(ctx context.Context, s *models.Show) error {
	_, err := LogAndExec(ctx, r.db,
		"INSERT INTO shows (id, musician_id, title, venue, location, show_date, show_time, ticket_price, description, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)",
		s.ID, s.MusicianID, s.Title, s.Venue, s.Location, s.Date, s.Time, int64(s.TicketPrice), s.Description, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert show: %w", err)
	}
	return nil
}

// ShowsByMusician lists a musician's shows, soonest first.
func (r *Shows) ShowsByMusician(ctx context.Context, musicianID string) ([]models.Show, error) {
	rows, err := LogAndQuery(ctx, r.db,
		"SELECT id, musician_id, title, venue, location, show_date, show_time, ticket_price, description, created_at FROM shows WHERE musician_id = $1 ORDER BY show_date, show_time",
		musicianID,
	)
	if err != nil {
		return nil, fmt.Errorf("list shows: %w", err)
	}
	defer rows.Close()

	var shows []models.Show
	for rows.Next() {
		var (
			s     models.Show
			price int64
		)
		if err := rows.Scan(&s.ID, &s.MusicianID, &s.Title, &s.Venue, &s.Location, &s.Date, &s.Time, &price, &s.Description, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan show: %w", err)
		}
		s.TicketPrice = models.Cents(price)
		shows = append(shows, s)
	}
	return shows, rows.Err()
}
