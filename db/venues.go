package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/truefans/server/models"
)

type Venues struct {
	db Querier
}

func NewVenues(db Querier) *Venues {
	return &Venues{db: db}
}

func (r *Venues) InsertVenue(ctx context.Context, v *models.Venue) error {
	_, err := LogAndExec(ctx, r.db,
		"INSERT INTO venues (id, name, email, form_code, logo_url, primary_color, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		v.ID, v.Name, v.Email, v.FormCode, v.LogoURL, v.PrimaryColor, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert venue: %w", err)
	}
	return nil
}

func (r *Venues) VenueByCode(ctx context.Context, code string) (*models.Venue, error) {
	var v models.Venue
	err := LogAndQueryRow(ctx, r.db,
		"SELECT id, name, email, form_code, logo_url, primary_color, created_at FROM venues WHERE form_code = $1",
		code,
	).Scan(&v.ID, &v.Name, &v.Email, &v.FormCode, &v.LogoURL, &v.PrimaryColor, &v.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("venue %s: %w", code, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get venue: %w", err)
	}
	return &v, nil
}

func (r *Venues) InsertSubmission(ctx context.Context, s *models.VenueSubmission) error {
	_, err := LogAndExec(ctx, r.db,
		"INSERT INTO venue_submissions (id, venue_id, artist_name, email, genre, website, instagram, facebook, available_from, available_to, message, accepted_terms, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)",
		s.ID, s.VenueID, s.ArtistName, s.Email, s.Genre, s.Website, s.Instagram, s.Facebook, s.AvailableFrom, s.AvailableTo, s.Message, s.AcceptedTerms, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert venue submission: %w", err)
	}
	return nil
}

func (r *Venues) SubmissionsByVenue(ctx context.Context, venueID string) ([]models.VenueSubmission, error) {
	rows, err := LogAndQuery(ctx, r.db,
		"SELECT id, venue_id, artist_name, email, genre, website, instagram, facebook, available_from, available_to, message, accepted_terms, created_at FROM venue_submissions WHERE venue_id = $1 ORDER BY created_at DESC",
		venueID,
	)
	if err != nil {
		return nil, fmt.Errorf("list venue submissions: %w", err)
	}
	defer rows.Close()

	var submissions []models.VenueSubmission
	for rows.Next() {
		var s models.VenueSubmission
		if err := rows.Scan(&s.ID, &s.VenueID, &s.ArtistName, &s.Email, &s.Genre, &s.Website, &s.Instagram, &s.Facebook, &s.AvailableFrom, &s.AvailableTo, &s.Message, &s.AcceptedTerms, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan venue submission: %w", err)
		}
		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}
