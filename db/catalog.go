package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/truefans/server/models"
)

// Catalog serves musician profiles and songs for the discover pages.
type Catalog struct {
	db Querier
}

func NewCatalog(db Querier) *Catalog {
	return &Catalog{db: db}
}

const musicianColumns = "m.id, m.name, m.photo_url, m.genres, m.location, m.bio, (SELECT COUNT(*) FROM songs s WHERE s.musician_id = m.id)"

// ListMusicians matches Query against name and bio, and Genre against any
// of the musician's genres. Both comparisons ignore case.
func (c *Catalog) ListMusicians(ctx context.Context, f models.CatalogFilter) ([]models.Musician, error) {
	var (
		where []string
		args  []interface{}
	)
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+strings.ToLower(q)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(lower(m.name) LIKE $%d OR lower(m.bio) LIKE $%d)", n, n))
	}
	if g := strings.TrimSpace(f.Genre); g != "" {
		args = append(args, "%,"+strings.ToLower(g)+",%")
		where = append(where, fmt.Sprintf("(',' || lower(m.genres) || ',') LIKE $%d", len(args)))
	}

	query := "SELECT " + musicianColumns + " FROM musicians m"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY m.name"

	rows, err := LogAndQuery(ctx, c.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list musicians: %w", err)
	}
	defer rows.Close()

	var musicians []models.Musician
	for rows.Next() {
		m, err := scanMusician(rows)
		if err != nil {
			return nil, err
		}
		musicians = append(musicians, *m)
	}
	return musicians, rows.Err()
}

func (c *Catalog) GetMusician(ctx context.Context, id string) (*models.Musician, error) {
	res := LogAndQueryRow(ctx, c.db, "SELECT "+musicianColumns+" FROM musicians m WHERE m.id = $1", id)
	m, err := scanMusician(res)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("musician %s: %w", id, models.ErrNotFound)
	}
	return m, err
}

// StripeAccount returns the connected Stripe account of a musician, or ""
// when they have none.
func (c *Catalog) StripeAccount(ctx context.Context, musicianID string) (string, error) {
	var account string
	err := LogAndQueryRow(ctx, c.db, "SELECT stripe_account_id FROM musicians WHERE id = $1", musicianID).Scan(&account)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("musician %s: %w", musicianID, models.ErrNotFound)
	}
	return account, err
}

const songColumns = "s.id, s.musician_id, s.title, s.genre, s.duration_seconds, s.audio_url"

// ListSongs matches Query against song titles and Genre exactly, ignoring
// case.
func (c *Catalog) ListSongs(ctx context.Context, f models.CatalogFilter) ([]models.Song, error) {
	var (
		where []string
		args  []interface{}
	)
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+strings.ToLower(q)+"%")
		where = append(where, fmt.Sprintf("lower(s.title) LIKE $%d", len(args)))
	}
	if g := strings.TrimSpace(f.Genre); g != "" {
		args = append(args, strings.ToLower(g))
		where = append(where, fmt.Sprintf("lower(s.genre) = $%d", len(args)))
	}

	query := "SELECT " + songColumns + " FROM songs s"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY s.title"

	return c.querySongs(ctx, query, args...)
}

func (c *Catalog) SongsByMusician(ctx context.Context, musicianID string) ([]models.Song, error) {
	return c.querySongs(ctx, "SELECT "+songColumns+" FROM songs s WHERE s.musician_id = $1 ORDER BY s.title", musicianID)
}

func (c *Catalog) GetSong(ctx context.Context, id string) (*models.Song, error) {
	var s models.Song
	err := LogAndQueryRow(ctx, c.db, "SELECT "+songColumns+" FROM songs s WHERE s.id = $1", id).
		Scan(&s.ID, &s.MusicianID, &s.Title, &s.Genre, &s.DurationSeconds, &s.AudioURL)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("song %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get song: %w", err)
	}
	return &s, nil
}

func (c *Catalog) UpsertMusician(ctx context.Context, m models.Musician) error {
	_, err := LogAndExec(ctx, c.db,
		"INSERT INTO musicians (id, name, photo_url, genres, location, bio, stripe_account_id) VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (id) DO UPDATE SET name = excluded.name, photo_url = excluded.photo_url, genres = excluded.genres, location = excluded.location, bio = excluded.bio, stripe_account_id = excluded.stripe_account_id",
		m.ID, m.Name, m.PhotoURL, strings.Join(m.Genres, ","), m.Location, m.Bio, m.StripeAccountID,
	)
	if err != nil {
		return fmt.Errorf("upsert musician %s: %w", m.ID, err)
	}
	return nil
}

func (c *Catalog) UpsertSong(ctx context.Context, s models.Song) error {
	_, err := LogAndExec(ctx, c.db,
		"INSERT INTO songs (id, musician_id, title, genre, duration_seconds, audio_url) VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (id) DO UPDATE SET musician_id = excluded.musician_id, title = excluded.title, genre = excluded.genre, duration_seconds = excluded.duration_seconds, audio_url = excluded.audio_url",
		s.ID, s.MusicianID, s.Title, s.Genre, s.DurationSeconds, s.AudioURL,
	)
	if err != nil {
		return fmt.Errorf("upsert song %s: %w", s.ID, err)
	}
	return nil
}

func (c *Catalog) querySongs(ctx context.Context, query string, args ...interface{}) ([]models.Song, error) {
	rows, err := LogAndQuery(ctx, c.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	defer rows.Close()

	var songs []models.Song
	for rows.Next() {
		var s models.Song
		if err := rows.Scan(&s.ID, &s.MusicianID, &s.Title, &s.Genre, &s.DurationSeconds, &s.AudioURL); err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		songs = append(songs, s)
	}
	return songs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMusician(row scanner) (*models.Musician, error) {
	var (
		m      models.Musician
		genres string
	)
	if err := row.Scan(&m.ID, &m.Name, &m.PhotoURL, &genres, &m.Location, &m.Bio, &m.SongCount); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan musician: %w", err)
	}
	m.Genres = splitGenres(genres)
	return &m, nil
}

func splitGenres(s string) []string {
	var genres []string
	for _, g := range strings.Split(s, ",") {
		if g = strings.TrimSpace(g); g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}
