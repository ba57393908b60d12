package db

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truefans/server/models"
)

var musicianRowColumns = []string{"id", "name", "photo_url", "genres", "location", "bio", "song_count"}

func TestListMusiciansWithFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM musicians m WHERE \\(lower\\(m.name\\) LIKE \\$1 OR lower\\(m.bio\\) LIKE \\$1\\) AND \\(',' \\|\\| lower\\(m.genres\\) \\|\\| ','\\) LIKE \\$2 ORDER BY m.name").
		WithArgs("%folk%", "%,folk,%").
		WillReturnRows(sqlmock.NewRows(musicianRowColumns).
			AddRow("1", "Sarah Johnson", "", "Folk,Acoustic", "Portland, OR", "Independent folk artist", 1))

	musicians, err := NewCatalog(db).ListMusicians(context.Background(), models.CatalogFilter{Query: " Folk ", Genre: "FOLK"})

	require.NoError(t, err)
	require.Len(t, musicians, 1)
	assert.Equal(t, []string{"Folk", "Acoustic"}, musicians[0].Genres)
	assert.Equal(t, 1, musicians[0].SongCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMusiciansWithoutFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM musicians m ORDER BY m.name").
		WillReturnRows(sqlmock.NewRows(musicianRowColumns))

	musicians, err := NewCatalog(db).ListMusicians(context.Background(), models.CatalogFilter{})

	require.NoError(t, err)
	assert.Empty(t, musicians)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMusicianNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM musicians m WHERE m.id = \\$1").WithArgs("42").WillReturnRows(sqlmock.NewRows(musicianRowColumns))

	_, err = NewCatalog(db).GetMusician(context.Background(), "42")

	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestListSongsByGenre(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM songs s WHERE lower\\(s.genre\\) = \\$1 ORDER BY s.title").
		WithArgs("jazz").
		WillReturnRows(sqlmock.NewRows([]string{"id", "musician_id", "title", "genre", "duration_seconds", "audio_url"}).
			AddRow("5", "5", "Second Line", "Jazz", 240, "https://example.com/5.mp3"))

	songs, err := NewCatalog(db).ListSongs(context.Background(), models.CatalogFilter{Genre: "Jazz"})

	require.NoError(t, err)
	require.Len(t, songs, 1)
	assert.Equal(t, 240, songs[0].DurationSeconds)
}

func TestStripeAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT stripe_account_id FROM musicians WHERE id = \\$1").
		WithArgs("1").
		WillReturnRows(sqlmock.NewRows([]string{"stripe_account_id"}).AddRow("acct_1"))

	account, err := NewCatalog(db).StripeAccount(context.Background(), "1")

	require.NoError(t, err)
	assert.Equal(t, "acct_1", account)
}

func TestLoadDefaultSeed(t *testing.T) {
	seed, err := LoadSeed(nil)

	require.NoError(t, err)
	assert.Len(t, seed.Musicians, 6)
	assert.Len(t, seed.Songs, 6)
	assert.Equal(t, []string{"Pop", "R&B"}, seed.Musicians[3].Genres)
	require.Len(t, seed.Accounts, 2)
	assert.Equal(t, "fan@example.com", seed.Accounts[0].User().Email)
	assert.Equal(t, "1", seed.Accounts[1].User().Metadata.MusicianID)
}

func TestLoadSeedRejectsUnknownFields(t *testing.T) {
	_, err := LoadSeed(bytes.NewBufferString("bands: []\n"))

	assert.Error(t, err)
}

func TestSeedApply(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	seed := &Seed{
		Musicians: []models.Musician{{ID: "1", Name: "Sarah Johnson", Genres: []string{"Folk", "Acoustic"}}},
		Songs:     []models.Song{{ID: "1", MusicianID: "1", Title: "Autumn Leaves"}},
	}
	mock.ExpectExec("INSERT INTO musicians .* ON CONFLICT \\(id\\) DO UPDATE").
		WithArgs("1", "Sarah Johnson", "", "Folk,Acoustic", "", "", "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO songs .* ON CONFLICT \\(id\\) DO UPDATE").
		WillReturnResult(sqlmock.NewResult(1, 1))

	assert.NoError(t, seed.Apply(context.Background(), NewCatalog(db)))
	assert.NoError(t, mock.ExpectationsWereMet())
}
