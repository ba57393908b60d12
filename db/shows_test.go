package db

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truefans/server/models"
)

func TestInsertShow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO shows").
		WithArgs("s-1", "1", "Summer Acoustic Night", "The Blue Note", "Portland, OR", "2023-07-15", "8:00 PM", int64(1500), "", created).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = NewShows(db).InsertShow(context.Background(), &models.Show{
		ID:          "s-1",
		MusicianID:  "1",
		Title:       "Summer Acoustic Night",
		Venue:       "The Blue Note",
		Location:    "Portland, OR",
		Date:        "2023-07-15",
		Time:        "8:00 PM",
		TicketPrice: models.Dollars(15),
		CreatedAt:   created,
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShowsByMusician(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "musician_id", "title", "venue", "location", "show_date", "show_time", "ticket_price", "description", "created_at"}).
		AddRow("s-1", "1", "Summer Acoustic Night", "The Blue Note", "Portland, OR", "2023-07-15", "8:00 PM", 1500, "", created).
		AddRow("s-2", "1", "Coffee House Sessions", "Brew & Bean", "Seattle, WA", "2023-08-20", "7:00 PM", 1000, "", created)
	mock.ExpectQuery("FROM shows WHERE musician_id = \\$1 ORDER BY show_date, show_time").
		WithArgs("1").
		WillReturnRows(rows)

	shows, err := NewShows(db).ShowsByMusician(context.Background(), "1")

	require.NoError(t, err)
	require.Len(t, shows, 2)
	assert.Equal(t, models.Dollars(15), shows[0].TicketPrice)
	assert.Equal(t, "2023-08-20", shows[1].Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}
