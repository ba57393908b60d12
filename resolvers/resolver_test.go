package resolvers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truefans/server/auth"
	"github.com/truefans/server/models"
	"github.com/truefans/server/notify"
	"github.com/truefans/server/payment"
	"github.com/truefans/server/session"
)

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type testServer struct {
	handler  http.Handler
	mock     sqlmock.Sqlmock
	dir      *auth.Directory
	sessions *session.Manager
}

func newTestServer(t *testing.T) *testServer {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })

	dir := auth.NewDirectory(4)
	require.NoError(t, dir.Add(models.User{ID: "fan-1", Email: "fan@example.com", Metadata: models.UserMetadata{Name: "Fan"}}, "hunter22"))
	require.NoError(t, dir.Add(models.User{ID: "musician-1", Email: "luna@example.com", Metadata: models.UserMetadata{Name: "Luna Waves", IsMusician: true, MusicianID: "m1"}}, "riverside"))

	sessions := session.NewManager(session.Config{
		DemoAdminEmail:     "admin@example.com",
		DemoAdminPassword:  "pass123",
		LegacyAdminSignals: true,
	}, zerolog.Nop())
	t.Cleanup(sessions.Shutdown)

	mockPayments := &payment.Mock{}
	r := New(Options{
		DB:           db,
		Sessions:     sessions,
		Identity:     dir,
		Processor:    mockPayments,
		Payouts:      mockPayments,
		Notifier:     notify.Log{Logger: zerolog.Nop()},
		Log:          zerolog.Nop(),
		CORSOrigins:  []string{"http://localhost:5173"},
		EmbedBaseURL: "https://truefans.example",
	})

	return &testServer{handler: r.Routes(), mock: mock, dir: dir, sessions: sessions}
}

func (s *testServer) do(method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// login signs in and returns the session cookie.
func (s *testServer) login(t *testing.T, email, password string) *http.Cookie {
	rec := s.do("POST", "/session/login", fmt.Sprintf(`{"email":%q,"password":%q}`, email, password), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	rec := s.do("GET", "/healthz", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCurrentSessionWithoutCookie(t *testing.T) {
	s := newTestServer(t)

	rec := s.do("GET", "/session", "", nil)

	var snap session.Snapshot
	decodeBody(t, rec, &snap)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, snap.IsAuthenticated)
	assert.Nil(t, snap.User)
}

func TestLoginDemoAdmin(t *testing.T) {
	s := newTestServer(t)

	cookie := s.login(t, "admin@example.com", "pass123")
	rec := s.do("GET", "/session", "", cookie)

	var snap session.Snapshot
	decodeBody(t, rec, &snap)
	assert.True(t, snap.IsAuthenticated)
	assert.True(t, snap.IsAdmin)
	assert.Equal(t, "admin-123", snap.User.ID)
	assert.Equal(t, 1, s.sessions.Len())
}

func TestLoginWrongPassword(t *testing.T) {
	s := newTestServer(t)

	rec := s.do("POST", "/session/login", `{"email":"fan@example.com","password":"nope"}`, nil)

	var body errorBody
	decodeBody(t, rec, &body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, auth.ErrInvalidCredentials.Error(), body.Error)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, 0, s.sessions.Len())
}

func TestRepeatedFailedLoginsKeepNoSessions(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 5; i++ {
		rec := s.do("POST", "/session/login", `{"email":"ghost@example.com","password":"nope"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	assert.Equal(t, 0, s.sessions.Len())
}

func TestFailedLoginKeepsExistingSession(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t, "fan@example.com", "hunter22")

	rec := s.do("POST", "/session/login", `{"email":"fan@example.com","password":"nope"}`, cookie)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 1, s.sessions.Len())
}

func TestLogoutEndsSession(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t, "fan@example.com", "hunter22")

	rec := s.do("POST", "/session/logout", "", cookie)

	var snap session.Snapshot
	decodeBody(t, rec, &snap)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, snap.IsAuthenticated)
	assert.Equal(t, 0, s.sessions.Len())

	rec = s.do("GET", "/session", "", cookie)
	decodeBody(t, rec, &snap)
	assert.False(t, snap.IsAuthenticated)
}

func TestBearerToken(t *testing.T) {
	s := newTestServer(t)
	client := s.dir.NewClient()
	_, err := client.SignIn(context.Background(), "fan@example.com", "hunter22")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/session", nil)
	req.Header.Set("Authorization", "Bearer "+client.(*auth.DirectoryClient).Token())
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var snap session.Snapshot
	decodeBody(t, rec, &snap)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fan-1", snap.User.ID)

	req = httptest.NewRequest("GET", "/session", nil)
	req.Header.Set("Authorization", "Bearer stale")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Invalid token\n", rec.Body.String())
}

func TestCreateDonationWithoutSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do("POST", "/donations", `{"musicianId":"m1","amount":20}`, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	if err := s.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func expectMusician(mock sqlmock.Sqlmock, id, name string) {
	mock.ExpectQuery("FROM musicians m WHERE m\\.id = \\$1").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "photo_url", "genres", "location", "bio", "songs"}).
			AddRow(id, name, "", "Folk,Indie", "Austin, TX", "Songs about rivers", 2))
}

func TestCreateDonation(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t, "fan@example.com", "hunter22")

	expectMusician(s.mock, "m1", "Luna Waves")
	s.mock.ExpectExec("INSERT INTO donations").
		WithArgs(sqlmock.AnyArg(), "fan-1", "m1", nil, int64(2000), int64(400), int64(1600), "Love it", "complete", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := s.do("POST", "/donations", `{"musicianId":"m1","amount":20,"message":"  Love it "}`, cookie)

	var body struct {
		Donation models.Donation `json:"donation"`
		Message  string          `json:"message"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, models.Dollars(4), body.Donation.PlatformFee)
	assert.Equal(t, models.Dollars(16), body.Donation.ArtistPayout)
	assert.Equal(t, "Thank you for supporting Luna Waves with $20.00!", body.Message)

	if err := s.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestCreateDonationRejectsZeroAmount(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t, "fan@example.com", "hunter22")
	expectMusician(s.mock, "m1", "Luna Waves")

	rec := s.do("POST", "/donations", `{"musicianId":"m1","amount":0}`, cookie)

	var body errorBody
	decodeBody(t, rec, &body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, models.ErrInvalidAmount.Error(), body.Error)
}

func TestCreateDonationPersistenceFailure(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t, "fan@example.com", "hunter22")
	expectMusician(s.mock, "m1", "Luna Waves")
	s.mock.ExpectExec("INSERT INTO donations").WillReturnError(errors.New("disk full"))

	rec := s.do("POST", "/donations", `{"musicianId":"m1","amount":"5.00"}`, cookie)

	var body errorBody
	decodeBody(t, rec, &body)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, models.ErrPersistence.Error(), body.Error)
}

func TestCreateDonationUnknownMusician(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t, "fan@example.com", "hunter22")
	s.mock.ExpectQuery("FROM musicians m WHERE m\\.id = \\$1").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "photo_url", "genres", "location", "bio", "songs"}))

	rec := s.do("POST", "/donations", `{"musicianId":"ghost","amount":10}`, cookie)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDonationPresets(t *testing.T) {
	s := newTestServer(t)

	rec := s.do("GET", "/donations/presets", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"amounts":[5.00,10.00,20.00,50.00],"platformFeePercent":20}`, rec.Body.String())
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)

	rec := s.do("GET", "/admin/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cookie := s.login(t, "fan@example.com", "hunter22")
	rec = s.do("GET", "/admin/stats", "", cookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminStats(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t, "admin@example.com", "pass123")

	s.mock.ExpectQuery("SELECT COUNT\\(\\*\\), COUNT\\(DISTINCT fan_id\\)").
		WithArgs("complete").
		WillReturnRows(sqlmock.NewRows([]string{"count", "supporters", "total", "fees", "payouts"}).AddRow(3, 2, 6000, 1200, 4800))
	s.mock.ExpectQuery("SELECT CASE WHEN amount").
		WithArgs("complete").
		WillReturnRows(sqlmock.NewRows([]string{"tier", "count"}).AddRow("10_to_20", 2).AddRow("20_to_50", 1))

	rec := s.do("GET", "/admin/stats", "", cookie)

	var stats models.Stats
	decodeBody(t, rec, &stats)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, stats.DonationCount)
	assert.Equal(t, models.Dollars(12), stats.PlatformRevenue)
	assert.Equal(t, []models.TierCount{
		{Tier: models.TierUnder10, Count: 0},
		{Tier: models.Tier10To20, Count: 2},
		{Tier: models.Tier20To50, Count: 1},
		{Tier: models.Tier50Plus, Count: 0},
	}, stats.Tiers)
}

func TestAdminDonationsRejectsBadLimit(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t, "admin@example.com", "pass123")

	rec := s.do("GET", "/admin/donations?limit=0", "", cookie)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminPayout(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t, "admin@example.com", "pass123")

	expectMusician(s.mock, "m1", "Luna Waves")
	s.mock.ExpectQuery("SELECT COALESCE\\(SUM\\(artist_payout\\), 0\\) FROM donations").
		WithArgs("m1", "complete").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(10000))
	s.mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM payouts").
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(4000))
	s.mock.ExpectExec("INSERT INTO payouts").
		WithArgs(sqlmock.AnyArg(), "m1", int64(6000), int64(300), int64(5700), sqlmock.AnyArg(), "completed", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := s.do("POST", "/admin/payouts/m1", "", cookie)

	var p models.Payout
	decodeBody(t, rec, &p)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, models.Dollars(60), p.Amount)
	assert.Equal(t, models.Cents(5700), p.NetAmount)

	if err := s.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestAdminPayoutNothingOwed(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t, "admin@example.com", "pass123")

	expectMusician(s.mock, "m1", "Luna Waves")
	s.mock.ExpectQuery("FROM donations").WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(2000))
	s.mock.ExpectQuery("FROM payouts").WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(2000))

	rec := s.do("POST", "/admin/payouts/m1", "", cookie)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAffiliateProjection(t *testing.T) {
	s := newTestServer(t)

	rec := s.do("GET", "/affiliate/projection?referredArtists=2&avgDonations=100", "", nil)

	var body struct {
		Projection struct {
			DirectEarnings models.Cents `json:"directEarnings"`
			TotalMonthly   models.Cents `json:"totalMonthly"`
		} `json:"projection"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.Dollars(5), body.Projection.DirectEarnings)
	assert.Equal(t, models.Cents(3000), body.Projection.TotalMonthly)
}

func TestProjectionRejectsBadQuery(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{
		"/affiliate/projection?referredArtists=lots",
		"/affiliate/projection?referredArtists=-1",
		"/venues/projection?avgDonation=abc",
	} {
		rec := s.do("GET", path, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestVenueEmbedMalformedCode(t *testing.T) {
	s := newTestServer(t)

	rec := s.do("GET", "/venues/not-a-code/embed", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	if err := s.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestVenueSubmissionsRequireVenueOwner(t *testing.T) {
	s := newTestServer(t)

	rec := s.do("GET", "/venues/venue-a1b2c3d4/submissions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cookie := s.login(t, "fan@example.com", "hunter22")
	s.mock.ExpectQuery("FROM venues WHERE form_code = \\$1").
		WithArgs("venue-a1b2c3d4").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "form_code", "logo_url", "primary_color", "created_at"}).
			AddRow("v1", "The Blue Room", "booking@blueroom.example", "venue-a1b2c3d4", "", "#0ea5e9", fixedTime))

	rec = s.do("GET", "/venues/venue-a1b2c3d4/submissions", "", cookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{models.ErrUnauthenticated, http.StatusUnauthorized},
		{fmt.Errorf("sign in: %w", auth.ErrInvalidCredentials), http.StatusUnauthorized},
		{models.ErrForbidden, http.StatusForbidden},
		{models.ErrInvalidAmount, http.StatusBadRequest},
		{invalidInput("bad"), http.StatusBadRequest},
		{fmt.Errorf("%w: card declined", models.ErrPaymentFailed), http.StatusPaymentRequired},
		{fmt.Errorf("musician x: %w", models.ErrNotFound), http.StatusNotFound},
		{models.ErrPersistence, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.code, statusFor(c.err), c.err.Error())
	}
}
