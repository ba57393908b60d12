// Package venue registers venues and collects artist submissions through
// the form venues embed on their own sites.
package venue

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/truefans/server/models"
)

// DefaultColor is the form accent used when a venue picks none.
const DefaultColor = "#0ea5e9"

const (
	codePrefix   = "venue-"
	codeLength   = 8
	codeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Store persists venues and their submissions. *db.Venues satisfies it.
type Store interface {
	InsertVenue(ctx context.Context, v *models.Venue) error
	VenueByCode(ctx context.Context, code string) (*models.Venue, error)
	InsertSubmission(ctx context.Context, s *models.VenueSubmission) error
	SubmissionsByVenue(ctx context.Context, venueID string) ([]models.VenueSubmission, error)
}

type Service struct {
	store   Store
	baseURL string
	log     zerolog.Logger

	now   func() time.Time
	newID func() string
}

func NewService(store Store, baseURL string, log zerolog.Logger) *Service {
	return &Service{
		store:   store,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Registration is what a venue fills in to get a submission form.
type Registration struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	LogoURL      string `json:"logoUrl"`
	PrimaryColor string `json:"primaryColor"`
}

// Register creates a venue with a fresh form code.
func (s *Service) Register(ctx context.Context, reg Registration) (*models.Venue, error) {
	name := strings.TrimSpace(reg.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: venue name is required", models.ErrInvalidInput)
	}
	email, err := parseEmail(reg.Email)
	if err != nil {
		return nil, err
	}
	code, err := NewFormCode()
	if err != nil {
		return nil, err
	}
	color := strings.TrimSpace(reg.PrimaryColor)
	if color == "" {
		color = DefaultColor
	}

	v := &models.Venue{
		ID:           s.newID(),
		Name:         name,
		Email:        email,
		FormCode:     code,
		LogoURL:      strings.TrimSpace(reg.LogoURL),
		PrimaryColor: color,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.InsertVenue(ctx, v); err != nil {
		return nil, err
	}
	s.log.Info().Str("venue", v.ID).Str("form", v.FormCode).Msg("venue registered")
	return v, nil
}

// Venue returns the venue owning code.
func (s *Service) Venue(ctx context.Context, code string) (*models.Venue, error) {
	return s.store.VenueByCode(ctx, code)
}

// Embed renders the iframe snippet for the venue owning code.
func (s *Service) Embed(ctx context.Context, code string) (string, error) {
	v, err := s.store.VenueByCode(ctx, code)
	if err != nil {
		return "", err
	}
	return EmbedCode(s.baseURL, v.FormCode, v.LogoURL, v.PrimaryColor), nil
}

// EmbedCode is the iframe a venue pastes into its site to show the
// submission form.
func EmbedCode(baseURL, formCode, logoURL, color string) string {
	params := url.Values{}
	if logoURL != "" {
		params.Set("logo", logoURL)
	}
	params.Set("color", strings.TrimPrefix(color, "#"))

	src := fmt.Sprintf("%s/embed/submission-form/%s?%s", strings.TrimRight(baseURL, "/"), url.PathEscape(formCode), params.Encode())
	return fmt.Sprintf(`<iframe src="%s" width="100%%" height="600" frameborder="0"></iframe>`, src)
}

// Submit validates an artist's submission and files it with the venue
// owning code.
func (s *Service) Submit(ctx context.Context, code string, sub models.VenueSubmission) (*models.VenueSubmission, error) {
	sub.ArtistName = strings.TrimSpace(sub.ArtistName)
	if sub.ArtistName == "" {
		return nil, fmt.Errorf("%w: artist name is required", models.ErrInvalidInput)
	}
	email, err := parseEmail(sub.Email)
	if err != nil {
		return nil, err
	}
	if !sub.AcceptedTerms {
		return nil, fmt.Errorf("%w: terms must be accepted", models.ErrInvalidInput)
	}

	v, err := s.store.VenueByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	sub.ID = s.newID()
	sub.VenueID = v.ID
	sub.Email = email
	sub.CreatedAt = s.now().UTC()
	if err := s.store.InsertSubmission(ctx, &sub); err != nil {
		return nil, err
	}
	s.log.Info().Str("venue", v.ID).Str("submission", sub.ID).Msg("artist submission received")
	return &sub, nil
}

// Submissions lists what artists sent to the venue owning code, newest
// first.
func (s *Service) Submissions(ctx context.Context, code string) ([]models.VenueSubmission, error) {
	v, err := s.store.VenueByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.store.SubmissionsByVenue(ctx, v.ID)
}

// NewFormCode returns "venue-" followed by eight random lowercase
// alphanumerics.
func NewFormCode() (string, error) {
	var b strings.Builder
	b.WriteString(codePrefix)
	base := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", fmt.Errorf("form code: %w", err)
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// ValidFormCode reports whether code has the shape NewFormCode produces.
func ValidFormCode(code string) bool {
	if !strings.HasPrefix(code, codePrefix) || len(code) != len(codePrefix)+codeLength {
		return false
	}
	for _, c := range code[len(codePrefix):] {
		if !strings.ContainsRune(codeAlphabet, c) {
			return false
		}
	}
	return true
}

func parseEmail(s string) (string, error) {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", fmt.Errorf("%w: invalid email %q", models.ErrInvalidInput, s)
	}
	return addr.Address, nil
}
