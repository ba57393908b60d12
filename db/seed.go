package db

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/truefans/server/models"
)

//go:embed seed/catalog.yaml
var defaultSeed []byte

// SeedAccount is a login for the in-memory identity provider.
type SeedAccount struct {
	ID         string `yaml:"id"`
	Email      string `yaml:"email"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
	Role       string `yaml:"role"`
	IsMusician bool   `yaml:"is_musician"`
	IsAdmin    bool   `yaml:"is_admin"`
	MusicianID string `yaml:"musician_id"`
}

// User converts the account to the identity the provider hands out.
func (a SeedAccount) User() models.User {
	return models.User{
		ID:    a.ID,
		Email: a.Email,
		Role:  models.Role(a.Role),
		Metadata: models.UserMetadata{
			Name:       a.Name,
			IsMusician: a.IsMusician,
			IsAdmin:    a.IsAdmin,
			MusicianID: a.MusicianID,
		},
	}
}

type Seed struct {
	Musicians []models.Musician `yaml:"musicians"`
	Songs     []models.Song     `yaml:"songs"`
	Accounts  []SeedAccount     `yaml:"accounts"`
}

// LoadSeed decodes a YAML seed file. A nil reader loads the built-in sample
// catalog.
func LoadSeed(r io.Reader) (*Seed, error) {
	if r == nil {
		r = bytes.NewReader(defaultSeed)
	}
	var seed Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &seed, nil
}

// Apply upserts the seed's musicians and songs.
func (s *Seed) Apply(ctx context.Context, catalog *Catalog) error {
	for _, m := range s.Musicians {
		if err := catalog.UpsertMusician(ctx, m); err != nil {
			return err
		}
	}
	for _, song := range s.Songs {
		if err := catalog.UpsertSong(ctx, song); err != nil {
			return err
		}
	}
	return nil
}
