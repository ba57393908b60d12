package models

type Musician struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	PhotoURL        string   `json:"profilePhoto" yaml:"photo_url"`
	Genres          []string `json:"genre" yaml:"genres"`
	Location        string   `json:"location" yaml:"location"`
	Bio             string   `json:"bio" yaml:"bio"`
	SongCount       int      `json:"songCount" yaml:"-"`
	StripeAccountID string   `json:"-" yaml:"stripe_account_id"`
}

type Song struct {
	ID              string `json:"id" yaml:"id"`
	MusicianID      string `json:"musicianId" yaml:"musician_id"`
	Title           string `json:"title" yaml:"title"`
	Genre           string `json:"genre" yaml:"genre"`
	DurationSeconds int    `json:"duration" yaml:"duration_seconds"`
	AudioURL        string `json:"audioUrl" yaml:"audio_url"`
}

// CatalogFilter narrows musician and song listings. Empty fields match
// everything.
type CatalogFilter struct {
	Query string
	Genre string
}
