package models

import "time"

type Venue struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	FormCode     string    `json:"formCode"`
	LogoURL      string    `json:"logoUrl,omitempty"`
	PrimaryColor string    `json:"primaryColor,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// VenueSubmission is an artist's request to play at a venue, sent through
// the venue's embedded form.
type VenueSubmission struct {
	ID            string    `json:"id"`
	VenueID       string    `json:"venueId"`
	ArtistName    string    `json:"artistName"`
	Email         string    `json:"email"`
	Genre         string    `json:"genre,omitempty"`
	Website       string    `json:"website,omitempty"`
	Instagram     string    `json:"instagram,omitempty"`
	Facebook      string    `json:"facebook,omitempty"`
	AvailableFrom string    `json:"availableFrom,omitempty"`
	AvailableTo   string    `json:"availableTo,omitempty"`
	Message       string    `json:"message,omitempty"`
	AcceptedTerms bool      `json:"acceptedTerms"`
	CreatedAt     time.Time `json:"createdAt"`
}
