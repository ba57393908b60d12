package models

import "time"

// Show is a performance a musician has scheduled.
type Show struct {
	ID          string    `json:"id"`
	MusicianID  string    `json:"musicianId"`
	Title       string    `json:"title"`
	Venue       string    `json:"venue"`
	Location    string    `json:"location"`
	Date        string    `json:"date"` // YYYY-MM-DD
	Time        string    `json:"time"`
	TicketPrice Cents     `json:"ticketPrice"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
