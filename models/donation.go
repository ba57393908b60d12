package models

import "time"

type DonationStatus string

const (
	DonationPending  DonationStatus = "pending"
	DonationComplete DonationStatus = "complete"
	DonationFailed   DonationStatus = "failed"
)

// PlatformFeePercent is the share of every donation kept by the platform.
// The musician receives the remainder.
const PlatformFeePercent = 20

// Donation is written once after the payment processor reports success and
// is never updated afterwards.
type Donation struct {
	ID            string         `json:"id"`
	FanID         string         `json:"fanId"`
	MusicianID    string         `json:"musicianId"`
	SongID        *string        `json:"songId"`
	Amount        Cents          `json:"amount"`
	PlatformFee   Cents          `json:"platformFee"`
	ArtistPayout  Cents          `json:"artistPayout"`
	Message       *string        `json:"message"`
	Status        DonationStatus `json:"status"`
	TransactionID string         `json:"transactionId"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// Split divides amount into the platform fee and the artist payout. The fee
// is rounded half up to the cent and the payout takes the remainder, so the
// two always add back up to amount.
func Split(amount Cents) (platformFee, artistPayout Cents) {
	// Whole units and the cent remainder are scaled apart so large amounts
	// cannot overflow.
	units, rest := amount/100, amount%100
	platformFee = units*PlatformFeePercent + (rest*PlatformFeePercent+50)/100
	return platformFee, amount - platformFee
}
