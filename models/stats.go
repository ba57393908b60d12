package models

import "time"

type Payout struct {
	ID            string    `json:"id"`
	MusicianID    string    `json:"musicianId"`
	Amount        Cents     `json:"amount"`
	Fee           Cents     `json:"fee"`
	NetAmount     Cents     `json:"netAmount"`
	TransactionID string    `json:"transactionId"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Donation tiers used by the admin dashboard.
const (
	TierUnder10 = "under_10"
	Tier10To20  = "10_to_20"
	Tier20To50  = "20_to_50"
	Tier50Plus  = "50_plus"
)

// Tiers lists the donation tiers in display order.
var Tiers = []string{TierUnder10, Tier10To20, Tier20To50, Tier50Plus}

type TierCount struct {
	Tier  string `json:"tier"`
	Count int    `json:"count"`
}

type Stats struct {
	DonationCount   int         `json:"donationCount"`
	Supporters      int         `json:"supporters"`
	TotalAmount     Cents       `json:"totalAmount"`
	PlatformRevenue Cents       `json:"platformRevenue"`
	ArtistPayouts   Cents       `json:"artistPayouts"`
	Tiers           []TierCount `json:"tiers"`
}

// Balance is a musician's artist share of completed donations against what
// has already been paid out.
type Balance struct {
	MusicianID string `json:"musicianId"`
	Earned     Cents  `json:"earned"`
	PaidOut    Cents  `json:"paidOut"`
	Available  Cents  `json:"available"`
}
