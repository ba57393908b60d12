// Package commission projects what affiliates and venues earn from the
// donations received by the artists they refer.
package commission

import (
	"fmt"

	"github.com/truefans/server/models"
)

// RateBasisPoints is the commission on each referral tier: 2.5%.
const RateBasisPoints = 250

// ShowsPerMonth is how often a referred artist is assumed to perform.
const ShowsPerMonth = 4

// Of returns bp basis points of c, rounded half up to the cent.
func Of(c models.Cents, bp int64) models.Cents {
	return (c*models.Cents(bp) + 5000) / 10000
}

// AffiliateInput describes an affiliate's referral network.
type AffiliateInput struct {
	ReferredArtists   int          `json:"referredArtists"`
	SecondTierArtists int          `json:"secondTierArtists"`
	AvgDonations      models.Cents `json:"avgDonations"` // monthly donations per artist
}

// DefaultAffiliateInput matches the calculator's starting values.
var DefaultAffiliateInput = AffiliateInput{
	ReferredArtists:   5,
	SecondTierArtists: 10,
	AvgDonations:      models.Dollars(500),
}

type AffiliateProjection struct {
	DirectEarnings     models.Cents `json:"directEarnings"`
	SecondTierEarnings models.Cents `json:"secondTierEarnings"`
	TotalMonthly       models.Cents `json:"totalMonthly"`
	TotalAnnual        models.Cents `json:"totalAnnual"`
}

func (in AffiliateInput) Validate() error {
	if in.ReferredArtists < 0 || in.SecondTierArtists < 0 || in.AvgDonations < 0 {
		return fmt.Errorf("%w: projection inputs must not be negative", models.ErrInvalidInput)
	}
	return nil
}

// Affiliate projects monthly and annual affiliate commissions.
func Affiliate(in AffiliateInput) (AffiliateProjection, error) {
	if err := in.Validate(); err != nil {
		return AffiliateProjection{}, err
	}
	direct := Of(models.Cents(in.ReferredArtists)*in.AvgDonations, RateBasisPoints)
	second := Of(models.Cents(in.SecondTierArtists)*in.AvgDonations, RateBasisPoints)
	total := direct + second
	return AffiliateProjection{
		DirectEarnings:     direct,
		SecondTierEarnings: second,
		TotalMonthly:       total,
		TotalAnnual:        total * 12,
	}, nil
}

// ShowInput describes a venue's typical show and referral network.
type ShowInput struct {
	Attendees         int          `json:"attendees"`
	DonationRate      int          `json:"donationRate"` // percent of attendees who donate
	AvgDonation       models.Cents `json:"avgDonation"`
	ReferredArtists   int          `json:"referredArtists"`
	SecondTierArtists int          `json:"secondTierArtists"`
}

var DefaultShowInput = ShowInput{
	Attendees:         100,
	DonationRate:      50,
	AvgDonation:       models.Dollars(20),
	ReferredArtists:   5,
	SecondTierArtists: 10,
}

type ShowProjection struct {
	DonationsPerShow        models.Cents `json:"donationsPerShow"`
	DirectEarningsPerShow   models.Cents `json:"directEarningsPerShow"`
	ReferredArtistsEarnings models.Cents `json:"referredArtistsEarnings"`
	SecondTierEarnings      models.Cents `json:"secondTierEarnings"`
	TotalMonthly            models.Cents `json:"totalMonthly"`
}

func (in ShowInput) Validate() error {
	if in.Attendees < 0 || in.AvgDonation < 0 || in.ReferredArtists < 0 || in.SecondTierArtists < 0 {
		return fmt.Errorf("%w: projection inputs must not be negative", models.ErrInvalidInput)
	}
	if in.DonationRate < 0 || in.DonationRate > 100 {
		return fmt.Errorf("%w: donation rate must be between 0 and 100", models.ErrInvalidInput)
	}
	return nil
}

// Show projects a venue's earnings from the artists it refers. The monthly
// total counts referral tiers only; per-show direct earnings are reported
// separately.
func Show(in ShowInput) (ShowProjection, error) {
	if err := in.Validate(); err != nil {
		return ShowProjection{}, err
	}
	perShow := (models.Cents(in.Attendees)*models.Cents(in.DonationRate)*in.AvgDonation + 50) / 100
	referred := Of(models.Cents(in.ReferredArtists*ShowsPerMonth)*perShow, RateBasisPoints)
	second := Of(models.Cents(in.SecondTierArtists*ShowsPerMonth)*perShow, RateBasisPoints)
	return ShowProjection{
		DonationsPerShow:        perShow,
		DirectEarningsPerShow:   Of(perShow, RateBasisPoints),
		ReferredArtistsEarnings: referred,
		SecondTierEarnings:      second,
		TotalMonthly:            referred + second,
	}, nil
}
