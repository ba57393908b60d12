package resolvers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/truefans/server/commission"
	"github.com/truefans/server/models"
)

// queryInt overwrites *dst with the named query parameter when present.
func queryInt(q url.Values, name string, dst *int) error {
	v := q.Get(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return invalidInput(name + " must be a whole number")
	}
	*dst = n
	return nil
}

func queryCents(q url.Values, name string, dst *models.Cents) error {
	v := q.Get(name)
	if v == "" {
		return nil
	}
	c, err := models.ParseCents(v)
	if err != nil {
		return invalidInput(name + " must be an amount")
	}
	*dst = c
	return nil
}

func (r *Resolver) affiliateProjection(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	in := commission.DefaultAffiliateInput
	for _, err := range []error{
		queryInt(q, "referredArtists", &in.ReferredArtists),
		queryInt(q, "secondTierArtists", &in.SecondTierArtists),
		queryCents(q, "avgDonations", &in.AvgDonations),
	} {
		if err != nil {
			writeError(w, req, err)
			return
		}
	}

	p, err := commission.Affiliate(in)
	if err != nil {
		writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"input": in, "projection": p})
}

func (r *Resolver) showProjection(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	in := commission.DefaultShowInput
	for _, err := range []error{
		queryInt(q, "attendees", &in.Attendees),
		queryInt(q, "donationRate", &in.DonationRate),
		queryCents(q, "avgDonation", &in.AvgDonation),
		queryInt(q, "referredArtists", &in.ReferredArtists),
		queryInt(q, "secondTierArtists", &in.SecondTierArtists),
	} {
		if err != nil {
			writeError(w, req, err)
			return
		}
	}

	p, err := commission.Show(in)
	if err != nil {
		writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"input": in, "projection": p})
}
