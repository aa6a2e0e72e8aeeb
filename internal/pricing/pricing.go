package pricing

import "math"

// Niche classifications carried on the producer profile. Anything else falls
// into the professional/commercial percentage branch.
const (
	NicheUniversity = "university"
	NicheLocal      = "local"
)

const (
	flatCommunityFee = 25
	minimumFee       = 20
	percentageRate   = 0.10
)

// ReservationFee computes the upfront deposit collected for a show with the
// given ticket price and producer niche. The result is authoritative: checkout
// sessions always charge this amount, never a client-supplied one.
//
// Free shows (price <= 0) have no payment flow and return 0. University and
// local/community producers pay a flat fee; everyone else pays 10% of the
// ticket price. The fee is floored at 20 and can never exceed the ticket
// price itself.
func ReservationFee(price int64, niche string) int64 {
	if price <= 0 {
		return 0
	}

	var fee int64
	switch niche {
	case NicheUniversity, NicheLocal:
		fee = flatCommunityFee
	default:
		fee = int64(math.Round(float64(price) * percentageRate))
	}

	if fee < minimumFee {
		fee = minimumFee
	}
	if fee > price {
		fee = price
	}

	return fee
}
