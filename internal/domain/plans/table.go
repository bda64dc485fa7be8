package plans

import (
	"strings"

	"movie-app/internal/domain/users"
)

// Table is the single price id to plan mapping used by both the checkout
// confirmation and the webhook paths.
type Table struct {
	premiumPriceID string
	proPriceID     string
}

func NewTable(premiumPriceID, proPriceID string) Table {
	return Table{
		premiumPriceID: strings.TrimSpace(premiumPriceID),
		proPriceID:     strings.TrimSpace(proPriceID),
	}
}

// PlanFor maps a billing price id to a plan. Unknown or empty ids fall back to
// premium: a paid subscription always grants at least the premium tier.
func (t Table) PlanFor(priceID string) users.Plan {
	if id := strings.TrimSpace(priceID); id != "" && id == t.proPriceID {
		return users.PlanPro
	}
	return users.PlanPremium
}

// Allowed reports whether a client supplied price id may be used for checkout.
func (t Table) Allowed(priceID string) bool {
	id := strings.TrimSpace(priceID)
	if id == "" {
		return false
	}
	return id == t.premiumPriceID || id == t.proPriceID
}
