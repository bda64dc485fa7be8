package stripe

import (
	"strings"

	stripego "github.com/stripe/stripe-go/v75"
)

// subscriptionStatus passes the provider status through unchanged apart from
// whitespace and case. Unknown values are rejected later by users.ParseStatus.
func subscriptionStatus(s stripego.SubscriptionStatus) string {
	return strings.ToLower(strings.TrimSpace(string(s)))
}

// firstPriceID returns the price of the first subscription item, which is the
// only item the app ever sells.
func firstPriceID(sub *stripego.Subscription) string {
	if sub == nil || sub.Items == nil {
		return ""
	}
	for _, item := range sub.Items.Data {
		if item != nil && item.Price != nil && item.Price.ID != "" {
			return item.Price.ID
		}
	}
	return ""
}

func customerID(c *stripego.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}
