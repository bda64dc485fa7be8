package users

// Status mirrors the billing provider's subscription status, plus "free" for
// accounts that never subscribed.
type Status string

const (
	StatusFree              Status = "free"
	StatusActive            Status = "active"
	StatusCanceled          Status = "canceled"
	StatusIncomplete        Status = "incomplete"
	StatusIncompleteExpired Status = "incomplete_expired"
	StatusPastDue           Status = "past_due"
	StatusTrialing          Status = "trialing"
	StatusUnpaid            Status = "unpaid"
)

var knownStatuses = map[Status]struct{}{
	StatusFree:              {},
	StatusActive:            {},
	StatusCanceled:          {},
	StatusIncomplete:        {},
	StatusIncompleteExpired: {},
	StatusPastDue:           {},
	StatusTrialing:          {},
	StatusUnpaid:            {},
}

// ParseStatus accepts only the enumerated values.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	_, ok := knownStatuses[st]
	return st, ok
}

type Plan string

const (
	PlanBasic   Plan = "basic"
	PlanPremium Plan = "premium"
	PlanPro     Plan = "pro"
)
