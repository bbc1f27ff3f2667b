package domain

import (
	"context"
)

// Service answers substring queries against the current snapshot.
type Service interface {
	Search(ctx context.Context, req Request) (*Response, error)
}

// Request carries the raw query parameters. Limit handling is forgiving:
// zero, negative, or oversized values clamp to the configured maximum.
type Request struct {
	Query string `form:"q"`
	Limit int    `form:"limit"`
}

type Response struct {
	Query   string   `json:"query"`
	Count   int      `json:"count"`
	Results []Result `json:"results"`
}

// Result is the compact row shape consumed by the search table in the UI.
// Source is "file:row" so a result can be traced back to its export line.
type Result struct {
	ID            string   `json:"id"`
	Name          *string  `json:"name"`
	Email         *string  `json:"email"`
	Phone         *string  `json:"phone"`
	Source        string   `json:"source"`
	EventName     *string  `json:"event_name"`
	ActivityType  *string  `json:"activity_type"`
	PaymentStatus *string  `json:"payment_status"`
	Amount        *float64 `json:"amount"`
}
