package reports

import (
	"context"
	"time"
)

// Summary counts what happened in [From, To).
type Summary struct {
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	NewUsers      int       `json:"new_users"`
	NewStores     int       `json:"new_stores"`
	NewReviews    int       `json:"new_reviews"`
	NewUnlocks    int       `json:"new_unlocks"`
	PaidPayments  int       `json:"paid_payments"`
	Revenue       int64     `json:"revenue"`
	TotalStores   int       `json:"total_stores"`
	TotalReviews  int       `json:"total_reviews"`
	AverageRating float64   `json:"average_rating"`
}

type Store interface {
	Summarize(ctx context.Context, from, to time.Time) (*Summary, error)
}
