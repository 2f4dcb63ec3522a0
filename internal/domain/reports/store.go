package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/Gwonyeong/doll-backend/internal/db"
)

type Repository struct {
	db db.Querier
}

func NewRepository(q db.Querier) Store {
	return &Repository{db: q}
}

func (r *Repository) Summarize(ctx context.Context, from, to time.Time) (*Summary, error) {
	s := Summary{From: from, To: to}

	err := r.db.QueryRow(ctx, `
SELECT
  (SELECT COUNT(*) FROM users          WHERE created_at >= $1 AND created_at < $2),
  (SELECT COUNT(*) FROM stores         WHERE created_at >= $1 AND created_at < $2),
  (SELECT COUNT(*) FROM reviews        WHERE created_at >= $1 AND created_at < $2),
  (SELECT COUNT(*) FROM review_unlocks WHERE unlocked_at >= $1 AND unlocked_at < $2),
  (SELECT COUNT(*) FROM payments
     WHERE status = 'paid' AND updated_at >= $1 AND updated_at < $2),
  (SELECT COALESCE(SUM(amount), 0) FROM payments
     WHERE status = 'paid' AND updated_at >= $1 AND updated_at < $2),
  (SELECT COUNT(*) FROM stores),
  (SELECT COUNT(*) FROM reviews),
  (SELECT COALESCE(AVG(rating), 0) FROM reviews)
`, from, to).Scan(
		&s.NewUsers,
		&s.NewStores,
		&s.NewReviews,
		&s.NewUnlocks,
		&s.PaidPayments,
		&s.Revenue,
		&s.TotalStores,
		&s.TotalReviews,
		&s.AverageRating,
	)
	if err != nil {
		return nil, fmt.Errorf("daily summary: %w", err)
	}

	return &s, nil
}
