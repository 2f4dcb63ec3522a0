package unlocks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gwonyeong/doll-backend/internal/db"
	"github.com/jackc/pgx/v5"
)

const queryTimeout = 5 * time.Second

type Repository struct {
	db db.Querier
}

func NewRepository(q db.Querier) Store {
	return &Repository{db: q}
}

func (r *Repository) IsUnlocked(ctx context.Context, userID, storeID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var exists bool
	query := `
        SELECT EXISTS (
          SELECT 1 FROM review_unlocks
          WHERE user_id = $1 AND store_id = $2
        )
    `
	if err := r.db.QueryRow(ctx, query, userID, storeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check unlock: %w", err)
	}
	return exists, nil
}

// Unlock relies on UNIQUE (user_id, store_id): concurrent duplicate requests
// insert at most one row and every caller gets the stored record back.
func (r *Repository) Unlock(ctx context.Context, userID, storeID int64) (Record, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
        WITH ins AS (
          INSERT INTO review_unlocks (user_id, store_id)
          VALUES ($1, $2)
          ON CONFLICT (user_id, store_id) DO NOTHING
          RETURNING unlocked_at
        )
        SELECT unlocked_at, TRUE FROM ins
        UNION ALL
        SELECT unlocked_at, FALSE FROM review_unlocks
        WHERE user_id = $1 AND store_id = $2 AND NOT EXISTS (SELECT 1 FROM ins)
    `
	rec := Record{UserID: userID, StoreID: storeID}
	var created bool
	err := r.db.QueryRow(ctx, query, userID, storeID).Scan(&rec.UnlockedAt, &created)
	if errors.Is(err, pgx.ErrNoRows) {
		// A concurrent insert committed after this statement's snapshot was
		// taken; the row is visible to a fresh statement.
		err = r.db.QueryRow(ctx,
			`SELECT unlocked_at FROM review_unlocks WHERE user_id = $1 AND store_id = $2`,
			userID, storeID,
		).Scan(&rec.UnlockedAt)
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("unlock reviews: %w", err)
	}
	return rec, created, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `
        SELECT user_id, store_id, unlocked_at
        FROM review_unlocks
        WHERE user_id = $1
        ORDER BY unlocked_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("list unlocks: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.UserID, &rec.StoreID, &rec.UnlockedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
