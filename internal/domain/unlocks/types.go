package unlocks

import (
	"context"
	"time"
)

// Record says the user has unlocked every review of the store. Records are
// never updated or removed.
type Record struct {
	UserID     int64     `json:"user_id"`
	StoreID    int64     `json:"store_id"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

type Store interface {
	IsUnlocked(ctx context.Context, userID, storeID int64) (bool, error)
	// Unlock records the unlock. created is false when the record already
	// existed; that is not an error.
	Unlock(ctx context.Context, userID, storeID int64) (rec Record, created bool, err error)
	ListByUser(ctx context.Context, userID int64) ([]Record, error)
}
