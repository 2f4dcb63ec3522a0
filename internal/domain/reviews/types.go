package reviews

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("review not found")
	ErrNotOwner = errors.New("review is not owned by this user")
)

// Sort orders accepted by ListByStore.
const (
	SortLatest = "latest"
	SortRating = "rating"
)

type Review struct {
	ID      int64  `json:"id"`
	StoreID int64  `json:"store_id"`
	UserID  *int64 `json:"user_id,omitempty"` // nil for anonymous reviews
	Rating  int    `json:"rating"`            // 1-5
	Content string `json:"content"`

	ImageURLs      []string `json:"images"`
	Tags           []string `json:"tags"`
	PrizeImageURLs []string `json:"prize_images"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Display name: the joined user name, or the name typed by an anonymous author.
	UserName  string  `json:"user_name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// IsAuthoredBy reports whether userID wrote the review.
func (r Review) IsAuthoredBy(userID int64) bool {
	return r.UserID != nil && *r.UserID == userID
}

type Stats struct {
	Total   int     `json:"total_reviews"`
	Average float64 `json:"average_rating"`
}

type ListQuery struct {
	StoreID int64
	Sort    string
	Limit   int
	Offset  int
}

type UpdateInput struct {
	Rating    *int
	Content   *string
	Tags      []string
	ImageURLs []string
}

type Store interface {
	Create(ctx context.Context, review *Review) error
	GetByID(ctx context.Context, reviewID int64) (*Review, error)
	ListByStore(ctx context.Context, q ListQuery) ([]Review, int, error)
	Update(ctx context.Context, reviewID, userID int64, in UpdateInput) (*Review, error)
	Delete(ctx context.Context, reviewID, userID int64) error
	AdminDelete(ctx context.Context, reviewID int64) error
	GetStats(ctx context.Context, storeID int64) (Stats, error)
}
