package ads

import (
	"context"
	"errors"
	"time"
)

var ErrAdNotFound = errors.New("ad not found")

// Ad is a promoted store shown in the app carousel.
type Ad struct {
	ID           int64      `json:"id"`
	StoreID      int64      `json:"store_id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description"`
	ImageURL     string     `json:"image_url"`
	Link         *string    `json:"link"`
	Active       bool       `json:"active"`
	DisplayOrder int        `json:"display_order"`
	StartsAt     *time.Time `json:"starts_at"`
	EndsAt       *time.Time `json:"ends_at"`
	Impressions  int        `json:"impressions"`
	Clicks       int        `json:"clicks"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ActiveAd is an ad joined with the raw coordinate of its store.
type ActiveAd struct {
	Ad
	StoreName    string
	StoreAddress string
	CoordX       string
	CoordY       string
}

type CreateAdRequest struct {
	StoreID      int64
	Title        string
	Description  *string
	ImageURL     string
	Link         *string
	DisplayOrder int
	Active       bool
	StartsAt     *time.Time
	EndsAt       *time.Time
}

type UpdateAdRequest struct {
	Title        *string
	Description  *string
	ImageURL     *string
	Link         *string
	Active       *bool
	DisplayOrder *int
	EndsAt       *time.Time
}

type Store interface {
	GetActiveAds(ctx context.Context, now time.Time) ([]ActiveAd, error)
	GetAllAds(ctx context.Context, limit, offset int) ([]Ad, int, error)
	GetAdByID(ctx context.Context, id int64) (*Ad, error)
	CreateAd(ctx context.Context, req CreateAdRequest) (*Ad, error)
	UpdateAd(ctx context.Context, id int64, req UpdateAdRequest) (*Ad, error)
	DeleteAd(ctx context.Context, id int64) error
	ToggleAdStatus(ctx context.Context, id int64) (*Ad, error)
	Activate(ctx context.Context, id int64, startsAt, endsAt time.Time) error
	IncrementImpressions(ctx context.Context, ids []int64) error
	IncrementClicks(ctx context.Context, id int64) error
}
