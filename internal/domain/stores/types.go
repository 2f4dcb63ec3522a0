package stores

import (
	"context"
	"errors"
	"time"

	"github.com/Gwonyeong/doll-backend/internal/geo"
)

var ErrStoreNotFound = errors.New("store not found")

// Shop is a crane-machine arcade. CoordX/CoordY are kept exactly as the
// registry delivered them (EPSG:5174 meters, occasionally degrees).
type Shop struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	Phone        *string   `json:"phone,omitempty"`
	CoordX       string    `json:"-"`
	CoordY       string    `json:"-"`
	OpeningHours *string   `json:"opening_hours,omitempty"`
	MachineCount int       `json:"machine_count"`
	ImageURLs    []string  `json:"image_urls"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Position converts the stored registry coordinate for display.
func (s Shop) Position() geo.Result {
	return geo.ConvertString(s.CoordX, s.CoordY)
}

type ListFilter struct {
	Query  string
	Limit  int
	Offset int
}

type UpdateInput struct {
	Name         *string
	Address      *string
	Phone        *string
	CoordX       *string
	CoordY       *string
	OpeningHours *string
	MachineCount *int
}

type Store interface {
	Create(ctx context.Context, store *Shop) error
	GetByID(ctx context.Context, storeID int64) (*Shop, error)
	List(ctx context.Context, filter ListFilter) ([]Shop, int, error)
	ListAll(ctx context.Context, query string) ([]Shop, error)
	Update(ctx context.Context, storeID int64, in UpdateInput) (*Shop, error)
	Delete(ctx context.Context, storeID int64) error
	AddPhotoURL(ctx context.Context, storeID int64, photoURL string) error
	RemovePhotoURL(ctx context.Context, storeID int64, photoURL string) error
	Exists(ctx context.Context, name, address string) (bool, error)

	// favourites
	AddFavorite(ctx context.Context, userID, storeID int64) error
	RemoveFavorite(ctx context.Context, userID, storeID int64) error
	GetFavoritesByUser(ctx context.Context, userID int64) ([]Shop, error)
	GetFavoriterIDs(ctx context.Context, storeID int64) ([]int64, error)
}
