// Package reviewgate decides how much of a store's reviews a viewer may read.
//
// A viewer who has unlocked the store sees everything. Everyone else sees the
// first review of the list in full and a blinded projection of the rest.
package reviewgate

import (
	"context"

	"github.com/Gwonyeong/doll-backend/internal/domain/reviews"
)

// BlindedContent replaces the text of every blinded review.
const BlindedContent = "Watch an ad to unlock every review for this store."

// Viewer is the person asking for the reviews.
type Viewer struct {
	UserID        int64
	Authenticated bool
}

func Anonymous() Viewer {
	return Viewer{}
}

func Authenticated(userID int64) Viewer {
	return Viewer{UserID: userID, Authenticated: true}
}

// GatedReview is a review as it is shown to one viewer.
type GatedReview struct {
	reviews.Review
	IsBlinded bool `json:"is_blinded"`
	IsOwner   bool `json:"is_owner"`
}

// UnlockLookup answers whether userID holds an unlock record for storeID.
type UnlockLookup interface {
	IsUnlocked(ctx context.Context, userID, storeID int64) (bool, error)
}

// ResolveUnlocked returns false for anonymous viewers without asking lookup.
func ResolveUnlocked(ctx context.Context, lookup UnlockLookup, viewer Viewer, storeID int64) (bool, error) {
	if !viewer.Authenticated {
		return false, nil
	}
	return lookup.IsUnlocked(ctx, viewer.UserID, storeID)
}

// Gate applies the visibility rule to an already ordered list. Whichever
// review sorts first is the free preview.
func Gate(list []reviews.Review, viewer Viewer, unlocked bool) []GatedReview {
	return GateFrom(list, viewer, unlocked, 0)
}

// GateFrom is Gate for a page that starts at offset in the full ordering.
// Only the review at overall position 0 is left readable when locked.
func GateFrom(list []reviews.Review, viewer Viewer, unlocked bool, offset int) []GatedReview {
	offset = max(offset, 0)
	out := make([]GatedReview, 0, len(list))
	for i, r := range list {
		g := GatedReview{
			Review:  r,
			IsOwner: viewer.Authenticated && r.IsAuthoredBy(viewer.UserID),
		}
		if !unlocked && offset+i > 0 {
			g.Review = blind(r)
			g.IsBlinded = true
		}
		out = append(out, g)
	}
	return out
}

// blind keeps identity, rating and author; drops text and media.
func blind(r reviews.Review) reviews.Review {
	r.Content = BlindedContent
	r.ImageURLs = []string{}
	r.Tags = []string{}
	r.PrizeImageURLs = []string{}
	return r
}
