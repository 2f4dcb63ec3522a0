package notifications

import (
	"context"
	"fmt"
	"strconv"

	"github.com/9ssi7/exponent"
)

// FavoriterSource lists users who favorited a store.
type FavoriterSource interface {
	GetFavoriterIDs(ctx context.Context, storeID int64) ([]int64, error)
}

// TokenSource resolves Expo push tokens per user.
type TokenSource interface {
	GetTokensByUserIDs(ctx context.Context, userIDs []int64) (map[int64][]string, error)
}

// SendNewReviewToFavoriters notifies everyone who favorited storeID that a
// new review was posted. The author is skipped. Returns the number of
// messages sent.
func SendNewReviewToFavoriters(ctx context.Context, push PushSender, favs FavoriterSource, tokens TokenSource, storeID int64, storeName string, authorID *int64) (int, error) {
	userIDs, err := favs.GetFavoriterIDs(ctx, storeID)
	if err != nil {
		return 0, err
	}

	recipients := make([]int64, 0, len(userIDs))
	for _, id := range userIDs {
		if authorID != nil && *authorID == id {
			continue
		}
		recipients = append(recipients, id)
	}
	if len(recipients) == 0 {
		return 0, nil
	}

	tokensMap, err := tokens.GetTokensByUserIDs(ctx, recipients)
	if err != nil {
		return 0, err
	}

	var all []string
	for _, id := range recipients {
		all = append(all, tokensMap[id]...)
	}
	all = dedupe(all)
	if len(all) == 0 {
		return 0, nil
	}

	sid := strconv.FormatInt(storeID, 10)
	msgs := make([]*exponent.Message, 0, len(all))
	for _, t := range all {
		token := exponent.Token(t)
		msgs = append(msgs, &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: "New review",
			Body:  fmt.Sprintf("Someone just reviewed %s", storeName),
			Data: map[string]string{
				"type":     "store_new_review",
				"store_id": sid,
				"screen":   "stores/" + sid,
			},
		})
	}

	if _, err := push.Publish(ctx, msgs); err != nil {
		return 0, err
	}
	return len(msgs), nil
}

func dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
