package notifications

import (
	"context"
	"errors"

	"github.com/9ssi7/exponent"
)

// expoBatchSize is the most messages Expo accepts in one request.
const expoBatchSize = 100

// PushSender delivers Expo push messages.
type PushSender interface {
	Publish(ctx context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error)
}

// ExpoAdapter sends through the Expo push service in batches.
type ExpoAdapter struct {
	client *exponent.Client
}

func NewExpoAdapter(c *exponent.Client) *ExpoAdapter {
	return &ExpoAdapter{client: c}
}

// Publish sends msgs in batches of expoBatchSize. A failed batch does not
// stop the rest; the errors are joined.
func (a *ExpoAdapter) Publish(ctx context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error) {
	var (
		out  []*exponent.MessageResponse
		errs []error
	)
	for _, batch := range batches(msgs, expoBatchSize) {
		res, err := a.client.Publish(ctx, batch)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, res...)
	}
	return out, errors.Join(errs...)
}

func batches[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	var out [][]T
	for len(items) > 0 {
		n := min(size, len(items))
		out = append(out, items[:n])
		items = items[n:]
	}
	return out
}
