package paymentsrepo

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/speps/go-hashids/v2"
)

// OrderNumberGenerator builds provider order ids such as DOLL-k3J9xQ2mLp-1a2b3c4d.
// Toss accepts 6-64 characters from [A-Za-z0-9_-].
type OrderNumberGenerator struct {
	hd  *hashids.HashID
	now func() time.Time
}

func NewOrderNumberGenerator(secret string) (*OrderNumberGenerator, error) {
	data := hashids.NewData()
	data.Salt = secret
	data.MinLength = 10

	hd, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("order number generator: %w", err)
	}
	return &OrderNumberGenerator{hd: hd, now: time.Now}, nil
}

func (g *OrderNumberGenerator) Generate(userID int64) (string, error) {
	tag, err := g.hd.EncodeInt64([]int64{userID, g.now().UnixMilli()})
	if err != nil {
		return "", fmt.Errorf("encode order number: %w", err)
	}
	nonce := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("DOLL-%s-%s", tag, nonce), nil
}
