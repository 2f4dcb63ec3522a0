package main

import (
	"context"
	"testing"

	"github.com/Gwonyeong/doll-backend/internal/domain/stores"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sample = `
stores:
  - name: " Claw House "
    address: Seoul Jung-gu Sejong-daero 110
    phone: 02-123-4567
    x: 198000
    y: "450000.25"
    machine_count: 24
  - name: Busan Claw
    address: Busan Haeundae 1
    x: 129.0756
    y: 35.1796
  - name: Unknown Spot
    address: Somewhere
`

func TestParseRegistry(t *testing.T) {
	shops, err := parseRegistry([]byte(sample))
	require.NoError(t, err)
	require.Len(t, shops, 3)

	assert.Equal(t, "Claw House", shops[0].Name)
	assert.Equal(t, "198000", shops[0].CoordX)
	assert.Equal(t, "450000.25", shops[0].CoordY)
	require.NotNil(t, shops[0].Phone)
	assert.Equal(t, "02-123-4567", *shops[0].Phone)
	assert.Equal(t, 24, shops[0].MachineCount)
	assert.False(t, shops[0].Position().Defaulted)

	assert.Equal(t, "129.0756", shops[1].CoordX)
	assert.Nil(t, shops[1].Phone)

	assert.Equal(t, "", shops[2].CoordX)
	assert.True(t, shops[2].Position().Defaulted)
}

func TestParseRegistry_Invalid(t *testing.T) {
	_, err := parseRegistry([]byte("stores:\n  - name: No Address\n"))
	assert.ErrorContains(t, err, "entry 1")

	_, err = parseRegistry([]byte("stores: [unterminated"))
	assert.Error(t, err)
}

type memStores struct {
	stores.Store
	rows []stores.Shop
}

func (m *memStores) Exists(_ context.Context, name, address string) (bool, error) {
	for _, r := range m.rows {
		if r.Name == name && r.Address == address {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStores) Create(_ context.Context, s *stores.Shop) error {
	s.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, *s)
	return nil
}

func TestSeedStores_SkipsExisting(t *testing.T) {
	shops, err := parseRegistry([]byte(sample))
	require.NoError(t, err)

	repo := &memStores{rows: []stores.Shop{{ID: 1, Name: "Busan Claw", Address: "Busan Haeundae 1"}}}

	inserted, skipped, err := seedStores(context.Background(), repo, shops, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.Equal(t, 1, skipped)

	inserted, skipped, err = seedStores(context.Background(), repo, shops, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Zero(t, inserted)
	assert.Equal(t, 3, skipped)
}
