package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func seoul(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

func TestNextRun(t *testing.T) {
	loc := seoul(t)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "before the hour runs today",
			now:  time.Date(2026, 10, 18, 8, 59, 0, 0, loc),
			want: time.Date(2026, 10, 18, 9, 0, 0, 0, loc),
		},
		{
			name: "exactly on the hour waits a day",
			now:  time.Date(2026, 10, 18, 9, 0, 0, 0, loc),
			want: time.Date(2026, 10, 19, 9, 0, 0, 0, loc),
		},
		{
			name: "after the hour runs tomorrow",
			now:  time.Date(2026, 10, 18, 23, 30, 0, 0, loc),
			want: time.Date(2026, 10, 19, 9, 0, 0, 0, loc),
		},
		{
			name: "utc input is interpreted in seoul",
			now:  time.Date(2026, 10, 17, 23, 30, 0, 0, time.UTC), // 08:30 KST on the 18th
			want: time.Date(2026, 10, 18, 9, 0, 0, 0, loc),
		},
		{
			name: "month rollover",
			now:  time.Date(2026, 10, 31, 10, 0, 0, 0, loc),
			want: time.Date(2026, 11, 1, 9, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextRun(tt.now, 9, loc)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestPreviousDay(t *testing.T) {
	loc := seoul(t)

	from, to := PreviousDay(time.Date(2026, 10, 18, 9, 0, 0, 0, loc), loc)

	assert.True(t, time.Date(2026, 10, 17, 0, 0, 0, 0, loc).Equal(from))
	assert.True(t, time.Date(2026, 10, 18, 0, 0, 0, 0, loc).Equal(to))
}
