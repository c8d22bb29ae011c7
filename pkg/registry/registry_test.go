package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Baiumka/miner-client/pkg/icsdk/backend"
)

type fakeLister struct {
	boxes []backend.Box
	err   error
	calls int
}

func (f *fakeLister) ListBoxes(context.Context) ([]backend.Box, error) {
	f.calls++
	return f.boxes, f.err
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestList(t *testing.T) {
	lister := &fakeLister{boxes: []backend.Box{{CanisterID: "b1"}, {CanisterID: "b2"}}}
	r, err := New(lister)
	require.NoError(t, err)

	boxes, err := r.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, boxes, 2)

	boxes, err = r.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, boxes, 2)
	assert.Equal(t, 2, lister.calls, "every list is a full re-fetch")
}

func TestList_BackendError(t *testing.T) {
	lister := &fakeLister{err: errors.New("backend down")}
	r, err := New(lister)
	require.NoError(t, err)

	_, err = r.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")
}

func TestRemainingTime(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		end     time.Time
		want    Remaining
		matured bool
	}{
		{
			name: "two days out",
			end:  now.Add(2*24*time.Hour + 3*time.Hour + 4*time.Minute + 5*time.Second),
			want: Remaining{Days: 2, Hours: 3, Minutes: 4, Seconds: 5},
		},
		{
			name: "under a minute",
			end:  now.Add(42 * time.Second),
			want: Remaining{Seconds: 42},
		},
		{
			name:    "exactly at maturity",
			end:     now,
			matured: true,
		},
		{
			name:    "past maturity",
			end:     now.Add(-time.Hour),
			matured: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rem, matured := RemainingTime(uint64(tt.end.UnixNano()), now)
			assert.Equal(t, tt.matured, matured)
			assert.Equal(t, tt.want, rem, "matured countdowns have all-zero components")
		})
	}
}

func TestRemainingTime_Idempotent(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	end := uint64(now.Add(90 * time.Minute).UnixNano())

	first, m1 := RemainingTime(end, now)
	second, m2 := RemainingTime(end, now)
	assert.Equal(t, first, second)
	assert.Equal(t, m1, m2)
	assert.Equal(t, Remaining{Hours: 1, Minutes: 30}, first)
}

func TestWatch_StopsAtMaturity(t *testing.T) {
	clock := &steppingClock{t: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)}
	end := uint64(clock.t.Add(2 * time.Second).UnixNano())

	r, err := New(&fakeLister{}, WithClock(clock), WithWatchInterval(time.Millisecond))
	require.NoError(t, err)

	var results []Remaining
	var maturedSeen bool
	r.Watch(context.Background(), end, func(rem Remaining, matured bool) {
		results = append(results, rem)
		maturedSeen = maturedSeen || matured
	})

	assert.True(t, maturedSeen)
	require.GreaterOrEqual(t, len(results), 2)
	assert.Equal(t, Remaining{}, results[len(results)-1])
}

func TestWatch_CancelStops(t *testing.T) {
	clock := fixedClock{t: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)}
	end := uint64(clock.t.Add(time.Hour).UnixNano())

	r, err := New(&fakeLister{}, WithClock(clock), WithWatchInterval(time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	r.Watch(ctx, end, func(Remaining, bool) { calls++ })

	assert.GreaterOrEqual(t, calls, 1, "immediate evaluation before the first tick")
}

// steppingClock advances one second per Now call, so a short tick interval
// walks through wall-clock seconds quickly.
type steppingClock struct{ t time.Time }

func (c *steppingClock) Now() time.Time {
	now := c.t
	c.t = c.t.Add(time.Second)
	return now
}
