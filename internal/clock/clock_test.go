package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Real{}.Sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRealSleep_Elapses(t *testing.T) {
	require.NoError(t, Real{}.Sleep(context.Background(), time.Millisecond))
	require.NoError(t, Real{}.Sleep(context.Background(), 0))
}

func TestFake_SleepAdvances(t *testing.T) {
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	f := NewFake(start)

	require.NoError(t, f.Sleep(context.Background(), time.Second))
	require.NoError(t, f.Sleep(context.Background(), 500*time.Millisecond))
	f.Advance(time.Minute)

	assert.Equal(t, start.Add(time.Minute+1500*time.Millisecond), f.Now())
	assert.Equal(t, []time.Duration{time.Second, 500 * time.Millisecond}, f.Slept())
}

func TestFake_SleepHonorsContext(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, f.Sleep(ctx, time.Second), context.Canceled)
	assert.Empty(t, f.Slept())
}

func TestIDSource_MonotonicWithinMillisecond(t *testing.T) {
	f := NewFake(time.UnixMilli(1704880000000))
	ids := NewIDSource(f)

	assert.Equal(t, "1704880000000", ids.Next())
	assert.Equal(t, "1704880000001", ids.Next())
	f.Advance(10 * time.Millisecond)
	assert.Equal(t, "1704880000010", ids.Next())
}
