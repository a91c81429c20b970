package pkglog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	at, err := ParseTimeOfDay("00:00")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{}, at)

	at, err = ParseTimeOfDay("23:15:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 23, Minute: 15, Second: 30}, at)

	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)
}

func TestNewRotatorDeadlineToday(t *testing.T) {
	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	r := NewRotator(1000, TimeOfDay{Hour: 12}, now)

	assert.Equal(t, time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC), r.Deadline())
}

func TestNewRotatorDeadlineTomorrowWhenLate(t *testing.T) {
	now := time.Date(2024, 5, 10, 18, 30, 0, 0, time.UTC)
	r := NewRotator(1000, TimeOfDay{Hour: 12}, now)

	assert.Equal(t, time.Date(2024, 5, 11, 12, 0, 0, 0, time.UTC), r.Deadline())
	assert.False(t, r.ShouldRotate(1, 0, now))
}

func TestNewRotatorDeadlineTomorrowWhenExactlyAt(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	r := NewRotator(1000, TimeOfDay{}, now)

	assert.Equal(t, time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC), r.Deadline())
}

func TestShouldRotateSizeWinsRegardlessOfTime(t *testing.T) {
	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	r := NewRotator(100, TimeOfDay{Hour: 12}, now)
	deadline := r.Deadline()

	assert.True(t, r.ShouldRotate(11, 90, now))
	assert.True(t, r.ShouldRotate(1, 100, now.Add(-time.Hour)))
	assert.False(t, r.ShouldRotate(10, 90, now))
	assert.Equal(t, deadline, r.Deadline(), "size trigger must not move the deadline")
}

func TestShouldRotateTimeAdvancesOnce(t *testing.T) {
	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	r := NewRotator(1<<30, TimeOfDay{Hour: 12}, now)
	d := r.Deadline()

	assert.False(t, r.ShouldRotate(10, 0, d))
	assert.Equal(t, d, r.Deadline())

	assert.True(t, r.ShouldRotate(10, 0, d.Add(time.Second)))
	assert.Equal(t, d.AddDate(0, 0, 1), r.Deadline())

	assert.False(t, r.ShouldRotate(10, 0, d.Add(2*time.Second)))
	assert.False(t, r.ShouldRotate(10, 0, d.AddDate(0, 0, 1)))
	assert.Equal(t, d.AddDate(0, 0, 1), r.Deadline())
}

func TestShouldRotateClockSkewAdvancesOneDayPerCheck(t *testing.T) {
	now := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	r := NewRotator(1<<30, TimeOfDay{Hour: 12}, now)
	d := r.Deadline()
	skewed := d.AddDate(0, 0, 30)

	assert.True(t, r.ShouldRotate(1, 0, skewed))
	assert.Equal(t, d.AddDate(0, 0, 1), r.Deadline())

	assert.True(t, r.ShouldRotate(1, 0, skewed))
	assert.Equal(t, d.AddDate(0, 0, 2), r.Deadline())
}
