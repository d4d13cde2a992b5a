package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatTimeAgo(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "just now", FormatTimeAgo(now.Add(-30*time.Second), now))
	assert.Equal(t, "5 min ago", FormatTimeAgo(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3 hr ago", FormatTimeAgo(now.Add(-3*time.Hour), now))
	assert.Equal(t, "1 day ago", FormatTimeAgo(now.Add(-25*time.Hour), now))
	assert.Equal(t, "4 days ago", FormatTimeAgo(now.Add(-4*24*time.Hour), now))
}

func TestNormalizeHazardKind(t *testing.T) {
	assert.Equal(t, HazardPower, NormalizeHazardKind("warning"))
	assert.Equal(t, HazardPower, NormalizeHazardKind("power"))
	assert.Equal(t, HazardFire, NormalizeHazardKind("fire"))
}
