package moderation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkboard/backend/internal/models"
)

func TestComputeBanExpiryPermanent(t *testing.T) {
	got, err := ComputeBanExpiry(DurationPermanent, time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.BanNever, got)
}

func TestComputeBanExpiryDays(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	got, err := ComputeBanExpiry("7", now)
	require.NoError(t, err)

	parsed, err := time.Parse(time.RFC3339, got)
	require.NoError(t, err)
	assert.WithinDuration(t, now.AddDate(0, 0, 7), parsed, time.Second)
}

func TestComputeBanExpiryInvalid(t *testing.T) {
	for _, dur := range []string{"", "forever", "0", "-3", "7.5"} {
		_, err := ComputeBanExpiry(dur, time.Now())
		assert.Error(t, err, "duration %q", dur)
	}
}

func TestBanExpired(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		expires string
		want    bool
	}{
		{"permanent never expires", models.BanNever, false},
		{"empty still in force", "", false},
		{"future", now.Add(time.Hour).Format(time.RFC3339), false},
		{"past", now.Add(-time.Hour).Format(time.RFC3339), true},
		{"garbage stays in force", "not-a-timestamp", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BanExpired(tt.expires, now))
		})
	}
}
