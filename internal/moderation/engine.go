package moderation

import (
	"fmt"
	"strconv"
	"time"

	"github.com/talkboard/backend/internal/models"
)

// DurationPermanent requests a ban with no expiry.
const DurationPermanent = "Permanent"

// ComputeBanExpiry turns a ban duration into the ban_expires value: the
// literal "Never" for permanent bans, otherwise an absolute RFC 3339
// timestamp now + N days.
func ComputeBanExpiry(duration string, now time.Time) (string, error) {
	if duration == DurationPermanent {
		return models.BanNever, nil
	}
	days, err := strconv.Atoi(duration)
	if err != nil || days <= 0 {
		return "", fmt.Errorf("invalid ban duration %q", duration)
	}
	return now.UTC().AddDate(0, 0, days).Format(time.RFC3339), nil
}

// BanExpired reports whether a non-permanent ban has lapsed. Unparseable
// expiries are treated as still in force.
func BanExpired(banExpires string, now time.Time) bool {
	if banExpires == "" || banExpires == models.BanNever {
		return false
	}
	t, err := time.Parse(time.RFC3339, banExpires)
	if err != nil {
		return false
	}
	return now.After(t)
}
