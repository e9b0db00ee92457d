package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFillsDefaults(t *testing.T) {
	u := User{Username: "alice"}
	u.Normalize()

	assert.Equal(t, StatusActive, u.Status)
	assert.Equal(t, DefaultAvatarURL, u.AvatarURL)
	assert.Equal(t, DefaultTheme, u.ThemePreference)
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	u := User{
		Status:          StatusBanned,
		AvatarURL:       "https://example.com/me.png",
		ThemePreference: "light",
	}
	u.Normalize()

	assert.Equal(t, StatusBanned, u.Status)
	assert.Equal(t, "https://example.com/me.png", u.AvatarURL)
	assert.Equal(t, "light", u.ThemePreference)
}

func TestRoleHelpers(t *testing.T) {
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.True(t, (&User{Role: RoleAdmin}).CanModerate())
	assert.True(t, (&User{Role: RoleModerator}).CanModerate())
	assert.False(t, (&User{Role: RoleModerator}).IsAdmin())
	assert.False(t, (&User{Role: RoleUser}).CanModerate())
	assert.True(t, (&User{Status: StatusBanned}).IsBanned())
	assert.False(t, (&User{Status: StatusWarned}).IsBanned())
}

func TestPunishmentHistoryRoundTrip(t *testing.T) {
	var u User
	assert.Empty(t, u.PunishmentHistory())

	first := Punishment{Type: "warning", Reason: "flaming", IssuedBy: "mod", IssuedAt: time.Now().UTC()}
	require.NoError(t, u.AppendPunishment(first))
	second := Punishment{Type: "ban", Reason: "repeat offense", IssuedBy: "admin", IssuedAt: time.Now().UTC()}
	require.NoError(t, u.AppendPunishment(second))

	history := u.PunishmentHistory()
	require.Len(t, history, 2)
	assert.Equal(t, "warning", history[0].Type)
	assert.Equal(t, "ban", history[1].Type)
	assert.Equal(t, "repeat offense", history[1].Reason)
}

func TestPunishmentHistoryCorruptColumn(t *testing.T) {
	u := User{Punishments: []byte("not json")}
	assert.Nil(t, u.PunishmentHistory())
}
