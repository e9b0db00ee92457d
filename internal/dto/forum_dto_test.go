package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talkboard/backend/internal/models"
)

func strptr(s string) *string { return &s }

func TestUpdateProfileFieldsOnlyPresent(t *testing.T) {
	req := UpdateProfileRequest{
		DisplayName: strptr("New Name"),
		About:       strptr(""),
	}
	fields := req.Fields()

	assert.Equal(t, map[string]interface{}{
		"display_name": "New Name",
		"about":        "",
	}, fields)
}

func TestUpdateProfileFieldsEmpty(t *testing.T) {
	assert.Empty(t, UpdateProfileRequest{}.Fields())
}

func TestNewUserResponseAppliesDefaults(t *testing.T) {
	u := models.User{Username: "alice"}
	resp := NewUserResponse(u)

	assert.Equal(t, models.StatusActive, resp.Status)
	assert.Equal(t, models.DefaultAvatarURL, resp.AvatarURL)
	assert.Equal(t, models.DefaultTheme, resp.ThemePreference)

	// Mapping never writes back: the source row keeps its sparse shape.
	assert.Empty(t, u.Status)
}
