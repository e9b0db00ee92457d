package dto

type CreateThreadRequest struct {
	CategoryID string `json:"categoryId"`
	Title      string `json:"title"`
	Content    string `json:"content"`
}

type CreatePostRequest struct {
	Content string `json:"content"`
}

type UpdatePostRequest struct {
	Content string `json:"content"`
}

// UpdateProfileRequest carries a partial self-edit. Only non-nil fields
// are written; absent fields are never overwritten with defaults.
type UpdateProfileRequest struct {
	DisplayName     *string `json:"displayName,omitempty"`
	AvatarURL       *string `json:"avatarUrl,omitempty"`
	BannerURL       *string `json:"bannerUrl,omitempty"`
	About           *string `json:"about,omitempty"`
	ThemePreference *string `json:"themePreference,omitempty"`
}

// Fields translates the partial update to storage column names, emitting
// only the fields explicitly present.
func (r UpdateProfileRequest) Fields() map[string]interface{} {
	out := make(map[string]interface{})
	if r.DisplayName != nil {
		out["display_name"] = *r.DisplayName
	}
	if r.AvatarURL != nil {
		out["avatar_url"] = *r.AvatarURL
	}
	if r.BannerURL != nil {
		out["banner_url"] = *r.BannerURL
	}
	if r.About != nil {
		out["about"] = *r.About
	}
	if r.ThemePreference != nil {
		out["theme_preference"] = *r.ThemePreference
	}
	return out
}
