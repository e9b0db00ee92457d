package moderation

import (
	"strings"

	"github.com/google/uuid"

	"github.com/talkboard/backend/internal/models"
)

// maskRune replaces every censored character. Spaces and newlines survive
// so the text keeps its layout while losing its content.
const maskRune = '█'

// CensorText masks a banned author's text for display. The result has the
// same rune length as the input with whitespace structure intact. This is
// a display policy only and must never be written back to storage.
func CensorText(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == ' ' || r == '\n' {
			b.WriteRune(r)
		} else {
			b.WriteRune(maskRune)
		}
	}
	return b.String()
}

// BannedIDs collects the profile IDs whose content should be censored.
func BannedIDs(users []models.User) map[uuid.UUID]struct{} {
	out := make(map[uuid.UUID]struct{})
	for _, u := range users {
		if u.IsBanned() {
			out[u.ID] = struct{}{}
		}
	}
	return out
}

// VisibleThreads returns display copies of threads, censoring title and
// content of those authored by banned profiles. Threads from active
// authors pass through untouched.
func VisibleThreads(threads []models.Thread, banned map[uuid.UUID]struct{}) []models.Thread {
	out := make([]models.Thread, len(threads))
	copy(out, threads)
	for i := range out {
		if _, ok := banned[out[i].AuthorID]; ok {
			out[i].Title = CensorText(out[i].Title)
			out[i].Content = CensorText(out[i].Content)
		}
	}
	return out
}

// VisiblePosts returns display copies of posts with banned authors' content masked.
func VisiblePosts(posts []models.Post, banned map[uuid.UUID]struct{}) []models.Post {
	out := make([]models.Post, len(posts))
	copy(out, posts)
	for i := range out {
		if _, ok := banned[out[i].AuthorID]; ok {
			out[i].Content = CensorText(out[i].Content)
		}
	}
	return out
}

// VisibleProfile returns a display copy of a profile, masking the bio when
// the profile itself is banned.
func VisibleProfile(u models.User) models.User {
	if u.IsBanned() {
		u.About = CensorText(u.About)
	}
	return u
}
