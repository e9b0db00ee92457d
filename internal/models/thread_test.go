package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestToggleLike(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	var set pq.StringArray

	set = ToggleLike(set, alice)
	assert.Equal(t, pq.StringArray{alice.String()}, set)

	set = ToggleLike(set, bob)
	assert.Len(t, set, 2)

	// Toggling again removes, order of the rest preserved.
	set = ToggleLike(set, alice)
	assert.Equal(t, pq.StringArray{bob.String()}, set)

	set = ToggleLike(set, bob)
	assert.Empty(t, set)
}

func TestLikedByUser(t *testing.T) {
	alice := uuid.New()
	th := Thread{LikedBy: pq.StringArray{alice.String()}}
	assert.True(t, th.LikedByUser(alice))
	assert.False(t, th.LikedByUser(uuid.New()))

	p := Post{LikedBy: pq.StringArray{alice.String()}}
	assert.True(t, p.LikedByUser(alice))
}
