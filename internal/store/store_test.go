package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkboard/backend/internal/gatewaytest"
	"github.com/talkboard/backend/internal/models"
	"github.com/talkboard/backend/internal/moderation"
)

func newTestStore(t *testing.T) (*Store, *gatewaytest.Fake) {
	t.Helper()
	fake := gatewaytest.New()
	gate := moderation.NewBanGate(nil, fake.IsIPBanned)
	st := New(fake, gate)
	require.NoError(t, st.Resync(context.Background()))
	return st, fake
}

func TestCreateThreadDefaults(t *testing.T) {
	st, fake := newTestStore(t)
	author := fake.AddUser("alice", "alice@example.com", "pw12345678", models.RoleUser)

	created, err := st.CreateThread(context.Background(), author, "general", "First thread", "hello world")
	require.NoError(t, err)

	thread, ok := st.ThreadByID(created.ID)
	require.True(t, ok, "thread should be in the snapshot after resync")
	assert.Equal(t, 0, thread.Likes)
	assert.Equal(t, 0, thread.ViewCount)
	assert.Equal(t, 0, thread.ReplyCount)
	assert.Empty(t, thread.LikedBy)
	assert.False(t, thread.IsLocked)
	assert.False(t, thread.IsPinned)
	assert.Equal(t, author.ID, thread.AuthorID)
}

func TestLikeCountMatchesSet(t *testing.T) {
	st, fake := newTestStore(t)
	author := fake.AddUser("alice", "alice@example.com", "pw12345678", models.RoleUser)
	bob := fake.AddUser("bob", "bob@example.com", "pw12345678", models.RoleUser)
	carol := fake.AddUser("carol", "carol@example.com", "pw12345678", models.RoleUser)

	created, err := st.CreateThread(context.Background(), author, "general", "t", "c")
	require.NoError(t, err)

	require.NoError(t, st.ToggleThreadLike(context.Background(), bob, created.ID))
	require.NoError(t, st.ToggleThreadLike(context.Background(), carol, created.ID))

	thread, ok := st.ThreadByID(created.ID)
	require.True(t, ok)
	assert.Equal(t, 2, thread.Likes)
	assert.Len(t, thread.LikedBy, 2)
	assert.Equal(t, len(thread.LikedBy), thread.Likes)

	// Same user again removes the like.
	require.NoError(t, st.ToggleThreadLike(context.Background(), bob, created.ID))
	thread, _ = st.ThreadByID(created.ID)
	assert.Equal(t, 1, thread.Likes)
	assert.False(t, thread.LikedByUser(bob.ID))
	assert.True(t, thread.LikedByUser(carol.ID))
}

func TestRecordThreadView(t *testing.T) {
	st, fake := newTestStore(t)
	author := fake.AddUser("alice", "alice@example.com", "pw12345678", models.RoleUser)

	created, err := st.CreateThread(context.Background(), author, "general", "t", "c")
	require.NoError(t, err)

	require.NoError(t, st.RecordThreadView(context.Background(), created.ID))
	require.NoError(t, st.RecordThreadView(context.Background(), created.ID))

	thread, _ := st.ThreadByID(created.ID)
	assert.Equal(t, 2, thread.ViewCount)
}

func TestResyncRunsAfterFailedWrite(t *testing.T) {
	st, fake := newTestStore(t)
	author := fake.AddUser("alice", "alice@example.com", "pw12345678", models.RoleUser)

	// A change lands remotely without going through this store.
	_, err := fake.CreateThread(context.Background(), author, "general", "remote", "body")
	require.NoError(t, err)

	boom := errors.New("write rejected")
	fake.FailNextWrite = boom

	_, err = st.CreateThread(context.Background(), author, "general", "local", "body")
	assert.ErrorIs(t, err, boom)

	// The failed write still triggered a reload, so the remote thread is
	// visible now.
	threads := st.Threads()
	require.Len(t, threads, 1)
	assert.Equal(t, "remote", threads[0].Title)
}

func TestBanWithIPBanCreatesAddressBan(t *testing.T) {
	st, fake := newTestStore(t)
	admin := fake.AddUser("admin", "admin@example.com", "pw12345678", models.RoleAdmin)
	target := fake.AddUser("troll", "troll@example.com", "pw12345678", models.RoleUser)
	target.LastIP = "203.0.113.9"

	require.NoError(t, st.BanUser(context.Background(), admin, target.ID, "spam", "7", true))

	bans := st.IPBans()
	require.Len(t, bans, 1)
	assert.Equal(t, "203.0.113.9", bans[0].IPAddress)

	u, ok := st.UserByID(target.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusBanned, u.Status)
	assert.NotEmpty(t, u.BanExpires)

	set := st.BannedSet()
	assert.Contains(t, set, target.ID)
}

func TestPermanentBanExpiry(t *testing.T) {
	st, fake := newTestStore(t)
	admin := fake.AddUser("admin", "admin@example.com", "pw12345678", models.RoleAdmin)
	target := fake.AddUser("troll", "troll@example.com", "pw12345678", models.RoleUser)

	require.NoError(t, st.BanUser(context.Background(), admin, target.ID, "spam", moderation.DurationPermanent, false))

	u, _ := st.UserByID(target.ID)
	assert.Equal(t, models.BanNever, u.BanExpires)
}

func TestCreatePostBumpsReplyCount(t *testing.T) {
	st, fake := newTestStore(t)
	author := fake.AddUser("alice", "alice@example.com", "pw12345678", models.RoleUser)

	created, err := st.CreateThread(context.Background(), author, "general", "t", "c")
	require.NoError(t, err)

	_, err = st.CreatePost(context.Background(), author, created.ID, "first reply")
	require.NoError(t, err)

	thread, _ := st.ThreadByID(created.ID)
	assert.Equal(t, 1, thread.ReplyCount)
	assert.Len(t, st.PostsForThread(created.ID), 1)
}

func TestSnapshotReadsReturnCopies(t *testing.T) {
	st, fake := newTestStore(t)
	author := fake.AddUser("alice", "alice@example.com", "pw12345678", models.RoleUser)
	_, err := st.CreateThread(context.Background(), author, "general", "t", "c")
	require.NoError(t, err)

	threads := st.Threads()
	threads[0].Title = "mutated"

	again := st.Threads()
	assert.Equal(t, "t", again[0].Title)
}
