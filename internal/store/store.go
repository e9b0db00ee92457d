// Package store keeps an in-memory snapshot of the forum collections.
// Reads are served from the snapshot; every mutation writes through the
// gateway and then reloads all collections, whether or not the write
// succeeded. Consistency comes from the reload, not from patching the
// snapshot by hand.
package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/talkboard/backend/internal/gateway"
	"github.com/talkboard/backend/internal/models"
	"github.com/talkboard/backend/internal/moderation"
)

type Store struct {
	gw   gateway.Gateway
	gate *moderation.BanGate

	mu      sync.RWMutex
	users   []models.User
	threads []models.Thread
	posts   []models.Post
	reports []models.Report
	ipBans  []models.IPBan
}

func New(gw gateway.Gateway, gate *moderation.BanGate) *Store {
	return &Store{gw: gw, gate: gate}
}

// Resync reloads every collection and swaps the snapshot in one step.
// It also pushes the fresh IP-ban list into the gate's mirror.
func (s *Store) Resync(ctx context.Context) error {
	users, err := s.gw.ListUsers(ctx)
	if err != nil {
		return err
	}
	threads, err := s.gw.ListThreads(ctx)
	if err != nil {
		return err
	}
	posts, err := s.gw.ListPosts(ctx)
	if err != nil {
		return err
	}
	reports, err := s.gw.ListReports(ctx)
	if err != nil {
		return err
	}
	ipBans, err := s.gw.ListIPBans(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.users = users
	s.threads = threads
	s.posts = posts
	s.reports = reports
	s.ipBans = ipBans
	s.mu.Unlock()

	ips := make([]string, 0, len(ipBans))
	for _, b := range ipBans {
		ips = append(ips, b.IPAddress)
	}
	s.gate.Refresh(ctx, ips)
	return nil
}

// mutate runs the write and then resynchronizes unconditionally. The
// reload happens even when the write failed, so a partial remote change
// can never linger in the snapshot. The write's error wins.
func (s *Store) mutate(ctx context.Context, write func() error) error {
	writeErr := write()
	if err := s.Resync(ctx); err != nil {
		slog.Warn("state resync failed", "error", err)
		if writeErr == nil {
			return err
		}
	}
	return writeErr
}

// --- Reads ---

func (s *Store) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, len(s.users))
	copy(out, s.users)
	return out
}

func (s *Store) Threads() []models.Thread {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Thread, len(s.threads))
	copy(out, s.threads)
	return out
}

func (s *Store) Posts() []models.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Post, len(s.posts))
	copy(out, s.posts)
	return out
}

func (s *Store) PostsForThread(threadID uuid.UUID) []models.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Post
	for _, p := range s.posts {
		if p.ThreadID == threadID {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) Reports() []models.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Report, len(s.reports))
	copy(out, s.reports)
	return out
}

func (s *Store) IPBans() []models.IPBan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.IPBan, len(s.ipBans))
	copy(out, s.ipBans)
	return out
}

func (s *Store) UserByID(id uuid.UUID) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return models.User{}, false
}

func (s *Store) ThreadByID(id uuid.UUID) (models.Thread, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.threads {
		if t.ID == id {
			return t, true
		}
	}
	return models.Thread{}, false
}

func (s *Store) PostByID(id uuid.UUID) (models.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.posts {
		if p.ID == id {
			return p, true
		}
	}
	return models.Post{}, false
}

// BannedSet returns the IDs of currently banned profiles, for display
// censorship.
func (s *Store) BannedSet() map[uuid.UUID]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return moderation.BannedIDs(s.users)
}

// --- Forum mutations ---

func (s *Store) CreateThread(ctx context.Context, actor *models.User, categoryID, title, content string) (*models.Thread, error) {
	var created *models.Thread
	err := s.mutate(ctx, func() error {
		t, err := s.gw.CreateThread(ctx, actor, categoryID, title, content)
		if err != nil {
			return err
		}
		created = t
		return nil
	})
	return created, err
}

func (s *Store) DeleteThread(ctx context.Context, actor *models.User, threadID uuid.UUID) error {
	return s.mutate(ctx, func() error {
		return s.gw.DeleteThread(ctx, actor, threadID)
	})
}

func (s *Store) CreatePost(ctx context.Context, actor *models.User, threadID uuid.UUID, content string) (*models.Post, error) {
	var created *models.Post
	err := s.mutate(ctx, func() error {
		p, err := s.gw.CreatePost(ctx, actor, threadID, content)
		if err != nil {
			return err
		}
		created = p
		return nil
	})
	return created, err
}

func (s *Store) UpdatePost(ctx context.Context, actor *models.User, postID uuid.UUID, content string) error {
	return s.mutate(ctx, func() error {
		return s.gw.UpdatePost(ctx, actor, postID, content)
	})
}

func (s *Store) DeletePost(ctx context.Context, actor *models.User, postID uuid.UUID) error {
	return s.mutate(ctx, func() error {
		return s.gw.DeletePost(ctx, actor, postID)
	})
}

// ToggleThreadLike computes the new liked_by set from the snapshot and
// writes the set together with its length. The resync that follows is
// what makes the count authoritative.
func (s *Store) ToggleThreadLike(ctx context.Context, actor *models.User, threadID uuid.UUID) error {
	t, ok := s.ThreadByID(threadID)
	if !ok {
		return gateway.ErrNotFound
	}
	likedBy := models.ToggleLike(t.LikedBy, actor.ID)
	return s.mutate(ctx, func() error {
		return s.gw.SetThreadLikes(ctx, actor, threadID, likedBy)
	})
}

func (s *Store) TogglePostLike(ctx context.Context, actor *models.User, postID uuid.UUID) error {
	p, ok := s.PostByID(postID)
	if !ok {
		return gateway.ErrNotFound
	}
	likedBy := models.ToggleLike(p.LikedBy, actor.ID)
	return s.mutate(ctx, func() error {
		return s.gw.SetPostLikes(ctx, actor, postID, likedBy)
	})
}

func (s *Store) SetThreadPinned(ctx context.Context, actor *models.User, threadID uuid.UUID, pinned bool) error {
	return s.mutate(ctx, func() error {
		return s.gw.SetThreadPinned(ctx, actor, threadID, pinned)
	})
}

func (s *Store) SetThreadLocked(ctx context.Context, actor *models.User, threadID uuid.UUID, locked bool) error {
	return s.mutate(ctx, func() error {
		return s.gw.SetThreadLocked(ctx, actor, threadID, locked)
	})
}

// RecordThreadView is the one write that skips read-modify-write: the
// increment happens atomically at the data layer.
func (s *Store) RecordThreadView(ctx context.Context, threadID uuid.UUID) error {
	return s.mutate(ctx, func() error {
		return s.gw.IncrementThreadView(ctx, threadID)
	})
}

func (s *Store) UpdateProfile(ctx context.Context, actor *models.User, userID uuid.UUID, fields map[string]interface{}) error {
	return s.mutate(ctx, func() error {
		return s.gw.UpdateProfile(ctx, actor, userID, fields)
	})
}

// --- Moderation mutations ---

func (s *Store) BanUser(ctx context.Context, actor *models.User, targetID uuid.UUID, reason, duration string, ipBan bool) error {
	return s.mutate(ctx, func() error {
		return s.gw.BanUser(ctx, actor, targetID, reason, duration, ipBan)
	})
}

func (s *Store) UnbanUser(ctx context.Context, actor *models.User, targetID uuid.UUID) error {
	return s.mutate(ctx, func() error {
		return s.gw.UnbanUser(ctx, actor, targetID)
	})
}

func (s *Store) WarnUser(ctx context.Context, actor *models.User, targetID uuid.UUID, reason string) error {
	return s.mutate(ctx, func() error {
		return s.gw.WarnUser(ctx, actor, targetID, reason)
	})
}

func (s *Store) SetProtected(ctx context.Context, actor *models.User, targetID uuid.UUID, protected bool) error {
	return s.mutate(ctx, func() error {
		return s.gw.SetProtected(ctx, actor, targetID, protected)
	})
}

func (s *Store) UpdateNotes(ctx context.Context, actor *models.User, targetID uuid.UUID, notes string) error {
	return s.mutate(ctx, func() error {
		return s.gw.UpdateNotes(ctx, actor, targetID, notes)
	})
}

func (s *Store) DeleteIPBan(ctx context.Context, actor *models.User, banID uuid.UUID) error {
	return s.mutate(ctx, func() error {
		return s.gw.DeleteIPBan(ctx, actor, banID)
	})
}

func (s *Store) CreateReport(ctx context.Context, actor *models.User, report models.Report) (*models.Report, error) {
	var created *models.Report
	err := s.mutate(ctx, func() error {
		r, err := s.gw.CreateReport(ctx, actor, report)
		if err != nil {
			return err
		}
		created = r
		return nil
	})
	return created, err
}

func (s *Store) SetReportStatus(ctx context.Context, actor *models.User, reportID uuid.UUID, status string) error {
	return s.mutate(ctx, func() error {
		return s.gw.SetReportStatus(ctx, actor, reportID, status)
	})
}
