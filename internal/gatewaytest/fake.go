// Package gatewaytest provides an in-memory Gateway for tests. It keeps
// the same policy behavior as the real data layer where tests depend on
// it, and counts calls so tests can assert ordering guarantees.
package gatewaytest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/talkboard/backend/internal/gateway"
	"github.com/talkboard/backend/internal/models"
	"github.com/talkboard/backend/internal/moderation"
)

// Fake is an in-memory Gateway. The zero value is not usable; call New.
// FailNextWrite makes the next mutating call return an error, for
// exercising the resync-after-failed-write path.
type Fake struct {
	mu sync.Mutex

	Users    map[uuid.UUID]*models.User
	Threads  map[uuid.UUID]*models.Thread
	Posts    map[uuid.UUID]*models.Post
	Reports  map[uuid.UUID]*models.Report
	IPBans   map[uuid.UUID]*models.IPBan
	UserIPs  []models.UserIP
	Messages map[uuid.UUID]*models.ChatMessage

	Passwords map[uuid.UUID]string

	AuthenticateCalls int
	ResyncReads       int
	FailNextWrite     error
}

func New() *Fake {
	return &Fake{
		Users:     make(map[uuid.UUID]*models.User),
		Threads:   make(map[uuid.UUID]*models.Thread),
		Posts:     make(map[uuid.UUID]*models.Post),
		Reports:   make(map[uuid.UUID]*models.Report),
		IPBans:    make(map[uuid.UUID]*models.IPBan),
		Messages:  make(map[uuid.UUID]*models.ChatMessage),
		Passwords: make(map[uuid.UUID]string),
	}
}

// AddUser registers a profile with a plaintext password and returns it.
func (f *Fake) AddUser(username, email, password, role string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &models.User{
		ID:             uuid.New(),
		Username:       username,
		DisplayName:    username,
		Email:          email,
		EmailConfirmed: true,
		Role:           role,
		Status:         models.StatusActive,
		CreatedAt:      time.Now(),
	}
	u.Normalize()
	f.Users[u.ID] = u
	f.Passwords[u.ID] = password
	return u
}

func (f *Fake) failWrite() error {
	if f.FailNextWrite != nil {
		err := f.FailNextWrite
		f.FailNextWrite = nil
		return err
	}
	return nil
}

// --- Auth ---

func (f *Fake) Authenticate(_ context.Context, email, password string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AuthenticateCalls++
	for _, u := range f.Users {
		if u.Email == email {
			if f.Passwords[u.ID] != password {
				return nil, gateway.ErrInvalidCredentials
			}
			if !u.EmailConfirmed {
				return nil, gateway.ErrEmailUnconfirmed
			}
			cp := *u
			return &cp, nil
		}
	}
	return nil, gateway.ErrInvalidCredentials
}

func (f *Fake) CreateAccount(_ context.Context, username, email, password string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWrite(); err != nil {
		return nil, err
	}
	for _, u := range f.Users {
		if u.Email == email {
			return nil, gateway.ErrEmailTaken
		}
		if u.Username == username {
			return nil, gateway.ErrUsernameTaken
		}
	}
	u := &models.User{
		ID:           uuid.New(),
		Username:     username,
		DisplayName:  username,
		Email:        email,
		Role:         models.RoleUser,
		Status:       models.StatusActive,
		ConfirmToken: uuid.NewString(),
		CreatedAt:    time.Now(),
	}
	u.Normalize()
	f.Users[u.ID] = u
	f.Passwords[u.ID] = password
	cp := *u
	return &cp, nil
}

func (f *Fake) ConfirmEmail(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if token == "" {
		return gateway.ErrNotFound
	}
	for _, u := range f.Users {
		if u.ConfirmToken == token {
			u.EmailConfirmed = true
			u.ConfirmToken = ""
			return nil
		}
	}
	return gateway.ErrNotFound
}

func (f *Fake) ResetPassword(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.Users {
		if u.Email == email {
			return nil
		}
	}
	return gateway.ErrNotFound
}

func (f *Fake) UpdatePassword(_ context.Context, userID uuid.UUID, newPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Users[userID]; !ok {
		return gateway.ErrNotFound
	}
	f.Passwords[userID] = newPassword
	return nil
}

func (f *Fake) LogUserIP(_ context.Context, userID uuid.UUID, ip, userAgent string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UserIPs = append(f.UserIPs, models.UserIP{
		ID: uuid.New(), UserID: userID, IPAddress: ip, UserAgent: userAgent, CreatedAt: time.Now(),
	})
	return nil
}

func (f *Fake) UpdateLastIP(_ context.Context, userID uuid.UUID, ip string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.Users[userID]; ok {
		u.LastIP = ip
	}
	return nil
}

// --- Reader ---

func (f *Fake) ListUsers(context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ResyncReads++
	out := make([]models.User, 0, len(f.Users))
	for _, u := range f.Users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *Fake) ListThreads(context.Context) ([]models.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Thread, 0, len(f.Threads))
	for _, t := range f.Threads {
		out = append(out, *t)
	}
	return out, nil
}

func (f *Fake) ListPosts(context.Context) ([]models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Post, 0, len(f.Posts))
	for _, p := range f.Posts {
		out = append(out, *p)
	}
	return out, nil
}

func (f *Fake) ListReports(context.Context) ([]models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Report, 0, len(f.Reports))
	for _, r := range f.Reports {
		out = append(out, *r)
	}
	return out, nil
}

func (f *Fake) ListIPBans(context.Context) ([]models.IPBan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.IPBan, 0, len(f.IPBans))
	for _, b := range f.IPBans {
		out = append(out, *b)
	}
	return out, nil
}

func (f *Fake) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.Users[id]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// --- Forum ---

func (f *Fake) CreateThread(_ context.Context, actor *models.User, categoryID, title, content string) (*models.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWrite(); err != nil {
		return nil, err
	}
	if actor == nil || actor.IsBanned() {
		return nil, gateway.ErrForbidden
	}
	t := &models.Thread{
		ID:         uuid.New(),
		CategoryID: categoryID,
		AuthorID:   actor.ID,
		AuthorName: actor.DisplayName,
		Title:      title,
		Content:    content,
		LikedBy:    pq.StringArray{},
		CreatedAt:  time.Now(),
	}
	f.Threads[t.ID] = t
	if u, ok := f.Users[actor.ID]; ok {
		u.PostCount++
	}
	cp := *t
	return &cp, nil
}

func (f *Fake) DeleteThread(_ context.Context, actor *models.User, threadID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWrite(); err != nil {
		return err
	}
	t, ok := f.Threads[threadID]
	if !ok {
		return gateway.ErrNotFound
	}
	if actor == nil || (t.AuthorID != actor.ID && !actor.CanModerate()) {
		return gateway.ErrForbidden
	}
	delete(f.Threads, threadID)
	for id, p := range f.Posts {
		if p.ThreadID == threadID {
			delete(f.Posts, id)
		}
	}
	return nil
}

func (f *Fake) CreatePost(_ context.Context, actor *models.User, threadID uuid.UUID, content string) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWrite(); err != nil {
		return nil, err
	}
	if actor == nil || actor.IsBanned() {
		return nil, gateway.ErrForbidden
	}
	t, ok := f.Threads[threadID]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	if t.IsLocked && !actor.CanModerate() {
		return nil, gateway.ErrThreadLocked
	}
	p := &models.Post{
		ID:         uuid.New(),
		ThreadID:   threadID,
		AuthorID:   actor.ID,
		AuthorName: actor.DisplayName,
		Content:    content,
		LikedBy:    pq.StringArray{},
		CreatedAt:  time.Now(),
	}
	f.Posts[p.ID] = p
	t.ReplyCount++
	cp := *p
	return &cp, nil
}

func (f *Fake) UpdatePost(_ context.Context, actor *models.User, postID uuid.UUID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWrite(); err != nil {
		return err
	}
	p, ok := f.Posts[postID]
	if !ok {
		return gateway.ErrNotFound
	}
	if actor == nil || (p.AuthorID != actor.ID && !actor.CanModerate()) {
		return gateway.ErrForbidden
	}
	p.Content = content
	return nil
}

func (f *Fake) DeletePost(_ context.Context, actor *models.User, postID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWrite(); err != nil {
		return err
	}
	p, ok := f.Posts[postID]
	if !ok {
		return gateway.ErrNotFound
	}
	if actor == nil || (p.AuthorID != actor.ID && !actor.CanModerate()) {
		return gateway.ErrForbidden
	}
	delete(f.Posts, postID)
	if t, ok := f.Threads[p.ThreadID]; ok && t.ReplyCount > 0 {
		t.ReplyCount--
	}
	return nil
}

func (f *Fake) SetThreadLikes(_ context.Context, actor *models.User, threadID uuid.UUID, likedBy []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWrite(); err != nil {
		return err
	}
	if actor == nil || actor.IsBanned() {
		return gateway.ErrForbidden
	}
	t, ok := f.Threads[threadID]
	if !ok {
		return gateway.ErrNotFound
	}
	t.LikedBy = pq.StringArray(likedBy)
	t.Likes = len(likedBy)
	return nil
}

func (f *Fake) SetPostLikes(_ context.Context, actor *models.User, postID uuid.UUID, likedBy []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWrite(); err != nil {
		return err
	}
	if actor == nil || actor.IsBanned() {
		return gateway.ErrForbidden
	}
	p, ok := f.Posts[postID]
	if !ok {
		return gateway.ErrNotFound
	}
	p.LikedBy = pq.StringArray(likedBy)
	p.Likes = len(likedBy)
	return nil
}

func (f *Fake) SetThreadPinned(_ context.Context, actor *models.User, threadID uuid.UUID, pinned bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWrite(); err != nil {
		return err
	}
	if actor == nil || !actor.CanModerate() {
		return gateway.ErrForbidden
	}
	t, ok := f.Threads[threadID]
	if !ok {
		return gateway.ErrNotFound
	}
	t.IsPinned = pinned
	return nil
}

func (f *Fake) SetThreadLocked(_ context.Context, actor *models.User, threadID uuid.UUID, locked bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWrite(); err != nil {
		return err
	}
	if actor == nil || !actor.CanModerate() {
		return gateway.ErrForbidden
	}
	t, ok := f.Threads[threadID]
	if !ok {
		return gateway.ErrNotFound
	}
	t.IsLocked = locked
	return nil
}

func (f *Fake) IncrementThreadView(_ context.Context, threadID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWrite(); err != nil {
		return err
	}
	t, ok := f.Threads[threadID]
	if !ok {
		return gateway.ErrNotFound
	}
	t.ViewCount++
	return nil
}

func (f *Fake) UpdateProfile(_ context.Context, actor *models.User, userID uuid.UUID, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWrite(); err != nil {
		return err
	}
	if actor == nil || (actor.ID != userID && !actor.CanModerate()) {
		return gateway.ErrForbidden
	}
	u, ok := f.Users[userID]
	if !ok {
		return gateway.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "display_name":
			u.DisplayName, _ = v.(string)
		case "avatar_url":
			u.AvatarURL, _ = v.(string)
		case "banner_url":
			u.BannerURL, _ = v.(string)
		case "about":
			u.About, _ = v.(string)
		case "theme_preference":
			u.ThemePreference, _ = v.(string)
		default:
			return fmt.Errorf("unknown profile field %q", k)
		}
	}
	return nil
}

// --- Moderation ---

func (f *Fake) BanUser(_ context.Context, actor *models.User, targetID uuid.UUID, reason, duration string, ipBan bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWrite(); err != nil {
		return err
	}
	if actor == nil || !actor.CanModerate() {
		return gateway.ErrForbidden
	}
	target, ok := f.Users[targetID]
	if !ok {
		return gateway.ErrNotFound
	}
	if target.IsProtected {
		return gateway.ErrProtectedUser
	}
	if target.IsAdmin() || (target.CanModerate() && !actor.IsAdmin()) {
		return gateway.ErrForbidden
	}
	expiry, err := moderation.ComputeBanExpiry(duration, time.Now())
	if err != nil {
		return err
	}
	target.Status = models.StatusBanned
	target.BanReason = reason
	target.BanExpires = expiry
	if ipBan && target.LastIP != "" {
		ban := &models.IPBan{ID: uuid.New(), IPAddress: target.LastIP, Reason: reason, BannedBy: actor.ID, CreatedAt: time.Now()}
		f.IPBans[ban.ID] = ban
	}
	return nil
}

func (f *Fake) UnbanUser(_ context.Context, actor *models.User, targetID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWrite(); err != nil {
		return err
	}
	if actor == nil || !actor.CanModerate() {
		return gateway.ErrForbidden
	}
	target, ok := f.Users[targetID]
	if !ok {
		return gateway.ErrNotFound
	}
	target.Status = models.StatusActive
	target.BanReason = ""
	target.BanExpires = ""
	return nil
}

func (f *Fake) WarnUser(_ context.Context, actor *models.User, targetID uuid.UUID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWrite(); err != nil {
		return err
	}
	if actor == nil || !actor.CanModerate() {
		return gateway.ErrForbidden
	}
	target, ok := f.Users[targetID]
	if !ok {
		return gateway.ErrNotFound
	}
	if target.IsProtected {
		return gateway.ErrProtectedUser
	}
	if !target.IsBanned() {
		target.Status = models.StatusWarned
	}
	return nil
}

func (f *Fake) SetProtected(_ context.Context, actor *models.User, targetID uuid.UUID, protected bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWrite(); err != nil {
		return err
	}
	if actor == nil || !actor.IsAdmin() {
		return gateway.ErrForbidden
	}
	target, ok := f.Users[targetID]
	if !ok {
		return gateway.ErrNotFound
	}
	target.IsProtected = protected
	return nil
}

func (f *Fake) UpdateNotes(_ context.Context, actor *models.User, targetID uuid.UUID, notes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWrite(); err != nil {
		return err
	}
	if actor == nil || !actor.CanModerate() {
		return gateway.ErrForbidden
	}
	target, ok := f.Users[targetID]
	if !ok {
		return gateway.ErrNotFound
	}
	target.Notes = notes
	return nil
}

func (f *Fake) DeleteIPBan(_ context.Context, actor *models.User, banID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWrite(); err != nil {
		return err
	}
	if actor == nil || !actor.CanModerate() {
		return gateway.ErrForbidden
	}
	if _, ok := f.IPBans[banID]; !ok {
		return gateway.ErrNotFound
	}
	delete(f.IPBans, banID)
	return nil
}

func (f *Fake) IsIPBanned(_ context.Context, ip string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.IPBans {
		if b.IPAddress == ip {
			return true, nil
		}
	}
	return false, nil
}

func (f *Fake) CreateReport(_ context.Context, actor *models.User, report models.Report) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWrite(); err != nil {
		return nil, err
	}
	if actor == nil || actor.IsBanned() {
		return nil, gateway.ErrForbidden
	}
	report.ID = uuid.New()
	report.ReportedBy = actor.ID
	report.Status = models.ReportPending
	report.CreatedAt = time.Now()
	f.Reports[report.ID] = &report
	cp := report
	return &cp, nil
}

func (f *Fake) SetReportStatus(_ context.Context, actor *models.User, reportID uuid.UUID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWrite(); err != nil {
		return err
	}
	if actor == nil || !actor.CanModerate() {
		return gateway.ErrForbidden
	}
	r, ok := f.Reports[reportID]
	if !ok {
		return gateway.ErrNotFound
	}
	r.Status = status
	return nil
}

// --- Chat ---

func (f *Fake) ListPartners(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, m := range f.Messages {
		var partner uuid.UUID
		switch userID {
		case m.SenderID:
			partner = m.ReceiverID
		case m.ReceiverID:
			partner = m.SenderID
		default:
			continue
		}
		if _, ok := seen[partner]; !ok {
			seen[partner] = struct{}{}
			out = append(out, partner)
		}
	}
	return out, nil
}

func (f *Fake) ListConversation(_ context.Context, userID, partnerID uuid.UUID) ([]models.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ChatMessage
	for _, m := range f.Messages {
		if (m.SenderID == userID && m.ReceiverID == partnerID) ||
			(m.SenderID == partnerID && m.ReceiverID == userID) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *Fake) CreateMessage(_ context.Context, actor *models.User, receiverID uuid.UUID, content string, attachments []models.Attachment) (*models.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWrite(); err != nil {
		return nil, err
	}
	if actor == nil || actor.IsBanned() {
		return nil, gateway.ErrForbidden
	}
	if _, ok := f.Users[receiverID]; !ok {
		return nil, gateway.ErrNotFound
	}
	m := &models.ChatMessage{
		ID:         uuid.New(),
		SenderID:   actor.ID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now(),
	}
	if err := m.SetAttachments(attachments); err != nil {
		return nil, err
	}
	f.Messages[m.ID] = m
	cp := *m
	return &cp, nil
}

func (f *Fake) UpdateMessage(_ context.Context, actor *models.User, messageID uuid.UUID, content string, attachments []models.Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWrite(); err != nil {
		return err
	}
	m, ok := f.Messages[messageID]
	if !ok {
		return gateway.ErrNotFound
	}
	if actor == nil || m.SenderID != actor.ID {
		return gateway.ErrForbidden
	}
	m.Content = content
	m.IsEdited = true
	return m.SetAttachments(attachments)
}

func (f *Fake) DeleteMessage(_ context.Context, actor *models.User, messageID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWrite(); err != nil {
		return err
	}
	m, ok := f.Messages[messageID]
	if !ok {
		return gateway.ErrNotFound
	}
	if actor == nil || m.SenderID != actor.ID {
		return gateway.ErrForbidden
	}
	delete(f.Messages, messageID)
	return nil
}

func (f *Fake) ToggleReaction(_ context.Context, actor *models.User, messageID uuid.UUID, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failWrite(); err != nil {
		return err
	}
	m, ok := f.Messages[messageID]
	if !ok {
		return gateway.ErrNotFound
	}
	if actor == nil || (m.SenderID != actor.ID && m.ReceiverID != actor.ID) {
		return gateway.ErrForbidden
	}
	return m.ToggleReaction(emoji, actor.ID)
}

var _ gateway.Gateway = (*Fake)(nil)
