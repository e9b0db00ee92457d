package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/talkboard/backend/internal/models"
	"github.com/talkboard/backend/internal/moderation"
)

// GormGateway implements Gateway on a Postgres connection.
type GormGateway struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *GormGateway {
	return &GormGateway{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (g *GormGateway) user(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := g.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// --- Auth ---

// Authenticate exchanges credentials for a profile. A ban that has lapsed
// is lifted here, on the first login after its expiry.
func (g *GormGateway) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var u models.User
	if err := g.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.EmailConfirmed {
		return nil, ErrEmailUnconfirmed
	}
	if u.IsBanned() && moderation.BanExpired(u.BanExpires, time.Now()) {
		updates := map[string]interface{}{"status": models.StatusActive, "ban_reason": "", "ban_expires": ""}
		if err := g.db.WithContext(ctx).Model(&u).Updates(updates).Error; err != nil {
			return nil, err
		}
		u.Status = models.StatusActive
		u.BanReason = ""
		u.BanExpires = ""
	}
	u.Normalize()
	return &u, nil
}

func (g *GormGateway) CreateAccount(ctx context.Context, username, email, password string) (*models.User, error) {
	var count int64
	if err := g.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}
	if err := g.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := models.User{
		Username:     username,
		DisplayName:  username,
		Email:        email,
		Password:     string(hash),
		Role:         models.RoleUser,
		Status:       models.StatusActive,
		ConfirmToken: uuid.NewString(),
	}
	if err := g.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, err
	}
	u.Normalize()
	return &u, nil
}

// ConfirmEmail marks the account behind a confirmation token as confirmed
// and burns the token. An unknown or already-used token is ErrNotFound.
func (g *GormGateway) ConfirmEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrNotFound
	}
	res := g.db.WithContext(ctx).Model(&models.User{}).
		Where("confirm_token = ? AND confirm_token <> ''", token).
		Updates(map[string]interface{}{
			"email_confirmed": true,
			"confirm_token":   "",
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetPassword acknowledges a reset request for an existing profile.
// Sending the reset mail is outside this service; the request is only
// logged so support can act on it.
func (g *GormGateway) ResetPassword(ctx context.Context, email string) error {
	var u models.User
	if err := g.db.WithContext(ctx).Select("id").First(&u, "email = ?", email).Error; err != nil {
		return notFound(err)
	}
	slog.Info("password reset queued", "user_id", u.ID.String())
	return nil
}

func (g *GormGateway) UpdatePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	res := g.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("password", string(hash))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *GormGateway) LogUserIP(ctx context.Context, userID uuid.UUID, ip, userAgent string) error {
	entry := models.UserIP{UserID: userID, IPAddress: ip, UserAgent: userAgent}
	return g.db.WithContext(ctx).Create(&entry).Error
}

func (g *GormGateway) UpdateLastIP(ctx context.Context, userID uuid.UUID, ip string) error {
	return g.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("last_ip", ip).Error
}

// --- Reader ---

func (g *GormGateway) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := g.db.WithContext(ctx).Order("created_at asc").Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Normalize()
	}
	return users, nil
}

func (g *GormGateway) ListThreads(ctx context.Context) ([]models.Thread, error) {
	var threads []models.Thread
	err := g.db.WithContext(ctx).Order("is_pinned desc, created_at desc").Find(&threads).Error
	return threads, err
}

func (g *GormGateway) ListPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	err := g.db.WithContext(ctx).Order("created_at asc").Find(&posts).Error
	return posts, err
}

func (g *GormGateway) ListReports(ctx context.Context) ([]models.Report, error) {
	var reports []models.Report
	err := g.db.WithContext(ctx).Order("created_at desc").Find(&reports).Error
	return reports, err
}

func (g *GormGateway) ListIPBans(ctx context.Context) ([]models.IPBan, error) {
	var bans []models.IPBan
	err := g.db.WithContext(ctx).Order("created_at desc").Find(&bans).Error
	return bans, err
}

func (g *GormGateway) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := g.user(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Normalize()
	return u, nil
}

// --- Forum ---

func (g *GormGateway) CreateThread(ctx context.Context, actor *models.User, categoryID, title, content string) (*models.Thread, error) {
	if actor == nil || actor.IsBanned() {
		return nil, ErrForbidden
	}
	t := models.Thread{
		CategoryID: categoryID,
		AuthorID:   actor.ID,
		AuthorName: authorName(actor),
		Title:      title,
		Content:    content,
		LikedBy:    pq.StringArray{},
	}
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&t).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", actor.ID).
			Update("post_count", gorm.Expr("post_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (g *GormGateway) DeleteThread(ctx context.Context, actor *models.User, threadID uuid.UUID) error {
	if actor == nil {
		return ErrForbidden
	}
	var t models.Thread
	if err := g.db.WithContext(ctx).First(&t, "id = ?", threadID).Error; err != nil {
		return notFound(err)
	}
	if t.AuthorID != actor.ID && !actor.CanModerate() {
		return ErrForbidden
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("thread_id = ?", threadID).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		return tx.Delete(&t).Error
	})
}

func (g *GormGateway) CreatePost(ctx context.Context, actor *models.User, threadID uuid.UUID, content string) (*models.Post, error) {
	if actor == nil || actor.IsBanned() {
		return nil, ErrForbidden
	}
	var t models.Thread
	if err := g.db.WithContext(ctx).First(&t, "id = ?", threadID).Error; err != nil {
		return nil, notFound(err)
	}
	if t.IsLocked && !actor.CanModerate() {
		return nil, ErrThreadLocked
	}
	p := models.Post{
		ThreadID:   threadID,
		AuthorID:   actor.ID,
		AuthorName: authorName(actor),
		Content:    content,
		LikedBy:    pq.StringArray{},
	}
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Thread{}).Where("id = ?", threadID).
			Update("reply_count", gorm.Expr("reply_count + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", actor.ID).
			Update("post_count", gorm.Expr("post_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (g *GormGateway) UpdatePost(ctx context.Context, actor *models.User, postID uuid.UUID, content string) error {
	if actor == nil {
		return ErrForbidden
	}
	var p models.Post
	if err := g.db.WithContext(ctx).First(&p, "id = ?", postID).Error; err != nil {
		return notFound(err)
	}
	if p.AuthorID != actor.ID && !actor.CanModerate() {
		return ErrForbidden
	}
	return g.db.WithContext(ctx).Model(&p).Update("content", content).Error
}

func (g *GormGateway) DeletePost(ctx context.Context, actor *models.User, postID uuid.UUID) error {
	if actor == nil {
		return ErrForbidden
	}
	var p models.Post
	if err := g.db.WithContext(ctx).First(&p, "id = ?", postID).Error; err != nil {
		return notFound(err)
	}
	if p.AuthorID != actor.ID && !actor.CanModerate() {
		return ErrForbidden
	}
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&p).Error; err != nil {
			return err
		}
		return tx.Model(&models.Thread{}).Where("id = ? AND reply_count > 0", p.ThreadID).
			Update("reply_count", gorm.Expr("reply_count - 1")).Error
	})
}

// SetThreadLikes writes the liked_by set and its length in one statement
// so the like count can never drift from the set.
func (g *GormGateway) SetThreadLikes(ctx context.Context, actor *models.User, threadID uuid.UUID, likedBy []string) error {
	if actor == nil || actor.IsBanned() {
		return ErrForbidden
	}
	res := g.db.WithContext(ctx).Model(&models.Thread{}).Where("id = ?", threadID).
		Updates(map[string]interface{}{
			"liked_by": pq.StringArray(likedBy),
			"likes":    len(likedBy),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *GormGateway) SetPostLikes(ctx context.Context, actor *models.User, postID uuid.UUID, likedBy []string) error {
	if actor == nil || actor.IsBanned() {
		return ErrForbidden
	}
	res := g.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", postID).
		Updates(map[string]interface{}{
			"liked_by": pq.StringArray(likedBy),
			"likes":    len(likedBy),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *GormGateway) SetThreadPinned(ctx context.Context, actor *models.User, threadID uuid.UUID, pinned bool) error {
	if actor == nil || !actor.CanModerate() {
		return ErrForbidden
	}
	res := g.db.WithContext(ctx).Model(&models.Thread{}).Where("id = ?", threadID).Update("is_pinned", pinned)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *GormGateway) SetThreadLocked(ctx context.Context, actor *models.User, threadID uuid.UUID, locked bool) error {
	if actor == nil || !actor.CanModerate() {
		return ErrForbidden
	}
	res := g.db.WithContext(ctx).Model(&models.Thread{}).Where("id = ?", threadID).Update("is_locked", locked)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *GormGateway) IncrementThreadView(ctx context.Context, threadID uuid.UUID) error {
	res := g.db.WithContext(ctx).Model(&models.Thread{}).Where("id = ?", threadID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProfile applies a partial update. Only explicitly present fields
// reach storage; absent fields are never overwritten with defaults.
func (g *GormGateway) UpdateProfile(ctx context.Context, actor *models.User, userID uuid.UUID, fields map[string]interface{}) error {
	if actor == nil {
		return ErrForbidden
	}
	if actor.ID != userID && !actor.CanModerate() {
		return ErrForbidden
	}
	if _, ok := fields["role"]; ok && !actor.IsAdmin() {
		return ErrForbidden
	}
	if len(fields) == 0 {
		return nil
	}
	res := g.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Moderation ---

func (g *GormGateway) BanUser(ctx context.Context, actor *models.User, targetID uuid.UUID, reason, duration string, ipBan bool) error {
	if actor == nil || !actor.CanModerate() {
		return ErrForbidden
	}
	target, err := g.user(ctx, targetID)
	if err != nil {
		return err
	}
	if target.IsProtected {
		return ErrProtectedUser
	}
	if target.IsAdmin() {
		return ErrForbidden
	}
	if target.CanModerate() && !actor.IsAdmin() {
		return ErrForbidden
	}

	expiry, err := moderation.ComputeBanExpiry(duration, time.Now())
	if err != nil {
		return fmt.Errorf("ban %s: %w", targetID, err)
	}
	if err := target.AppendPunishment(models.Punishment{
		Type:     "ban",
		Reason:   reason,
		IssuedBy: actor.Username,
		IssuedAt: time.Now().UTC(),
	}); err != nil {
		return err
	}

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":      models.StatusBanned,
			"ban_reason":  reason,
			"ban_expires": expiry,
			"punishments": target.Punishments,
		}
		if err := tx.Model(&models.User{}).Where("id = ?", targetID).Updates(updates).Error; err != nil {
			return err
		}
		if ipBan && target.LastIP != "" {
			ban := models.IPBan{IPAddress: target.LastIP, Reason: reason, BannedBy: actor.ID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ban).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (g *GormGateway) UnbanUser(ctx context.Context, actor *models.User, targetID uuid.UUID) error {
	if actor == nil || !actor.CanModerate() {
		return ErrForbidden
	}
	updates := map[string]interface{}{
		"status":      models.StatusActive,
		"ban_reason":  "",
		"ban_expires": "",
	}
	res := g.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", targetID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *GormGateway) WarnUser(ctx context.Context, actor *models.User, targetID uuid.UUID, reason string) error {
	if actor == nil || !actor.CanModerate() {
		return ErrForbidden
	}
	target, err := g.user(ctx, targetID)
	if err != nil {
		return err
	}
	if target.IsProtected {
		return ErrProtectedUser
	}
	if err := target.AppendPunishment(models.Punishment{
		Type:     "warning",
		Reason:   reason,
		IssuedBy: actor.Username,
		IssuedAt: time.Now().UTC(),
	}); err != nil {
		return err
	}
	updates := map[string]interface{}{"punishments": target.Punishments}
	if !target.IsBanned() {
		updates["status"] = models.StatusWarned
	}
	return g.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", targetID).Updates(updates).Error
}

func (g *GormGateway) SetProtected(ctx context.Context, actor *models.User, targetID uuid.UUID, protected bool) error {
	if actor == nil || !actor.IsAdmin() {
		return ErrForbidden
	}
	res := g.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", targetID).Update("is_protected", protected)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *GormGateway) UpdateNotes(ctx context.Context, actor *models.User, targetID uuid.UUID, notes string) error {
	if actor == nil || !actor.CanModerate() {
		return ErrForbidden
	}
	res := g.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", targetID).Update("notes", notes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *GormGateway) DeleteIPBan(ctx context.Context, actor *models.User, banID uuid.UUID) error {
	if actor == nil || !actor.CanModerate() {
		return ErrForbidden
	}
	res := g.db.WithContext(ctx).Delete(&models.IPBan{}, "id = ?", banID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (g *GormGateway) IsIPBanned(ctx context.Context, ip string) (bool, error) {
	if ip == "" {
		return false, nil
	}
	var count int64
	err := g.db.WithContext(ctx).Model(&models.IPBan{}).Where("ip_address = ?", ip).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (g *GormGateway) CreateReport(ctx context.Context, actor *models.User, report models.Report) (*models.Report, error) {
	if actor == nil || actor.IsBanned() {
		return nil, ErrForbidden
	}
	report.ID = uuid.Nil
	report.ReportedBy = actor.ID
	report.Status = models.ReportPending
	if err := g.db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (g *GormGateway) SetReportStatus(ctx context.Context, actor *models.User, reportID uuid.UUID, status string) error {
	if actor == nil || !actor.CanModerate() {
		return ErrForbidden
	}
	switch status {
	case models.ReportPending, models.ReportResolved, models.ReportDismissed:
	default:
		return fmt.Errorf("invalid report status %q", status)
	}
	res := g.db.WithContext(ctx).Model(&models.Report{}).Where("id = ?", reportID).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Chat ---

func (g *GormGateway) ListPartners(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := g.db.WithContext(ctx).Raw(`
		SELECT DISTINCT CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END
		FROM messages
		WHERE deleted_at IS NULL AND (sender_id = ? OR receiver_id = ?)`,
		userID, userID, userID).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (g *GormGateway) ListConversation(ctx context.Context, userID, partnerID uuid.UUID) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := g.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, partnerID, partnerID, userID).
		Order("created_at asc").
		Find(&msgs).Error
	return msgs, err
}

func (g *GormGateway) CreateMessage(ctx context.Context, actor *models.User, receiverID uuid.UUID, content string, attachments []models.Attachment) (*models.ChatMessage, error) {
	if actor == nil || actor.IsBanned() {
		return nil, ErrForbidden
	}
	if _, err := g.user(ctx, receiverID); err != nil {
		return nil, err
	}
	msg := models.ChatMessage{
		SenderID:   actor.ID,
		ReceiverID: receiverID,
		Content:    content,
	}
	if err := msg.SetAttachments(attachments); err != nil {
		return nil, err
	}
	if err := g.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (g *GormGateway) UpdateMessage(ctx context.Context, actor *models.User, messageID uuid.UUID, content string, attachments []models.Attachment) error {
	if actor == nil {
		return ErrForbidden
	}
	var msg models.ChatMessage
	if err := g.db.WithContext(ctx).First(&msg, "id = ?", messageID).Error; err != nil {
		return notFound(err)
	}
	if msg.SenderID != actor.ID {
		return ErrForbidden
	}
	if err := msg.SetAttachments(attachments); err != nil {
		return err
	}
	updates := map[string]interface{}{
		"content":     content,
		"attachments": msg.Attachments,
		"is_edited":   true,
	}
	return g.db.WithContext(ctx).Model(&msg).Updates(updates).Error
}

func (g *GormGateway) DeleteMessage(ctx context.Context, actor *models.User, messageID uuid.UUID) error {
	if actor == nil {
		return ErrForbidden
	}
	var msg models.ChatMessage
	if err := g.db.WithContext(ctx).First(&msg, "id = ?", messageID).Error; err != nil {
		return notFound(err)
	}
	if msg.SenderID != actor.ID {
		return ErrForbidden
	}
	return g.db.WithContext(ctx).Delete(&msg).Error
}

func (g *GormGateway) ToggleReaction(ctx context.Context, actor *models.User, messageID uuid.UUID, emoji string) error {
	if actor == nil {
		return ErrForbidden
	}
	var msg models.ChatMessage
	if err := g.db.WithContext(ctx).First(&msg, "id = ?", messageID).Error; err != nil {
		return notFound(err)
	}
	if msg.SenderID != actor.ID && msg.ReceiverID != actor.ID {
		return ErrForbidden
	}
	if err := msg.ToggleReaction(emoji, actor.ID); err != nil {
		return err
	}
	return g.db.WithContext(ctx).Model(&msg).Update("reactions", msg.Reactions).Error
}

func authorName(u *models.User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

var _ Gateway = (*GormGateway)(nil)
