// Package session holds the identity state of logged-in clients: who
// authenticated, who they are currently acting as, and the token that
// binds the two. Sessions live in memory and die with the process;
// clients re-login on restart.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/talkboard/backend/internal/gateway"
	"github.com/talkboard/backend/internal/models"
	"github.com/talkboard/backend/internal/moderation"
)

var (
	// ErrIPBanned rejects login and signup from a banned address. It is
	// returned before any credential exchange happens.
	ErrIPBanned = errors.New("network address is banned")

	// ErrNoSession means the token's session is gone, usually after a
	// restart or an explicit logout.
	ErrNoSession = errors.New("session not found")
)

// Session is one logged-in client. Authenticated never changes for the
// lifetime of the session; the acting identity starts equal to it and
// moves only through LoginAs and Revert. Handlers read the acting slot
// concurrently with those calls, so it is guarded by the session's own
// lock and only reachable through Acting.
type Session struct {
	ID            string
	Authenticated *models.User
	ClientIP      string
	CreatedAt     time.Time

	mu     sync.RWMutex
	acting *models.User
}

// Acting returns the identity the session currently acts as.
func (s *Session) Acting() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.acting
}

// Impersonating reports whether the session is acting as someone other
// than the authenticated identity.
func (s *Session) Impersonating() bool {
	return s.Acting().ID != s.Authenticated.ID
}

// Manager owns the session registry, keyed by JWT ID.
type Manager struct {
	gw     gateway.Gateway
	gate   *moderation.BanGate
	secret []byte
	expiry time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(gw gateway.Gateway, gate *moderation.BanGate, secret string, expiry time.Duration) *Manager {
	return &Manager{
		gw:       gw,
		gate:     gate,
		secret:   []byte(secret),
		expiry:   expiry,
		sessions: make(map[string]*Session),
	}
}

// Login runs the ban gate, then exchanges credentials, then issues the
// token. The gate runs first so a banned address never reaches the
// credential check.
func (m *Manager) Login(ctx context.Context, email, password, ip, userAgent string) (string, *Session, error) {
	if m.gate.Banned(ctx, ip) {
		return "", nil, ErrIPBanned
	}

	u, err := m.gw.Authenticate(ctx, email, password)
	if err != nil {
		return "", nil, err
	}

	if err := m.gw.LogUserIP(ctx, u.ID, ip, userAgent); err != nil {
		slog.Warn("login audit entry failed", "user_id", u.ID.String(), "error", err)
	}
	if ip != "" && u.LastIP != ip {
		if err := m.gw.UpdateLastIP(ctx, u.ID, ip); err != nil {
			slog.Warn("last_ip update failed", "user_id", u.ID.String(), "error", err)
		} else {
			u.LastIP = ip
		}
	}

	jti := uuid.NewString()
	token, err := m.issueToken(u, jti)
	if err != nil {
		return "", nil, err
	}

	sess := &Session{
		ID:            jti,
		Authenticated: u,
		acting:        u,
		ClientIP:      ip,
		CreatedAt:     time.Now(),
	}
	m.mu.Lock()
	m.sessions[jti] = sess
	m.mu.Unlock()

	slog.Info("login", "user_id", u.ID.String(), "role", u.Role)
	return token, sess, nil
}

// Signup also runs the ban gate first. A new account starts unconfirmed
// and does not get a session; the client logs in after confirming.
func (m *Manager) Signup(ctx context.Context, username, email, password, ip string) (*models.User, error) {
	if m.gate.Banned(ctx, ip) {
		return nil, ErrIPBanned
	}
	u, err := m.gw.CreateAccount(ctx, username, email, password)
	if err != nil {
		return nil, err
	}
	slog.Info("account created", "user_id", u.ID.String())
	return u, nil
}

func (m *Manager) Logout(jti string) {
	m.mu.Lock()
	delete(m.sessions, jti)
	m.mu.Unlock()
}

// Get resolves a token ID to its session.
func (m *Manager) Get(jti string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[jti]
	if !ok {
		return nil, ErrNoSession
	}
	return sess, nil
}

// LoginAs switches the acting identity to the target profile. Only an
// authenticated admin may impersonate. Calling it again while already
// impersonating just switches targets; the authenticated slot is never
// overwritten, so Revert always lands back on the real admin.
func (m *Manager) LoginAs(ctx context.Context, jti string, targetID uuid.UUID) (*Session, error) {
	sess, err := m.Get(jti)
	if err != nil {
		return nil, err
	}
	if !sess.Authenticated.IsAdmin() {
		return nil, gateway.ErrForbidden
	}
	target, err := m.gw.GetUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	sess.acting = target
	sess.mu.Unlock()

	slog.Info("impersonation started",
		"admin_id", sess.Authenticated.ID.String(),
		"target_id", target.ID.String())
	return sess, nil
}

// Revert restores the acting identity to the authenticated one. A no-op
// when the session is not impersonating.
func (m *Manager) Revert(jti string) (*Session, error) {
	sess, err := m.Get(jti)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	if sess.acting.ID != sess.Authenticated.ID {
		slog.Info("impersonation ended",
			"admin_id", sess.Authenticated.ID.String(),
			"target_id", sess.acting.ID.String())
		sess.acting = sess.Authenticated
	}
	sess.mu.Unlock()
	return sess, nil
}

// ConfirmEmail redeems a signup confirmation token, after which the
// account can log in.
func (m *Manager) ConfirmEmail(ctx context.Context, token string) error {
	return m.gw.ConfirmEmail(ctx, token)
}

func (m *Manager) ResetPassword(ctx context.Context, email string) error {
	return m.gw.ResetPassword(ctx, email)
}

// UpdatePassword changes the password of the authenticated identity.
// During impersonation this is still the real admin's account, never the
// impersonated profile's.
func (m *Manager) UpdatePassword(ctx context.Context, jti, newPassword string) error {
	sess, err := m.Get(jti)
	if err != nil {
		return err
	}
	return m.gw.UpdatePassword(ctx, sess.Authenticated.ID, newPassword)
}

func (m *Manager) issueToken(u *models.User, jti string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  u.ID.String(),
		"jti":  jti,
		"role": u.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(m.expiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}
