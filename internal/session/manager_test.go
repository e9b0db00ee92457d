package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkboard/backend/internal/gateway"
	"github.com/talkboard/backend/internal/gatewaytest"
	"github.com/talkboard/backend/internal/models"
	"github.com/talkboard/backend/internal/moderation"
)

const testSecret = "test-secret-0123456789"

func newTestManager(t *testing.T) (*Manager, *gatewaytest.Fake) {
	t.Helper()
	fake := gatewaytest.New()
	gate := moderation.NewBanGate(nil, fake.IsIPBanned)
	return NewManager(fake, gate, testSecret, time.Hour), fake
}

func banIP(fake *gatewaytest.Fake, ip string) {
	ban := &models.IPBan{ID: uuid.New(), IPAddress: ip, Reason: "test", CreatedAt: time.Now()}
	fake.IPBans[ban.ID] = ban
}

func TestLoginIssuesSession(t *testing.T) {
	m, fake := newTestManager(t)
	u := fake.AddUser("alice", "alice@example.com", "pw12345678", models.RoleUser)

	token, sess, err := m.Login(context.Background(), "alice@example.com", "pw12345678", "198.51.100.4", "test-agent")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.Equal(t, u.ID, sess.Authenticated.ID)
	assert.Equal(t, u.ID, sess.Acting().ID)
	assert.False(t, sess.Impersonating())

	// The token's jti resolves back to the session.
	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	got, err := m.Get(claims["jti"].(string))
	require.NoError(t, err)
	assert.Same(t, sess, got)

	// Login leaves an audit trail and refreshes last_ip.
	require.Len(t, fake.UserIPs, 1)
	assert.Equal(t, "198.51.100.4", fake.UserIPs[0].IPAddress)
	assert.Equal(t, "198.51.100.4", fake.Users[u.ID].LastIP)
}

func TestLoginWrongPassword(t *testing.T) {
	m, fake := newTestManager(t)
	fake.AddUser("alice", "alice@example.com", "pw12345678", models.RoleUser)

	_, _, err := m.Login(context.Background(), "alice@example.com", "wrong", "198.51.100.4", "")
	assert.ErrorIs(t, err, gateway.ErrInvalidCredentials)
}

func TestBannedIPBlockedBeforeCredentialExchange(t *testing.T) {
	m, fake := newTestManager(t)
	fake.AddUser("alice", "alice@example.com", "pw12345678", models.RoleUser)
	banIP(fake, "203.0.113.9")

	_, _, err := m.Login(context.Background(), "alice@example.com", "pw12345678", "203.0.113.9", "")
	assert.ErrorIs(t, err, ErrIPBanned)
	assert.Zero(t, fake.AuthenticateCalls, "credentials must not be checked for a banned address")

	_, err = m.Signup(context.Background(), "bob", "bob@example.com", "pw12345678", "203.0.113.9")
	assert.ErrorIs(t, err, ErrIPBanned)

	// Another address passes the gate.
	_, _, err = m.Login(context.Background(), "alice@example.com", "pw12345678", "198.51.100.4", "")
	assert.NoError(t, err)
}

func TestSignupConfirmLogin(t *testing.T) {
	m, fake := newTestManager(t)

	u, err := m.Signup(context.Background(), "carol", "carol@example.com", "pw12345678", "198.51.100.4")
	require.NoError(t, err)

	// A fresh account cannot log in until the confirmation token from its
	// signup mail is redeemed.
	_, _, err = m.Login(context.Background(), "carol@example.com", "pw12345678", "198.51.100.4", "")
	assert.ErrorIs(t, err, gateway.ErrEmailUnconfirmed)

	token := fake.Users[u.ID].ConfirmToken
	require.NotEmpty(t, token)
	require.NoError(t, m.ConfirmEmail(context.Background(), token))

	_, sess, err := m.Login(context.Background(), "carol@example.com", "pw12345678", "198.51.100.4", "")
	require.NoError(t, err)
	assert.Equal(t, u.ID, sess.Authenticated.ID)

	// The token is single-use.
	assert.ErrorIs(t, m.ConfirmEmail(context.Background(), token), gateway.ErrNotFound)
	assert.ErrorIs(t, m.ConfirmEmail(context.Background(), ""), gateway.ErrNotFound)
}

func TestGateFailsOpen(t *testing.T) {
	fake := gatewaytest.New()
	fake.AddUser("alice", "alice@example.com", "pw12345678", models.RoleUser)
	gate := moderation.NewBanGate(nil, func(context.Context, string) (bool, error) {
		return false, context.DeadlineExceeded
	})
	m := NewManager(fake, gate, testSecret, time.Hour)

	_, _, err := m.Login(context.Background(), "alice@example.com", "pw12345678", "203.0.113.9", "")
	assert.NoError(t, err, "a failing ban lookup must not block login")
}

func TestImpersonation(t *testing.T) {
	m, fake := newTestManager(t)
	admin := fake.AddUser("admin", "admin@example.com", "pw12345678", models.RoleAdmin)
	alice := fake.AddUser("alice", "alice@example.com", "pw12345678", models.RoleUser)
	bob := fake.AddUser("bob", "bob@example.com", "pw12345678", models.RoleUser)

	_, sess, err := m.Login(context.Background(), "admin@example.com", "pw12345678", "198.51.100.4", "")
	require.NoError(t, err)

	sess, err = m.LoginAs(context.Background(), sess.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, sess.Impersonating())
	assert.Equal(t, alice.ID, sess.Acting().ID)
	assert.Equal(t, admin.ID, sess.Authenticated.ID)

	// Switching targets keeps the authenticated slot intact.
	sess, err = m.LoginAs(context.Background(), sess.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, sess.Acting().ID)
	assert.Equal(t, admin.ID, sess.Authenticated.ID)

	sess, err = m.Revert(sess.ID)
	require.NoError(t, err)
	assert.False(t, sess.Impersonating())
	assert.Equal(t, admin.ID, sess.Acting().ID)

	// Revert with nothing to revert is a no-op.
	sess, err = m.Revert(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, sess.Acting().ID)
}

func TestConcurrentImpersonationReads(t *testing.T) {
	m, fake := newTestManager(t)
	fake.AddUser("admin", "admin@example.com", "pw12345678", models.RoleAdmin)
	alice := fake.AddUser("alice", "alice@example.com", "pw12345678", models.RoleUser)

	_, sess, err := m.Login(context.Background(), "admin@example.com", "pw12345678", "198.51.100.4", "")
	require.NoError(t, err)

	// Middleware and handlers read the acting identity while an admin
	// switches targets on the same session. Run both sides at once so the
	// race detector can catch an unguarded acting slot.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_, err := m.LoginAs(context.Background(), sess.ID, alice.ID)
			assert.NoError(t, err)
			_, err = m.Revert(sess.ID)
			assert.NoError(t, err)
		}
	}()
	for {
		select {
		case <-done:
			assert.False(t, sess.Impersonating())
			return
		default:
			_ = sess.Impersonating()
			_ = sess.Acting().CanModerate()
		}
	}
}

func TestImpersonationRequiresAdmin(t *testing.T) {
	m, fake := newTestManager(t)
	fake.AddUser("mod", "mod@example.com", "pw12345678", models.RoleModerator)
	target := fake.AddUser("alice", "alice@example.com", "pw12345678", models.RoleUser)

	_, sess, err := m.Login(context.Background(), "mod@example.com", "pw12345678", "198.51.100.4", "")
	require.NoError(t, err)

	_, err = m.LoginAs(context.Background(), sess.ID, target.ID)
	assert.ErrorIs(t, err, gateway.ErrForbidden)
}

func TestLogout(t *testing.T) {
	m, fake := newTestManager(t)
	fake.AddUser("alice", "alice@example.com", "pw12345678", models.RoleUser)

	_, sess, err := m.Login(context.Background(), "alice@example.com", "pw12345678", "198.51.100.4", "")
	require.NoError(t, err)

	m.Logout(sess.ID)
	_, err = m.Get(sess.ID)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestUpdatePasswordTargetsAuthenticatedIdentity(t *testing.T) {
	m, fake := newTestManager(t)
	admin := fake.AddUser("admin", "admin@example.com", "pw12345678", models.RoleAdmin)
	alice := fake.AddUser("alice", "alice@example.com", "alicepw12345", models.RoleUser)

	_, sess, err := m.Login(context.Background(), "admin@example.com", "pw12345678", "198.51.100.4", "")
	require.NoError(t, err)

	_, err = m.LoginAs(context.Background(), sess.ID, alice.ID)
	require.NoError(t, err)

	require.NoError(t, m.UpdatePassword(context.Background(), sess.ID, "newadminpw123"))
	assert.Equal(t, "newadminpw123", fake.Passwords[admin.ID], "password change goes to the real account")
	assert.Equal(t, "alicepw12345", fake.Passwords[alice.ID], "impersonated profile untouched")
}
