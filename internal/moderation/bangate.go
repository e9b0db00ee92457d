package moderation

import (
	"context"
	"log/slog"

	"github.com/talkboard/backend/internal/cache"
)

// LookupFunc resolves IP-ban membership at the data layer. Used as the
// fallback when the Redis mirror is unavailable.
type LookupFunc func(ctx context.Context, ip string) (bool, error)

// BanGate rejects login and signup from banned network addresses before
// any credential exchange happens. It is a convenience filter, not a
// security boundary: the data layer enforces the same set on its own.
type BanGate struct {
	cache    *cache.Client
	fallback LookupFunc
}

func NewBanGate(c *cache.Client, fallback LookupFunc) *BanGate {
	return &BanGate{cache: c, fallback: fallback}
}

// Banned checks the address against the mirror, then the data layer. Any
// lookup failure leaves the gate open; an unknown address passes.
func (g *BanGate) Banned(ctx context.Context, ip string) bool {
	if g == nil || ip == "" {
		return false
	}
	if g.cache != nil {
		banned, err := g.cache.IsIPBanned(ctx, ip)
		if err == nil {
			return banned
		}
		slog.Warn("ip ban mirror unavailable, falling back", "error", err)
	}
	if g.fallback != nil {
		banned, err := g.fallback(ctx, ip)
		if err != nil {
			slog.Warn("ip ban lookup failed, gate stays open", "error", err)
			return false
		}
		return banned
	}
	return false
}

// Refresh replaces the mirror with the current ban list. Mirror errors
// are logged and swallowed; the fallback path keeps the gate correct.
func (g *BanGate) Refresh(ctx context.Context, ips []string) {
	if g == nil || g.cache == nil {
		return
	}
	if err := g.cache.ReplaceBanSet(ctx, ips); err != nil {
		slog.Warn("failed to refresh ip ban mirror", "error", err)
	}
}
