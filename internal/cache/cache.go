package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/talkboard/backend/internal/config"
)

const (
	banSetKey       = "talkboard:ipban:set"
	unreadKeyPrefix = "talkboard:unread:"
	unreadTTL       = 7 * 24 * time.Hour
)

// Client wraps the Redis connection used for the IP-ban set mirror and
// unread direct-message counters. All methods are safe on a nil receiver
// so the service degrades when Redis is not configured.
type Client struct {
	rdb *redis.Client
}

func Connect(cfg *config.Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     10,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return redis.ErrClosed
	}
	return c.rdb.Ping(ctx).Err()
}

// --- IP-ban set mirror ---

// IsIPBanned checks set membership. The error lets callers fall back to
// the data layer when the mirror is unavailable.
func (c *Client) IsIPBanned(ctx context.Context, ip string) (bool, error) {
	if c == nil || c.rdb == nil {
		return false, redis.ErrClosed
	}
	return c.rdb.SIsMember(ctx, banSetKey, ip).Result()
}

// ReplaceBanSet swaps the mirror for the given address list atomically.
func (c *Client) ReplaceBanSet(ctx context.Context, ips []string) error {
	if c == nil || c.rdb == nil {
		return redis.ErrClosed
	}
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, banSetKey)
	if len(ips) > 0 {
		members := make([]interface{}, len(ips))
		for i, ip := range ips {
			members[i] = ip
		}
		pipe.SAdd(ctx, banSetKey, members...)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// --- Unread DM counters ---

func unreadKey(userID, partnerID uuid.UUID) string {
	return unreadKeyPrefix + userID.String() + ":" + partnerID.String()
}

// IncrementUnread bumps the receiver's unread counter for the sender.
func (c *Client) IncrementUnread(ctx context.Context, receiverID, senderID uuid.UUID) error {
	if c == nil || c.rdb == nil {
		return redis.ErrClosed
	}
	key := unreadKey(receiverID, senderID)
	if err := c.rdb.Incr(ctx, key).Err(); err != nil {
		return err
	}
	return c.rdb.Expire(ctx, key, unreadTTL).Err()
}

// ClearUnread resets the counter once the conversation has been read.
func (c *Client) ClearUnread(ctx context.Context, userID, partnerID uuid.UUID) error {
	if c == nil || c.rdb == nil {
		return redis.ErrClosed
	}
	return c.rdb.Del(ctx, unreadKey(userID, partnerID)).Err()
}

// UnreadCount returns the pending count for one conversation.
func (c *Client) UnreadCount(ctx context.Context, userID, partnerID uuid.UUID) (int64, error) {
	if c == nil || c.rdb == nil {
		return 0, redis.ErrClosed
	}
	n, err := c.rdb.Get(ctx, unreadKey(userID, partnerID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
