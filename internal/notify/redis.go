package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyOrderStatus is the cache key for an order's last known status.
const KeyOrderStatus = "order_status:%s"

// Redis caches the latest status of every order.
type Redis struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedisClient dials addr lazily, as go-redis does.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func NewRedis(rdb redis.Cmdable, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

type cachedStatus struct {
	State     string    `json:"status"`
	Message   string    `json:"message"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Redis) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(cachedStatus{State: n.State, Message: n.Message, UpdatedAt: n.At})
	if err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}
	if err := s.rdb.Set(ctx, fmt.Sprintf(KeyOrderStatus, n.OrderID), body, s.ttl).Err(); err != nil {
		return fmt.Errorf("caching status for %s: %w", n.OrderID, err)
	}
	return nil
}

// Status reads a cached status back. ok is false on a cache miss.
func (s *Redis) Status(ctx context.Context, orderID string) (state string, ok bool, err error) {
	raw, err := s.rdb.Get(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Bytes()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	var cs cachedStatus
	if err := json.Unmarshal(raw, &cs); err != nil {
		return "", false, fmt.Errorf("decoding status: %w", err)
	}
	return cs.State, true, nil
}
