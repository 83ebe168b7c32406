package notify

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRedis_UnreachableServer(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	defer func() { _ = rdb.Close() }()

	s := NewRedis(rdb, time.Hour)
	if err := s.Notify(context.Background(), sample()); err == nil {
		t.Fatal("expected error from unreachable redis")
	}
	if _, _, err := s.Status(context.Background(), "ORD-1A2B3C4D"); err == nil {
		t.Fatal("expected error from unreachable redis")
	}
}
