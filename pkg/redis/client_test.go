package redis

import (
	"testing"

	"github.com/nmoreau/galleria-backend/pkg/config"
)

func TestKeyBuilders(t *testing.T) {
	c := &Client{}

	if got := c.IdempotencyKey("stripe-webhook", "evt_1"); got != "gal:idempotency:stripe-webhook:evt_1" {
		t.Fatalf("unexpected idempotency key %q", got)
	}
	if got := c.CollectionCacheKey("user-1"); got != "gal:collection:user-1" {
		t.Fatalf("unexpected collection key %q", got)
	}
	if got := c.AccessSessionKey("jti-1"); got != "gal:session:access:jti-1" {
		t.Fatalf("unexpected session key %q", got)
	}
	if got := c.RateLimitKey("login:ip:1.2.3.4"); got != "gal:rate_limit:login:ip:1.2.3.4" {
		t.Fatalf("unexpected rate limit key %q", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error when neither url nor address set")
	}

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.DB != 2 {
		t.Fatalf("expected db 2 from url, got %d", opts.DB)
	}

	opts, err = optionsFromConfig(config.RedisConfig{Address: "localhost:6380", PoolSize: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.PoolSize != 5 {
		t.Fatalf("unexpected options %+v", opts)
	}
}
