package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist records revoked bearer tokens in Redis until they would have
// expired anyway. A nil Denylist is valid and means logout is best-effort:
// nothing is recorded and no token is ever reported revoked.
type Denylist struct {
	rdb *redis.Client
}

func NewDenylist(rdb *redis.Client) *Denylist {
	return &Denylist{rdb: rdb}
}

// Revoke marks a token as unusable for its remaining lifetime.
func (d *Denylist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if d == nil || d.rdb == nil || ttl <= 0 {
		return nil
	}
	return d.rdb.Set(ctx, "revoked:"+token, "1", ttl).Err()
}

// Revoked reports whether a token has been logged out.
func (d *Denylist) Revoked(ctx context.Context, token string) (bool, error) {
	if d == nil || d.rdb == nil {
		return false, nil
	}
	_, err := d.rdb.Get(ctx, "revoked:"+token).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
