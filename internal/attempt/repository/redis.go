package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"staybook/authcore/internal/attempt/domain"
)

// redisKeepPerEmail caps the per-email list length. Lockout evaluation only
// ever reads the newest threshold records, so a small multiple is plenty.
const redisKeepPerEmail = 32

// RedisRepository keeps attempt history in capped per-email Redis lists. It is
// a hot-path alternative to Postgres for deployments that want lockout
// evaluation off the primary database; entries age out via key TTL, which
// stands in for the retention sweeper.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRepository returns an attempt repository over the given client.
// ttl bounds how long an idle email's history survives; it must be at least
// the lockout window or locks could vanish early.
func NewRedisRepository(client *redis.Client, ttl time.Duration) *RedisRepository {
	return &RedisRepository{client: client, ttl: ttl}
}

type redisRecord struct {
	Success   bool      `json:"success"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	At        time.Time `json:"at"`
}

func attemptKey(email string) string {
	return "authcore:attempts:" + email
}

// Append pushes one record onto the email's list, newest first, and trims the
// list to its cap.
func (r *RedisRepository) Append(ctx context.Context, rec *domain.Record) error {
	payload, err := json.Marshal(redisRecord{
		Success:   rec.Success,
		IP:        rec.IP,
		UserAgent: rec.UserAgent,
		At:        rec.At,
	})
	if err != nil {
		return err
	}
	key := attemptKey(rec.Email)
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, redisKeepPerEmail-1)
	pipe.Expire(ctx, key, r.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// RecentByEmail returns up to limit newest records for email, newest first.
func (r *RedisRepository) RecentByEmail(ctx context.Context, email string, limit int) ([]*domain.Record, error) {
	vals, err := r.client.LRange(ctx, attemptKey(email), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Record, 0, len(vals))
	for _, v := range vals {
		var rr redisRecord
		if err := json.Unmarshal([]byte(v), &rr); err != nil {
			return nil, err
		}
		out = append(out, &domain.Record{
			Email:     email,
			Success:   rr.Success,
			IP:        rr.IP,
			UserAgent: rr.UserAgent,
			At:        rr.At,
		})
	}
	return out, nil
}

// PruneBefore is a no-op: key TTL and list trimming already bound storage.
func (r *RedisRepository) PruneBefore(ctx context.Context, cutoff time.Time) error {
	return nil
}
