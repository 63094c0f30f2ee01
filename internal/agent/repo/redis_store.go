package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/placefinder/server/internal/agent/model"
	errx "github.com/placefinder/server/internal/core/error"
	logx "github.com/placefinder/server/pkg/logger"
)

const (
	kindSearch  = "search"
	kindBooking = "booking"
)

// RedisStore keeps every record as a JSON string under <prefix>:<kind>:<key>.
type RedisStore struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
}

func NewRedisStore(rdb redis.Cmdable, ttl time.Duration, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (r *RedisStore) recordKey(kind, key string) string {
	if r.prefix == "" {
		return fmt.Sprintf("%s:%s", kind, key)
	}
	return fmt.Sprintf("%s:%s:%s", r.prefix, kind, key)
}

func (r *RedisStore) add(ctx context.Context, kind string, v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", kind, err)
	}
	for {
		key := uuid.NewString()
		ok, err := r.rdb.SetNX(ctx, r.recordKey(kind, key), b, r.ttl).Result()
		if err != nil {
			logx.Error().Err(err).Str("kind", kind).Msg("failed to add record to redis")
			return "", errx.WrapRedis(err)
		}
		if ok {
			return key, nil
		}
		logx.Warn().Str("kind", kind).Str("key", key).Msg("key collision, regenerating")
	}
}

func (r *RedisStore) update(ctx context.Context, kind, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	rk := r.recordKey(kind, key)
	// SET ... XX refreshes the TTL and never creates the key.
	err = r.rdb.SetArgs(ctx, rk, b, redis.SetArgs{Mode: "XX", TTL: r.ttl}).Err()
	if errors.Is(err, redis.Nil) {
		return errx.NotFound(kind, key)
	}
	if err != nil {
		logx.Error().Err(err).Str("key", rk).Msg("failed to update record in redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisStore) get(ctx context.Context, kind, key string, dst any) error {
	rk := r.recordKey(kind, key)
	s, err := r.rdb.Get(ctx, rk).Result()
	if errors.Is(err, redis.Nil) {
		return errx.NotFound(kind, key)
	}
	if err != nil {
		logx.Error().Err(err).Str("key", rk).Msg("failed to load record from redis")
		return errx.WrapRedis(err)
	}
	if err := json.Unmarshal([]byte(s), dst); err != nil {
		logx.Error().Err(err).Str("key", rk).Msg("failed to unmarshal record")
		return fmt.Errorf("unmarshal %s %s: %w", kind, key, err)
	}
	return nil
}

func (r *RedisStore) delete(ctx context.Context, kind, key string) error {
	rk := r.recordKey(kind, key)
	n, err := r.rdb.Del(ctx, rk).Result()
	if err != nil {
		logx.Error().Err(err).Str("key", rk).Msg("failed to delete record from redis")
		return errx.WrapRedis(err)
	}
	if n == 0 {
		return errx.NotFound(kind, key)
	}
	return nil
}

func (r *RedisStore) AddSearch(ctx context.Context, search *model.SearchData) (string, error) {
	return r.add(ctx, kindSearch, search)
}

func (r *RedisStore) UpdateSearch(ctx context.Context, key string, search *model.SearchData) error {
	return r.update(ctx, kindSearch, key, search)
}

func (r *RedisStore) GetSearch(ctx context.Context, key string) (*model.SearchData, error) {
	var s model.SearchData
	if err := r.get(ctx, kindSearch, key, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *RedisStore) DeleteSearch(ctx context.Context, key string) error {
	return r.delete(ctx, kindSearch, key)
}

func (r *RedisStore) AddBooking(ctx context.Context, booking *model.BookingData) (string, error) {
	return r.add(ctx, kindBooking, booking)
}

func (r *RedisStore) UpdateBooking(ctx context.Context, key string, booking *model.BookingData) error {
	return r.update(ctx, kindBooking, key, booking)
}

func (r *RedisStore) GetBooking(ctx context.Context, key string) (*model.BookingData, error) {
	var b model.BookingData
	if err := r.get(ctx, kindBooking, key, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *RedisStore) DeleteBooking(ctx context.Context, key string) error {
	return r.delete(ctx, kindBooking, key)
}

var _ model.Store = (*RedisStore)(nil)
