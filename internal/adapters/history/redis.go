package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/poyrazK/dnsq/internal/core/domain"
)

const (
	HistoryKey = "dnsq:history"

	// DefaultLimit caps the number of lookups kept in the list.
	DefaultLimit = 100
)

// RedisHistory keeps the most recent lookups in a capped Redis list,
// newest first.
type RedisHistory struct {
	client *redis.Client
	limit  int64
}

func NewRedisHistory(addr string, password string, db int) *RedisHistory {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisHistory{client: rdb, limit: DefaultLimit}
}

// WithLimit changes how many entries are retained.
func (r *RedisHistory) WithLimit(n int64) *RedisHistory {
	if n > 0 {
		r.limit = n
	}
	return r
}

func (r *RedisHistory) Record(ctx context.Context, result *domain.LookupResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, HistoryKey, data)
	pipe.LTrim(ctx, HistoryKey, 0, r.limit-1)
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns up to n entries, newest first.
func (r *RedisHistory) Recent(ctx context.Context, n int64) ([]domain.LookupResult, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := r.client.LRange(ctx, HistoryKey, 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.LookupResult, 0, len(raw))
	for i, item := range raw {
		var res domain.LookupResult
		if err := json.Unmarshal([]byte(item), &res); err != nil {
			return nil, fmt.Errorf("history entry %d: %w", i, err)
		}
		out = append(out, res)
	}
	return out, nil
}

func (r *RedisHistory) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisHistory) Close() error {
	return r.client.Close()
}
