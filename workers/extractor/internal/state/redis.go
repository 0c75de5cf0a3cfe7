package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bingads-extractor/shared/config"
	"bingads-extractor/workers/extractor/internal/domain"
)

// RedisClient is the subset of the go-redis client the store uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisStore keeps one JSON document per configuration under
// {prefix}:state:{configID}.
type RedisStore struct {
	client RedisClient
	key    string
}

func NewRedisStore(client RedisClient, prefix, configID string) *RedisStore {
	return &RedisStore{client: client, key: fmt.Sprintf("%s:state:%s", prefix, configID)}
}

// NewRedisClient connects to the configured server and checks it is reachable.
func NewRedisClient(ctx context.Context, cfg config.StateConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", cfg.RedisAddr, err)
	}
	return client, nil
}

func (r *RedisStore) Key() string { return r.key }

// Load returns an empty state when the key does not exist.
func (r *RedisStore) Load(ctx context.Context) (State, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, nil
	}
	if err != nil {
		return State{}, domain.ErrStateLoadFailed.Wrap(err)
	}
	return decode(raw)
}

func (r *RedisStore) Save(ctx context.Context, s State) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return domain.ErrStateSaveFailed.Wrap(err)
	}
	if err := r.client.Set(ctx, r.key, raw, 0).Err(); err != nil {
		return domain.ErrStateSaveFailed.Wrap(err)
	}
	return nil
}
