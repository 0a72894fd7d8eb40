package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
)

type RedisConfig struct {
	Addr     string        `split_words:"true" default:"localhost:6379"`
	Password string        `split_words:"true"`
	DB       int           `envconfig:"DB" default:"0"`
	Timeout  time.Duration `split_words:"true" default:"5s"`
}

// RedisStore is the ConversationStore for a self-hosted Redis.
type RedisStore struct {
	client *redis.Client
	opts   storeOptions
}

var _ contractx.ConversationStore = (*RedisStore)(nil)

// NewRedisStore pings the server before returning.
func NewRedisStore(ctx context.Context, cfg RedisConfig, opts ...StoreOption) (*RedisStore, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	store, err := NewRedisStoreFromClient(client, opts...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return store, nil
}

func NewRedisStoreFromClient(client *redis.Client, opts ...StoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &RedisStore{client: client, opts: o}, nil
}

func (s *RedisStore) Append(ctx context.Context, conversationID string, msgs ...contractx.ConversationMessage) error {
	key, err := conversationKey(s.opts.keyPrefix, conversationID)
	if err != nil {
		return err
	}
	items, err := encodeMessages(msgs)
	if err != nil {
		return err
	}
	values := make([]interface{}, 0, len(items))
	for _, item := range items {
		values = append(values, item)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	if s.opts.maxMessages > 0 {
		pipe.LTrim(ctx, key, int64(-s.opts.maxMessages), -1)
	}
	if s.opts.ttl > 0 {
		pipe.Expire(ctx, key, s.opts.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append conversation %s: %w", conversationID, err)
	}
	return nil
}

func (s *RedisStore) Read(ctx context.Context, conversationID string) ([]contractx.ConversationMessage, error) {
	key, err := conversationKey(s.opts.keyPrefix, conversationID)
	if err != nil {
		return nil, err
	}
	items, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []contractx.ConversationMessage{}, nil
		}
		return nil, fmt.Errorf("read conversation %s: %w", conversationID, err)
	}
	return decodeMessages(items)
}

func (s *RedisStore) Delete(ctx context.Context, conversationID string) error {
	key, err := conversationKey(s.opts.keyPrefix, conversationID)
	if err != nil {
		return err
	}
	return s.client.Del(ctx, key).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
