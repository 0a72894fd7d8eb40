package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
)

func TestNewRedisStoreFromClientRequiresClient(t *testing.T) {
	t.Parallel()

	if _, err := NewRedisStoreFromClient(nil); err == nil {
		t.Fatal("expected error for nil client")
	}
}

func TestNewRedisStoreUnreachable(t *testing.T) {
	t.Parallel()

	_, err := NewRedisStore(context.Background(), RedisConfig{Addr: "127.0.0.1:1", Timeout: 200 * time.Millisecond})
	if err == nil {
		t.Fatal("expected connection error")
	}
}

func TestRedisStoreValidatesBeforeNetwork(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewRedisStoreFromClient(client, WithKeyPrefix("test:"))
	if err != nil {
		t.Fatalf("NewRedisStoreFromClient() error = %v", err)
	}

	if err := store.Append(context.Background(), " ", contractx.ConversationMessage{Role: contractx.RoleUser}); !errors.Is(err, ErrInvalidConversation) {
		t.Fatalf("Append() error = %v, want ErrInvalidConversation", err)
	}
	if err := store.Append(context.Background(), "c1"); !errors.Is(err, ErrNoMessages) {
		t.Fatalf("Append() error = %v, want ErrNoMessages", err)
	}
	if _, err := store.Read(context.Background(), ""); !errors.Is(err, ErrInvalidConversation) {
		t.Fatalf("Read() error = %v, want ErrInvalidConversation", err)
	}
	if _, err := store.Read(context.Background(), "c1"); err == nil {
		t.Fatal("expected network error from unreachable redis")
	}
}
