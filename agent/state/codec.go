package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
)

var (
	ErrInvalidConversation = errors.New("conversation id is empty")
	ErrNoMessages          = errors.New("no messages to append")
)

const (
	defaultStoreKeyPrefix = "talent:conversation:"
	defaultStoreTTL       = 7 * 24 * time.Hour
	defaultMaxMessages    = 200
)

func conversationKey(prefix, conversationID string) (string, error) {
	id := strings.TrimSpace(conversationID)
	if id == "" {
		return "", ErrInvalidConversation
	}
	return strings.TrimSpace(prefix) + id, nil
}

// encodeMessages renders each message as one list element.
func encodeMessages(msgs []contractx.ConversationMessage) ([]string, error) {
	if len(msgs) == 0 {
		return nil, ErrNoMessages
	}
	out := make([]string, 0, len(msgs))
	for i, m := range msgs {
		switch m.Role {
		case contractx.RoleSystem, contractx.RoleUser, contractx.RoleAssistant, contractx.RoleTool:
		default:
			return nil, fmt.Errorf("%w: message %d has role %q", contractx.ErrInvalidMessage, i, m.Role)
		}
		raw, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("marshal message %d: %w", i, err)
		}
		out = append(out, string(raw))
	}
	return out, nil
}

func decodeMessages(items []string) ([]contractx.ConversationMessage, error) {
	out := make([]contractx.ConversationMessage, 0, len(items))
	for i, item := range items {
		var m contractx.ConversationMessage
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("decode stored message %d: %w", i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
