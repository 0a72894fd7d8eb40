package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
)

const maxResponseSizeBytes = 2 << 20

// StoreOption customizes the conversation stores.
type StoreOption func(*storeOptions)

type storeOptions struct {
	keyPrefix   string
	ttl         time.Duration
	maxMessages int
	httpClient  *http.Client
}

func WithKeyPrefix(prefix string) StoreOption {
	return func(o *storeOptions) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			o.keyPrefix = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) StoreOption {
	return func(o *storeOptions) {
		o.ttl = ttl
	}
}

// WithMaxMessages keeps only the newest n messages per conversation; 0 keeps all.
func WithMaxMessages(n int) StoreOption {
	return func(o *storeOptions) {
		o.maxMessages = n
	}
}

// WithHTTPClient only applies to the Upstash store.
func WithHTTPClient(client *http.Client) StoreOption {
	return func(o *storeOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

func applyOptions(opts []StoreOption) (storeOptions, error) {
	o := storeOptions{
		keyPrefix:   defaultStoreKeyPrefix,
		ttl:         defaultStoreTTL,
		maxMessages: defaultMaxMessages,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.ttl < 0 {
		return o, errors.New("ttl must be >= 0")
	}
	if o.maxMessages < 0 {
		return o, errors.New("max messages must be >= 0")
	}
	return o, nil
}

// UpstashRedisStore keeps conversation transcripts in an Upstash Redis list
// through the REST API.
type UpstashRedisStore struct {
	baseURL    string
	token      string
	httpClient *http.Client
	opts       storeOptions
}

var _ contractx.ConversationStore = (*UpstashRedisStore)(nil)

type redisRESTResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

type UpstashRedisConfig struct {
	URL     string        `envconfig:"URL" split_words:"true" required:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

func NewUpstashRedisStore(cfg UpstashRedisConfig, opts ...StoreOption) (*UpstashRedisStore, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("upstash redis url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("upstash redis token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	client := o.httpClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	return &UpstashRedisStore{
		baseURL:    baseURL,
		token:      token,
		httpClient: client,
		opts:       o,
	}, nil
}

// Append pushes msgs to the end of the transcript and refreshes its TTL.
func (s *UpstashRedisStore) Append(ctx context.Context, conversationID string, msgs ...contractx.ConversationMessage) error {
	key, err := conversationKey(s.opts.keyPrefix, conversationID)
	if err != nil {
		return err
	}
	items, err := encodeMessages(msgs)
	if err != nil {
		return err
	}

	cmd := make([]any, 0, len(items)+2)
	cmd = append(cmd, "RPUSH", key)
	for _, item := range items {
		cmd = append(cmd, item)
	}
	commands := [][]any{cmd}
	if s.opts.maxMessages > 0 {
		commands = append(commands, []any{"LTRIM", key, -s.opts.maxMessages, -1})
	}
	if s.opts.ttl > 0 {
		commands = append(commands, []any{"EXPIRE", key, ttlSeconds(s.opts.ttl)})
	}

	for _, c := range commands {
		if _, err := s.exec(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// Read returns the whole transcript; a missing conversation reads as empty.
func (s *UpstashRedisStore) Read(ctx context.Context, conversationID string) ([]contractx.ConversationMessage, error) {
	key, err := conversationKey(s.opts.keyPrefix, conversationID)
	if err != nil {
		return nil, err
	}

	resp, err := s.exec(ctx, []any{"LRANGE", key, 0, -1})
	if err != nil {
		return nil, err
	}

	result := bytes.TrimSpace(resp.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return []contractx.ConversationMessage{}, nil
	}

	var items []string
	if err := json.Unmarshal(result, &items); err != nil {
		return nil, fmt.Errorf("decode transcript payload: %w", err)
	}
	return decodeMessages(items)
}

func (s *UpstashRedisStore) Delete(ctx context.Context, conversationID string) error {
	key, err := conversationKey(s.opts.keyPrefix, conversationID)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, []any{"DEL", key})
	return err
}

func (s *UpstashRedisStore) exec(ctx context.Context, command []any) (*redisRESTResponse, error) {
	if s == nil {
		return nil, errors.New("nil store")
	}
	if len(command) == 0 {
		return nil, errors.New("empty redis command")
	}

	body, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("marshal redis command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build redis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute redis request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read redis response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("redis http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed redisRESTResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode redis response: %w", err)
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return &parsed, nil
}
