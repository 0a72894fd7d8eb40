package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
)

const (
	defaultBreakerMaxFailures uint32 = 5
	defaultBreakerTimeout            = 30 * time.Second
	defaultBreakerInterval           = 60 * time.Second
)

type BreakerSettings struct {
	MaxFailures uint32
	Timeout     time.Duration
	Interval    time.Duration
}

// BreakerModel routes Generate and Stream through one circuit breaker.
// Copies returned by WithTools share the breaker of their parent.
type BreakerModel struct {
	name    string
	inner   einomodel.ToolCallingChatModel
	breaker *gobreaker.CircuitBreaker[*schema.Message]
}

var _ einomodel.ToolCallingChatModel = (*BreakerModel)(nil)

func NewBreakerModel(name string, inner einomodel.ToolCallingChatModel, s BreakerSettings) *BreakerModel {
	maxFailures := s.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultBreakerMaxFailures
	}
	timeout := s.Timeout
	if timeout == 0 {
		timeout = defaultBreakerTimeout
	}
	interval := s.Interval
	if interval == 0 {
		interval = defaultBreakerInterval
	}

	cb := gobreaker.NewCircuitBreaker[*schema.Message](gobreaker.Settings{
		Name:        "llm:" + name,
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
		// A caller that gave up says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &BreakerModel{name: name, inner: inner, breaker: cb}
}

func (m *BreakerModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	inner, err := m.inner.WithTools(tools)
	if err != nil {
		return nil, err
	}
	return &BreakerModel{name: m.name, inner: inner, breaker: m.breaker}, nil
}

func (m *BreakerModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	out, err := m.breaker.Execute(func() (*schema.Message, error) {
		return m.inner.Generate(ctx, input, opts...)
	})
	return out, m.wrap(err)
}

func (m *BreakerModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	var stream *schema.StreamReader[*schema.Message]
	_, err := m.breaker.Execute(func() (*schema.Message, error) {
		var streamErr error
		stream, streamErr = m.inner.Stream(ctx, input, opts...)
		return nil, streamErr
	})
	if err != nil {
		return nil, m.wrap(err)
	}
	return stream, nil
}

func (m *BreakerModel) State() gobreaker.State {
	return m.breaker.State()
}

func (m *BreakerModel) wrap(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("model %q circuit open: %w", m.name, err)
	}
	return err
}
