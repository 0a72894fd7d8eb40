package tool

import (
	"errors"
	"fmt"
	"time"

	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
	"github.com/tanpawarit/talent-assistant/agent/datastore"
)

const defaultPublishTimeout = 5 * time.Second

type Option func(*builder)

// WithEventPublisher receives a ToolEvent after every successful mutation.
func WithEventPublisher(p contractx.EventPublisher) Option {
	return func(b *builder) {
		b.events = p
	}
}

// WithPublishTimeout bounds each event publish. Publishing runs after the
// tool returns and is not tied to the turn's deadline.
func WithPublishTimeout(d time.Duration) Option {
	return func(b *builder) {
		if d > 0 {
			b.publishTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *builder) {
		if now != nil {
			b.now = now
		}
	}
}

type builder struct {
	h      handlers
	events contractx.EventPublisher
	now    func() time.Time
	tools  []contractx.Tool
	err    error

	publishTimeout time.Duration
}

func add[A any](b *builder, name, description string, mutates bool, handler Handler[A]) {
	if b.err != nil {
		return
	}
	t, err := newTool(name, description, mutates, handler)
	if err != nil {
		b.err = err
		return
	}
	t.events = b.events
	t.now = b.now
	t.publishTimeout = b.publishTimeout
	b.tools = append(b.tools, t)
}

// Build registers every domain tool backed by repo.
func Build(repo datastore.Repository, opts ...Option) (*Registry, error) {
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	b := &builder{h: handlers{repo: repo}, now: time.Now, publishTimeout: defaultPublishTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	b.registerSchools()
	b.registerCompanies()
	b.registerJobs()
	b.registerCandidates()
	b.registerApplications()
	b.registerContracts()
	b.registerPayments()
	b.registerFeedback()
	add(b, ToolCalculateAmount,
		"Evaluate an arithmetic expression for fees, installments or pro-rata amounts.",
		false, calculateAmount)

	if b.err != nil {
		return nil, fmt.Errorf("build tools: %w", b.err)
	}
	return NewRegistry(b.tools...)
}

type handlers struct {
	repo datastore.Repository
}

// NotFound is returned by detail tools instead of an error so the model can
// tell the user the record does not exist.
type NotFound struct {
	Found bool   `json:"found"`
	ID    string `json:"id"`
}

func detail(id string, v any, err error) (any, error) {
	if errors.Is(err, datastore.ErrNotFound) {
		return NotFound{Found: false, ID: id}, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
