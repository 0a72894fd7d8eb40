// Package chat keeps the client-side conversation state for one chat panel.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrBusy         = errors.New("a message is already being sent")
)

// Transport sends one turn to the chat API.
type Transport interface {
	Chat(ctx context.Context, agentCtx contractx.AgentContext, msgs []contractx.ConversationMessage, conversationID string) (contractx.ChatResponse, error)
}

// Session holds the whole conversation in memory. It is safe for concurrent
// use; Send rejects a second message while one is in flight.
type Session struct {
	transport Transport

	mu             sync.Mutex
	agentCtx       contractx.AgentContext
	messages       []contractx.ConversationMessage
	panelOpen      bool
	loading        bool
	conversationID string
}

func NewSession(transport Transport, agentCtx contractx.AgentContext) (*Session, error) {
	if transport == nil {
		return nil, errors.New("transport is required")
	}
	if !agentCtx.Valid() {
		return nil, fmt.Errorf("%w: %q", contractx.ErrUnknownContext, agentCtx)
	}
	return &Session{
		transport:      transport,
		agentCtx:       agentCtx,
		conversationID: uuid.NewString(),
	}, nil
}

func (s *Session) Open() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panelOpen = true
}

func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panelOpen = false
}

func (s *Session) PanelOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panelOpen
}

func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Session) Context() contractx.AgentContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agentCtx
}

func (s *Session) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

func (s *Session) Messages() []contractx.ConversationMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]contractx.ConversationMessage(nil), s.messages...)
}

// SwitchContext changes the active agent. When a conversation is already
// under way a system message announcing the switch is appended.
func (s *Session) SwitchContext(next contractx.AgentContext) error {
	if !next.Valid() {
		return fmt.Errorf("%w: %q", contractx.ErrUnknownContext, next)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if next == s.agentCtx {
		return nil
	}
	if len(s.messages) > 0 {
		s.messages = append(s.messages, contractx.ConversationMessage{
			Role:    contractx.RoleSystem,
			Content: SwitchAnnouncement(s.agentCtx, next),
		})
	}
	s.agentCtx = next
	return nil
}

func SwitchAnnouncement(from, to contractx.AgentContext) string {
	return fmt.Sprintf("O usuário mudou o contexto de %s para %s. Continue a conversa no novo contexto.", from, to)
}

// Reset clears the history and starts a new conversation id.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.conversationID = uuid.NewString()
}

// Send appends the user message, calls the transport once and appends the
// reply. On failure the fallback message is appended instead and the error
// is returned; nothing is retried.
func (s *Session) Send(ctx context.Context, text string) (contractx.ChatResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return contractx.ChatResponse{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return contractx.ChatResponse{}, ErrBusy
	}
	s.loading = true
	s.messages = append(s.messages, contractx.ConversationMessage{Role: contractx.RoleUser, Content: text})
	snapshot := append([]contractx.ConversationMessage(nil), s.messages...)
	agentCtx := s.agentCtx
	conversationID := s.conversationID
	s.mu.Unlock()

	resp, err := s.transport.Chat(ctx, agentCtx, snapshot, conversationID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("context", string(agentCtx)).Msg("chat turn failed")
		s.messages = append(s.messages, contractx.ConversationMessage{Role: contractx.RoleAssistant, Content: contractx.FallbackMessage})
		return contractx.ChatResponse{Message: contractx.FallbackMessage}, err
	}
	s.messages = append(s.messages, contractx.ConversationMessage{Role: contractx.RoleAssistant, Content: resp.Message})
	return resp, nil
}
