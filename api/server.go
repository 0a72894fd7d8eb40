// Package api serves the agent catalog and the chat endpoint over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
)

type ChatService interface {
	Chat(ctx context.Context, req contractx.ChatRequest) (contractx.ChatResponse, error)
}

type AgentDirectory interface {
	Info(agentCtx contractx.AgentContext) (contractx.AgentInfo, error)
	List() []contractx.AgentInfo
	SuggestedQuestions(agentCtx contractx.AgentContext) ([]string, error)
}

type Option func(*Server)

// WithConversationStore persists each chat turn that carries a conversationId.
func WithConversationStore(store contractx.ConversationStore) Option {
	return func(s *Server) {
		s.store = store
	}
}

type Server struct {
	cfg     Config
	agents  AgentDirectory
	chat    ChatService
	auth    Authenticator
	store   contractx.ConversationStore
	limiter *rateLimiter
}

func New(cfg Config, agents AgentDirectory, chat ChatService, auth Authenticator, opts ...Option) (*Server, error) {
	if agents == nil {
		return nil, errors.New("agent directory is required")
	}
	if chat == nil {
		return nil, errors.New("chat service is required")
	}
	if auth == nil {
		return nil, errors.New("authenticator is required")
	}
	cfg = cfg.withDefaults()
	s := &Server{
		cfg:     cfg,
		agents:  agents,
		chat:    chat,
		auth:    auth,
		limiter: newRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Handler builds the routed handler. The rate limiter janitor stops with ctx.
func (s *Server) Handler(ctx context.Context) http.Handler {
	go s.limiter.janitor(ctx)

	protected := func(h http.HandlerFunc) http.Handler {
		return requireAuth(s.auth, s.limiter.middleware(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/agents", s.handleListAgents)
	mux.HandleFunc("GET /api/agents/{context}", s.handleAgentConfig)
	mux.HandleFunc("GET /api/agents/{context}/suggestions", s.handleSuggestions)
	mux.Handle("POST /api/agents/{context}/chat", protected(s.handleChat))
	if s.store != nil {
		mux.Handle("GET /api/conversations/{id}", protected(s.handleConversation))
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, CodeNotFound)
	})

	return requestID(accessLog(recovery(cors(s.cfg.AllowedOrigin, mux))))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(ctx),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.cfg.Addr).Msg("api server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown api server: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, s.agents.List())
}

func (s *Server) handleAgentConfig(w http.ResponseWriter, r *http.Request) {
	agentCtx, err := contractx.ParseAgentContext(r.PathValue("context"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	info, err := s.agents.Info(agentCtx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, info)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	agentCtx, err := contractx.ParseAgentContext(r.PathValue("context"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	questions, err := s.agents.SuggestedQuestions(agentCtx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if questions == nil {
		questions = []string{}
	}
	jsonResponse(w, http.StatusOK, questions)
}

type chatBody struct {
	Messages       []contractx.ConversationMessage `json:"messages"`
	ConversationID string                          `json:"conversationId,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	agentCtx, err := contractx.ParseAgentContext(r.PathValue("context"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var body chatBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, r, fmt.Errorf("%w: decode body: %w", contractx.ErrInvalidMessage, err))
		return
	}

	caller, _ := CallerFrom(r.Context())
	req := contractx.ChatRequest{
		Context:        agentCtx,
		Messages:       body.Messages,
		Caller:         caller,
		ConversationID: strings.TrimSpace(body.ConversationID),
	}

	resp, err := s.chat.Chat(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.persistTurn(r.Context(), req, resp)
	jsonResponse(w, http.StatusOK, resp)
}

// persistTurn stores the newest request message and the reply. Storage
// failures are logged and never fail the turn.
func (s *Server) persistTurn(ctx context.Context, req contractx.ChatRequest, resp contractx.ChatResponse) {
	if s.store == nil || req.ConversationID == "" || len(req.Messages) == 0 {
		return
	}
	last := req.Messages[len(req.Messages)-1]
	reply := contractx.ConversationMessage{Role: contractx.RoleAssistant, Content: resp.Message}
	if err := s.store.Append(ctx, conversationKey(req.Caller, req.ConversationID), last, reply); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("conversation_id", req.ConversationID).Msg("persist chat turn failed")
	}
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	caller, _ := CallerFrom(r.Context())
	msgs, err := s.store.Read(r.Context(), conversationKey(caller, id))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, msgs)
}

// conversationKey scopes transcripts to their owner.
func conversationKey(caller *contractx.Caller, id string) string {
	if caller == nil {
		return id
	}
	return caller.UserID + ":" + id
}
