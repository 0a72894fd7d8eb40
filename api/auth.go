package api

import (
	"context"
	"crypto/subtle"
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

// Authenticator turns a bearer token into a Caller. Rejected tokens return an
// error wrapping contract.ErrUnauthorized.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*contractx.Caller, error)
}

type callerKey struct{}

func withCaller(ctx context.Context, caller *contractx.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

func CallerFrom(ctx context.Context) (*contractx.Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(*contractx.Caller)
	return caller, ok && caller != nil
}

type supabaseUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	AppMetadata struct {
		Role string `json:"role"`
	} `json:"app_metadata"`
}

// SupabaseAuthenticator validates tokens against Supabase Auth.
type SupabaseAuthenticator struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

func NewSupabaseAuthenticator(cfg AuthConfig, client *http.Client) (*SupabaseAuthenticator, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("supabase url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid supabase url: %w", err)
	}
	if strings.TrimSpace(cfg.AnonKey) == "" {
		return nil, errors.New("supabase anon key is required")
	}
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &SupabaseAuthenticator{baseURL: baseURL, anonKey: strings.TrimSpace(cfg.AnonKey), httpClient: client}, nil
}

func (a *SupabaseAuthenticator) Authenticate(ctx context.Context, token string) (*contractx.Caller, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("build supabase request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", a.anonKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute supabase request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read supabase response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: supabase rejected token", contractx.ErrUnauthorized)
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return nil, fmt.Errorf("supabase http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var user supabaseUser
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decode supabase user: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: supabase user has no id", contractx.ErrUnauthorized)
	}
	role := user.AppMetadata.Role
	if role == "" {
		role = user.Role
	}
	return &contractx.Caller{UserID: user.ID, Email: user.Email, Role: role}, nil
}

// StaticTokenAuthenticator maps service tokens to caller ids.
type StaticTokenAuthenticator struct {
	tokens map[string]string
}

func NewStaticTokenAuthenticator(tokens map[string]string) *StaticTokenAuthenticator {
	copied := make(map[string]string, len(tokens))
	for token, userID := range tokens {
		token = strings.TrimSpace(token)
		if token != "" {
			copied[token] = strings.TrimSpace(userID)
		}
	}
	return &StaticTokenAuthenticator{tokens: copied}
}

func (a *StaticTokenAuthenticator) Authenticate(_ context.Context, token string) (*contractx.Caller, error) {
	for known, userID := range a.tokens {
		if subtle.ConstantTimeCompare([]byte(known), []byte(token)) == 1 {
			return &contractx.Caller{UserID: userID, Role: "service"}, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown service token", contractx.ErrUnauthorized)
}

// ChainAuthenticator tries each authenticator in order. A rejection moves on
// to the next one; any other error stops the chain.
type ChainAuthenticator []Authenticator

func (c ChainAuthenticator) Authenticate(ctx context.Context, token string) (*contractx.Caller, error) {
	for _, a := range c {
		if a == nil {
			continue
		}
		caller, err := a.Authenticate(ctx, token)
		if err == nil {
			return caller, nil
		}
		if !errors.Is(err, contractx.ErrUnauthorized) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: no authenticator accepted the token", contractx.ErrUnauthorized)
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
