package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	contractx "github.com/tanpawarit/talent-assistant/agent/contract"
)

func newSupabase(t *testing.T, handler http.HandlerFunc) *SupabaseAuthenticator {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	auth, err := NewSupabaseAuthenticator(AuthConfig{URL: server.URL, AnonKey: "anon"}, server.Client())
	require.NoError(t, err)
	return auth
}

func TestSupabaseAuthenticatorResolvesCaller(t *testing.T) {
	t.Parallel()

	auth := newSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "Bearer user-jwt", r.Header.Get("Authorization"))
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		_, _ = io.WriteString(w, `{"id":"u-1","email":"ana@escola.br","role":"authenticated","app_metadata":{"role":"school_admin"}}`)
	})

	caller, err := auth.Authenticate(context.Background(), "user-jwt")
	require.NoError(t, err)
	assert.Equal(t, &contractx.Caller{UserID: "u-1", Email: "ana@escola.br", Role: "school_admin"}, caller)
}

func TestSupabaseAuthenticatorFallsBackToTopLevelRole(t *testing.T) {
	t.Parallel()

	auth := newSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"u-2","role":"authenticated"}`)
	})
	caller, err := auth.Authenticate(context.Background(), "jwt")
	require.NoError(t, err)
	assert.Equal(t, "authenticated", caller.Role)
}

func TestSupabaseAuthenticatorRejections(t *testing.T) {
	t.Parallel()

	rejected := newSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := rejected.Authenticate(context.Background(), "expired")
	assert.ErrorIs(t, err, contractx.ErrUnauthorized)

	broken := newSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err = broken.Authenticate(context.Background(), "jwt")
	require.Error(t, err)
	assert.False(t, errors.Is(err, contractx.ErrUnauthorized))
}

func TestNewSupabaseAuthenticatorValidation(t *testing.T) {
	t.Parallel()

	_, err := NewSupabaseAuthenticator(AuthConfig{AnonKey: "k"}, nil)
	assert.Error(t, err)
	_, err = NewSupabaseAuthenticator(AuthConfig{URL: "https://x.supabase.co"}, nil)
	assert.Error(t, err)
}

func TestChainAuthenticator(t *testing.T) {
	t.Parallel()

	static := NewStaticTokenAuthenticator(map[string]string{"svc-token": "billing-worker", " ": "ignored"})
	chain := ChainAuthenticator{nil, static}

	caller, err := chain.Authenticate(context.Background(), "svc-token")
	require.NoError(t, err)
	assert.Equal(t, "billing-worker", caller.UserID)
	assert.Equal(t, "service", caller.Role)

	_, err = chain.Authenticate(context.Background(), "nope")
	assert.ErrorIs(t, err, contractx.ErrUnauthorized)

	unavailable := newSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err = ChainAuthenticator{unavailable, static}.Authenticate(context.Background(), "svc-token")
	require.Error(t, err, "infrastructure errors stop the chain")
}

func TestRequireAuthMapsUnavailableTo503(t *testing.T) {
	t.Parallel()

	unavailable := newSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	handler := requireAuth(unavailable, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/agents/jobs/chat", nil)
	req.Header.Set("Authorization", "Bearer jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, CodeAuthUnavailable, decodeError(t, rec.Body.Bytes()).Code)
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		header string
		token  string
		ok     bool
	}{
		"valid":       {"Bearer abc", "abc", true},
		"lowercase":   {"bearer abc", "abc", true},
		"basic":       {"Basic abc", "", false},
		"empty token": {"Bearer   ", "", false},
		"missing":     {"", "", false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			token, ok := bearerToken(req)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.token, token)
		})
	}
}
