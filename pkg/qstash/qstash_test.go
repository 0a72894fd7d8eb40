package qstash

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPublishJSON(t *testing.T) {
	t.Parallel()

	var (
		gotPath, gotAuth, gotDedup, gotRetries, gotDelay string
		gotBody                                          string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotDedup = r.Header.Get("Upstash-Deduplication-Id")
		gotRetries = r.Header.Get("Upstash-Retries")
		gotDelay = r.Header.Get("Upstash-Delay")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		_, _ = io.WriteString(w, `{"messageId":"msg_123"}`)
	}))
	t.Cleanup(server.Close)

	client := MustNew(Config{URL: server.URL, Token: "qtoken"}).WithHTTPClient(server.Client())
	retries := 2
	id, err := client.PublishJSON(context.Background(), "talent-events", []byte(`{"tool":"approve_school"}`), PublishOptions{
		DeduplicationID: "evt-1",
		Retries:         &retries,
		Delay:           90 * time.Second,
	})
	if err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}
	if id != "msg_123" {
		t.Fatalf("message id = %q", id)
	}
	if gotPath != "/v2/publish/talent-events" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer qtoken" || gotDedup != "evt-1" || gotRetries != "2" || gotDelay != "90s" {
		t.Fatalf("unexpected headers auth=%q dedup=%q retries=%q delay=%q", gotAuth, gotDedup, gotRetries, gotDelay)
	}
	if gotBody != `{"tool":"approve_school"}` {
		t.Fatalf("body = %q", gotBody)
	}
}

func TestPublishJSONStatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"invalid token"}`)
	}))
	t.Cleanup(server.Close)

	client := MustNew(Config{URL: server.URL, Token: "bad"}).WithHTTPClient(server.Client())
	if _, err := client.PublishJSON(context.Background(), "topic", []byte(`{}`), PublishOptions{}); err == nil {
		t.Fatal("expected error on 401")
	}
	if _, err := client.PublishJSON(context.Background(), " ", []byte(`{}`), PublishOptions{}); err == nil {
		t.Fatal("expected error for empty destination")
	}
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{URL: "", Token: "t"}); err == nil {
		t.Fatal("expected error for empty url")
	}
	if _, err := NewClient(Config{URL: "https://qstash.upstash.io"}); err == nil {
		t.Fatal("expected error for empty token")
	}
}
