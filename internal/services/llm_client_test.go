package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewLLMClientSelectsMockWithoutKey(t *testing.T) {
	client := NewLLMClient("https://llm.example.com", "", "test-model", 30, false)
	if _, ok := client.(MockLLMClient); !ok {
		t.Fatalf("expected mock client without an API key, got %T", client)
	}

	client = NewLLMClient("https://llm.example.com", "key", "test-model", 30, true)
	if _, ok := client.(MockLLMClient); !ok {
		t.Fatalf("expected mock client in mock mode, got %T", client)
	}
}

func TestNewHTTPLLMClientTimeout(t *testing.T) {
	client := NewHTTPLLMClient("https://llm.example.com", "key", "test-model", 30*time.Second)
	if client.httpClient.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", client.httpClient.Timeout)
	}

	client = NewHTTPLLMClient("https://llm.example.com", "key", "test-model", 0)
	if client.httpClient.Timeout != 60*time.Second {
		t.Errorf("expected 60s fallback timeout, got %v", client.httpClient.Timeout)
	}
}

func TestHTTPLLMClientComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("expected bearer auth header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"## Plan"}}]}`))
	}))
	defer server.Close()

	client := NewHTTPLLMClient(server.URL, "test-key", "test-model", 5*time.Second)
	content, err := client.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if content != "## Plan" {
		t.Errorf("unexpected content: %q", content)
	}
}

func TestHTTPLLMClientCompleteErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewHTTPLLMClient(server.URL, "test-key", "test-model", 5*time.Second)
	if _, err := client.Complete(context.Background(), "system", "user"); err == nil {
		t.Fatalf("expected error on non-200 response")
	} else if !strings.Contains(err.Error(), "429") {
		t.Errorf("expected status in error, got %v", err)
	}
}
