package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q, want bearer key", got)
		}
		if r.URL.Path != "/users/user-1" {
			t.Errorf("path = %q, want /users/user-1", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":              "user-1",
			"subscription":    map[string]any{"plan": "standard", "status": "active"},
			"public_metadata": map[string]any{"plan": "premium"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test")
	account, err := c.Account(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Account() error: %v", err)
	}
	if account.Subscription == nil || account.Subscription.Plan != "standard" {
		t.Fatalf("Subscription = %+v, want plan standard", account.Subscription)
	}
	if got := account.PublicMetadata["plan"]; got != "premium" {
		t.Fatalf("PublicMetadata plan = %v, want premium", got)
	}
}

func TestClientAccountNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test")
	if _, err := c.Account(context.Background(), "missing"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("Account() error = %v, want ErrAccountNotFound", err)
	}
}

func TestClientAccountHonorsContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := NewClient(srv.URL, "sk-test")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Account(ctx, "user-1")
	if err == nil {
		t.Fatalf("Account() expected context deadline error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Account() blocked %v past its deadline", elapsed)
	}
}

func TestClientAccountRequiresUserID(t *testing.T) {
	c := NewClient("https://identity.invalid", "sk-test")
	if _, err := c.Account(context.Background(), "  "); err == nil {
		t.Fatalf("Account() expected error for empty user id")
	}
}
