package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"BlogMigrator/internal/domain"
)

func TestPublishDigest(t *testing.T) {
	t.Parallel()

	var chat, text string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottoken-1/sendMessage" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		chat, text = r.PostForm.Get("chat_id"), r.PostForm.Get("text")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	n := NewNotifier("token-1", "42").WithAPIBase(server.URL + "/")
	if err := n.PublishDigest(context.Background(), "publish: attempted=1"); err != nil {
		t.Fatalf("publish digest: %v", err)
	}
	if chat != "42" || text != "publish: attempted=1" {
		t.Fatalf("unexpected form chat=%q text=%q", chat, text)
	}
}

func TestPublishDigestErrors(t *testing.T) {
	t.Parallel()

	if err := NewNotifier("", "").PublishDigest(context.Background(), "x"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected misconfiguration error, got %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer server.Close()

	err := NewNotifier("t", "c").WithAPIBase(server.URL).PublishDigest(context.Background(), "x")
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
