package translate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTranslateSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tl"); got != "ru" {
			t.Errorf("target language = %q, want ru", got)
		}
		if got := r.URL.Query().Get("sl"); got != "auto" {
			t.Errorf("source language = %q, want auto", got)
		}
		_, _ = w.Write([]byte(`[[["Привет мир","Hello world",null,null,10]],null,"en"]`))
	}))
	defer server.Close()

	client := New(Config{Endpoint: server.URL, TargetLanguage: "ru"})
	got := client.Translate(context.Background(), "Hello world")
	if got != "Привет мир" {
		t.Fatalf("Translate = %q", got)
	}
}

func TestTranslateConcatenatesSegments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[[["Первая часть. ","First part. "],["Вторая часть.","Second part."]],null,"en"]`))
	}))
	defer server.Close()

	client := New(Config{Endpoint: server.URL, TargetLanguage: "ru"})
	got := client.Translate(context.Background(), "First part. Second part.")
	if got != "Первая часть. Вторая часть." {
		t.Fatalf("Translate = %q", got)
	}
}

func TestTranslateFallsBackOnErrors(t *testing.T) {
	const input = "Original Title"

	t.Run("http error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}))
		defer server.Close()
		client := New(Config{Endpoint: server.URL, TargetLanguage: "ru"})
		if got := client.Translate(context.Background(), input); got != input {
			t.Fatalf("expected fallback, got %q", got)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer server.Close()
		client := New(Config{Endpoint: server.URL, TargetLanguage: "ru"})
		if got := client.Translate(context.Background(), input); got != input {
			t.Fatalf("expected fallback, got %q", got)
		}
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		client := New(Config{Endpoint: "http://127.0.0.1:1", TargetLanguage: "ru"})
		if got := client.Translate(context.Background(), input); got != input {
			t.Fatalf("expected fallback, got %q", got)
		}
	})

	t.Run("empty text", func(t *testing.T) {
		client := New(Config{Endpoint: "http://example.invalid", TargetLanguage: "ru"})
		if got := client.Translate(context.Background(), ""); got != "" {
			t.Fatalf("expected empty passthrough, got %q", got)
		}
	})
}
