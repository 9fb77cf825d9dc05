package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// NewQuoteServer starts an httptest server that mimics the quote API. Each
// request returns the given content and author in the single-element array
// shape the real endpoint uses.
func NewQuoteServer(t *testing.T, content, author string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]string{{"content": content, "author": author}})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// NewFailingQuoteServer starts an httptest server that always responds with
// the given status and an empty body.
func NewFailingQuoteServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}
