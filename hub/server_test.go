package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clipharbor/hub/hub/blobstore"
	"github.com/clipharbor/hub/hub/index"
)

func newTestServer(t *testing.T, authToken string) *Server {
	t.Helper()
	idx, err := index.Open("")
	if err != nil {
		t.Fatalf("index.Open: %v", err)
	}
	t.Cleanup(func() { idx.Close() })

	blobs, err := blobstore.New(t.TempDir())
	if err != nil {
		t.Fatalf("blobstore.New: %v", err)
	}
	digests, err := blobstore.NewDigestCache(64)
	if err != nil {
		t.Fatalf("NewDigestCache: %v", err)
	}

	workers := NewWorkerPool(1)
	t.Cleanup(workers.Close)
	broadcaster := NewBroadcaster()

	state, err := NewState(idx, blobs, digests, broadcaster, workers)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	return NewServer(state, authToken, t.TempDir())
}

func TestWithAuthRejectsMissingCredential(t *testing.T) {
	s := newTestServer(t, "s3cret")
	req := httptest.NewRequest(http.MethodGet, "/api/device-list", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestWithAuthAcceptsValidBearer(t *testing.T) {
	s := newTestServer(t, "s3cret")
	req := httptest.NewRequest(http.MethodGet, "/api/device-list", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var devices []string
	if err := json.Unmarshal(w.Body.Bytes(), &devices); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(devices) != 0 {
		t.Fatalf("expected no devices yet, got %v", devices)
	}
}

func TestEmptySecretAllowsUnauthenticatedRequests(t *testing.T) {
	s := newTestServer(t, "")
	req := httptest.NewRequest(http.MethodGet, "/api/online-device-list", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestHandleQueryEmptyIndexReturnsEmptyResult(t *testing.T) {
	s := newTestServer(t, "")
	req := httptest.NewRequest(http.MethodGet, "/api/query?q=hello", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var result struct {
		Data  []any `json:"data"`
		Total int   `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if result.Total != 0 || len(result.Data) != 0 {
		t.Fatalf("expected an empty result set, got %+v", result)
	}
}

func TestHandleCollectionUnknownDevice(t *testing.T) {
	s := newTestServer(t, "")
	req := httptest.NewRequest(http.MethodGet, "/api/collection/nonexistent-device", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestFaviconServed(t *testing.T) {
	s := newTestServer(t, "")
	req := httptest.NewRequest(http.MethodGet, "/favicon.ico", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.Len() == 0 {
		t.Fatalf("expected a non-empty favicon body")
	}
}
