package genrecast

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/classify" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["description"] != "a space opera" {
			t.Errorf("description = %q", req["description"])
		}
		conf := 0.91
		_ = json.NewEncoder(w).Encode(ClassifyResult{
			InputDescription: req["description"],
			PredictedGenre:   "Sci-Fi",
			Confidence:       &conf,
			Matches: []Match{
				{Title: "Dune", Genres: []string{"Sci-Fi", "Adventure"}, Score: 0.91},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.Classify(context.Background(), "a space opera")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if res.PredictedGenre != "Sci-Fi" {
		t.Errorf("genre = %q, want Sci-Fi", res.PredictedGenre)
	}
	if res.Confidence == nil || *res.Confidence != 0.91 {
		t.Errorf("confidence = %v, want 0.91", res.Confidence)
	}
	if len(res.Matches) != 1 || res.Matches[0].Title != "Dune" {
		t.Errorf("matches = %+v", res.Matches)
	}
}

func TestClassify_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"description must not be empty"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Classify(context.Background(), "")
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error is %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", apiErr.StatusCode)
	}
	if apiErr.Detail != "description must not be empty" {
		t.Errorf("detail = %q", apiErr.Detail)
	}
}

func TestSyncEmbeddings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/sync-embeddings" {
			t.Errorf("path = %s", r.URL.Path)
		}
		switch r.Method {
		case http.MethodPost:
			var req map[string]int
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req["batch_size"] != 25 {
				t.Errorf("batch_size = %d, want 25", req["batch_size"])
			}
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(SyncJob{Message: "sync started", JobID: "abc-123"})
		case http.MethodGet:
			st := SyncStatus{JobID: "abc-123", State: "completed"}
			st.Summary.Scanned = 5
			st.Summary.Updated = 4
			st.Summary.Failed = 1
			_ = json.NewEncoder(w).Encode(st)
		default:
			t.Errorf("method = %s", r.Method)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	job, err := c.SyncEmbeddings(context.Background(), 25)
	if err != nil {
		t.Fatalf("SyncEmbeddings: %v", err)
	}
	if job.JobID != "abc-123" {
		t.Errorf("job id = %q", job.JobID)
	}

	st, err := c.SyncEmbeddingsStatus(context.Background())
	if err != nil {
		t.Fatalf("SyncEmbeddingsStatus: %v", err)
	}
	if st.State != "completed" || st.Summary.Updated != 4 {
		t.Errorf("status = %+v", st)
	}
}

func TestSyncEmbeddings_Conflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"detail":"sync already in progress"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.SyncEmbeddings(context.Background(), 0)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict {
		t.Fatalf("err = %v, want 409 APIError", err)
	}
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/health" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(Health{
			Status:     "ok",
			Checks:     map[string]string{"database": "ok", "index": "ok"},
			Model:      "text-embedding-3-small",
			Dimensions: 768,
			Version:    "dev",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	h, err := c.HealthCheck(context.Background())
	if err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	if h.Status != "ok" || h.Dimensions != 768 {
		t.Errorf("health = %+v", h)
	}
}

func TestWithHTTPClient(t *testing.T) {
	hc := &http.Client{Timeout: time.Second}
	c := New("http://example.invalid", WithHTTPClient(hc))
	if c.http != hc {
		t.Error("expected custom http client to be set")
	}
}
