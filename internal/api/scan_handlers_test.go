package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/sykell/phishguard/internal/api"
	"github.com/sykell/phishguard/internal/history"
)

type stubClassifier struct{ p float64 }

func (s stubClassifier) BadProbability(string) float64 { return s.p }

type stubAges struct{ age *int }

func (s stubAges) Lookup(string) *int { return s.age }

func intPtr(v int) *int { return &v }

func newTestStore(t *testing.T) *history.Store {
	t.Helper()
	return history.NewStore(filepath.Join(t.TempDir(), "scan_history.json"))
}

func newRouter(clf api.Classifier, ages api.AgeLookup, store *history.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/analyze", api.AnalyzeHandler(clf, ages, store))
	r.GET("/logs", api.LogsHandler(store))
	return r
}

func postAnalyze(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestAnalyze_EmptyURL(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	r := newRouter(stubClassifier{p: 0.9}, stubAges{}, store)

	w := postAnalyze(t, r, `{"url": ""}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp api.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "error" || resp.Message != "Empty URL" {
		t.Errorf("expected error/Empty URL, got %s/%s", resp.Status, resp.Message)
	}

	// No log entry for a rejected scan.
	good, bad := store.ReadAll()
	if len(good) != 0 || len(bad) != 0 {
		t.Errorf("expected empty history, got good=%v bad=%v", good, bad)
	}
}

func TestAnalyze_MalformedBody(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	r := newRouter(stubClassifier{p: 0.9}, stubAges{}, store)

	w := postAnalyze(t, r, `{broken`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp api.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "error" || resp.Message == "" {
		t.Errorf("expected error status with message, got %+v", resp)
	}
}

func TestAnalyze_FlagsHighConfidenceURL(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	r := newRouter(stubClassifier{p: 0.92}, stubAges{}, store)

	w := postAnalyze(t, r, `{"url": "http://phish.example"}`)

	var resp api.AnalyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Status != "danger" {
		t.Errorf("expected danger, got %s", resp.Status)
	}
	if resp.Score != 92 {
		t.Errorf("expected score 92, got %v", resp.Score)
	}
	if resp.Age != "Unknown" {
		t.Errorf("expected Unknown age, got %s", resp.Age)
	}
	if len(resp.Reasons) != 1 {
		t.Errorf("expected 1 reason, got %v", resp.Reasons)
	}

	// The scan is recorded in the flagged bucket.
	good, bad := store.ReadAll()
	if len(good) != 0 || len(bad) != 1 {
		t.Fatalf("expected 0 good / 1 bad, got %d/%d", len(good), len(bad))
	}
	if bad[0].URL != "http://phish.example" || bad[0].Score != 92 {
		t.Errorf("unexpected record: %+v", bad[0])
	}
}

func TestAnalyze_BrandNewDomainRaisesScore(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	r := newRouter(stubClassifier{p: 0.40}, stubAges{age: intPtr(5)}, store)

	w := postAnalyze(t, r, `{"url": "http://fresh.example"}`)

	var resp api.AnalyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Status != "danger" || resp.Score != 55 {
		t.Errorf("expected danger/55, got %s/%v", resp.Status, resp.Score)
	}
	if resp.Age != "5 days" {
		t.Errorf("expected '5 days', got %q", resp.Age)
	}
	if len(resp.Reasons) != 2 {
		t.Errorf("expected 2 reasons, got %v", resp.Reasons)
	}
}

func TestAnalyze_EstablishedDomainLowersScore(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	r := newRouter(stubClassifier{p: 0.40}, stubAges{age: intPtr(2000)}, store)

	w := postAnalyze(t, r, `{"url": "http://old.example"}`)

	var resp api.AnalyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Status != "safe" || resp.Score != 30 {
		t.Errorf("expected safe/30, got %s/%v", resp.Status, resp.Score)
	}
	if resp.Age != "2000 days" {
		t.Errorf("expected '2000 days', got %q", resp.Age)
	}
}

func TestAnalyze_RescanOverwritesRecord(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	// First scan says safe, a later one says danger; the history keeps
	// only the latest verdict.
	safeRouter := newRouter(stubClassifier{p: 0.10}, stubAges{}, store)
	dangerRouter := newRouter(stubClassifier{p: 0.90}, stubAges{}, store)

	postAnalyze(t, safeRouter, `{"url": "http://a.com"}`)
	postAnalyze(t, dangerRouter, `{"url": "http://a.com"}`)

	good, bad := store.ReadAll()
	if len(good) != 0 || len(bad) != 1 {
		t.Fatalf("expected single flagged record, got good=%d bad=%d", len(good), len(bad))
	}
	if bad[0].Score != 90 {
		t.Errorf("expected latest score 90, got %v", bad[0].Score)
	}
}

func TestLogs_ReturnsBuckets(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	for _, entry := range []struct {
		url    string
		status string
		score  float64
	}{
		{"http://x.com", "safe", 10},
		{"http://y.com", "danger", 90},
		{"http://z.com", "safe", 20},
	} {
		if err := store.Upsert(entry.url, entry.status, entry.score); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	r := newRouter(stubClassifier{}, stubAges{}, store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/logs", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Good []history.Record `json:"good"`
		Bad  []history.Record `json:"bad"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(resp.Good) != 2 || resp.Good[0].URL != "http://z.com" || resp.Good[1].URL != "http://x.com" {
		t.Errorf("unexpected good bucket: %+v", resp.Good)
	}
	if len(resp.Bad) != 1 || resp.Bad[0].URL != "http://y.com" {
		t.Errorf("unexpected bad bucket: %+v", resp.Bad)
	}
}
