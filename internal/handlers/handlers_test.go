package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"photosorter/internal/config"
	"photosorter/internal/logger"
	"photosorter/internal/model"
	"photosorter/internal/repository"
	"photosorter/internal/repository/sqlite"
	"photosorter/internal/services"
	"photosorter/internal/services/storage"
	"photosorter/internal/services/websocket"
)

// ========================================
// Test Setup Helpers
// ========================================

type fakeDetector struct {
	ready   bool
	persons int
}

func (f *fakeDetector) Detect(imageBytes []byte) ([]model.Detection, error) {
	detections := make([]model.Detection, 0, f.persons)
	for i := 0; i < f.persons; i++ {
		detections = append(detections, model.Detection{Label: "person", Confidence: 0.8})
	}
	return detections, nil
}

func (f *fakeDetector) Ready() bool { return f.ready }

type testEnv struct {
	manager *services.Manager
	cfg     *config.Config
	logger  *logger.Logger
}

func setupEnv(t *testing.T, detector *fakeDetector, runs repository.RunRepository) *testEnv {
	t.Helper()

	cfg := &config.Config{
		LogDirectory:  t.TempDir(),
		MaxUploadSize: 10,
	}
	log := logger.NewLogger(cfg)

	spool, err := storage.NewSpool(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create spool: %v", err)
	}
	store := storage.NewStore()
	hub := websocket.NewHubService(log)
	go hub.Run()

	manager := services.NewManager(detector, store, spool, hub, runs, log, time.Second)
	t.Cleanup(manager.Stop)

	return &testEnv{manager: manager, cfg: cfg, logger: log}
}

func waitIdle(t *testing.T, manager *services.Manager) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for manager.Busy() {
		if time.Now().After(deadline) {
			t.Fatal("Run did not finish in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func pngBytes() []byte {
	return append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 32)...)
}

func multipartUpload(t *testing.T, files map[string][]byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, data := range files {
		part, err := writer.CreateFormFile("images", name)
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("Failed to write form file: %v", err)
		}
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func doUpload(t *testing.T, env *testEnv, files map[string][]byte) UploadResponse {
	t.Helper()

	rec := httptest.NewRecorder()
	UploadHandler(env.manager, env.cfg, env.logger)(rec, multipartUpload(t, files))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("Upload returned %d: %s", rec.Code, rec.Body.String())
	}

	var resp UploadResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode upload response: %v", err)
	}
	return resp
}

// ========================================
// Upload Handler Tests
// ========================================

func TestUploadHandler_MixedSelection(t *testing.T) {
	env := setupEnv(t, &fakeDetector{ready: true, persons: 1}, nil)

	resp := doUpload(t, env, map[string][]byte{
		"photo.png": pngBytes(),
		"notes.txt": []byte("not an image at all"),
	})

	if resp.Accepted != 1 || resp.Skipped != 1 {
		t.Errorf("Unexpected response: %+v", resp)
	}

	waitIdle(t, env.manager)

	stats := env.manager.Stats()
	if stats.Total != 1 || stats.Processed != 1 || stats.Failed != 0 {
		t.Errorf("Unexpected stats: %+v", stats)
	}

	// The text file shows up nowhere: no category, no failure.
	single := env.manager.GetStore().ByCategory(model.CategorySingle)
	if len(single) != 1 || single[0].SourceName != "photo.png" {
		t.Errorf("Unexpected single-person results: %+v", single)
	}
}

func TestUploadHandler_ModelUnavailable(t *testing.T) {
	env := setupEnv(t, &fakeDetector{ready: false}, nil)

	rec := httptest.NewRecorder()
	UploadHandler(env.manager, env.cfg, env.logger)(rec, multipartUpload(t, map[string][]byte{
		"photo.png": pngBytes(),
	}))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rec.Code)
	}
}

func TestUploadHandler_MethodNotAllowed(t *testing.T) {
	env := setupEnv(t, &fakeDetector{ready: true}, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/upload", nil)
	UploadHandler(env.manager, env.cfg, env.logger)(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestUploadHandler_OnlyNonImages(t *testing.T) {
	env := setupEnv(t, &fakeDetector{ready: true}, nil)

	resp := doUpload(t, env, map[string][]byte{
		"a.txt": []byte("first text file"),
		"b.txt": []byte("second text file"),
	})

	if resp.Accepted != 0 || resp.Skipped != 2 {
		t.Errorf("Unexpected response: %+v", resp)
	}

	waitIdle(t, env.manager)

	// A zero-image run completes immediately and percent stays well-defined.
	stats := env.manager.Stats()
	if stats.Total != 0 || !stats.Done() || stats.Percent() != 100 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

// ========================================
// Results Handler Tests
// ========================================

func TestResultsRoundTrip(t *testing.T) {
	env := setupEnv(t, &fakeDetector{ready: true, persons: 2}, nil)

	doUpload(t, env, map[string][]byte{"pair.png": pngBytes()})
	waitIdle(t, env.manager)

	// Listing shows the image under Two People.
	rec := httptest.NewRecorder()
	GetResultsHandler(env.manager, env.logger)(rec, httptest.NewRequest(http.MethodGet, "/api/results", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Results returned %d", rec.Code)
	}

	var data ResultsData
	if err := json.NewDecoder(rec.Body).Decode(&data); err != nil {
		t.Fatalf("Failed to decode results: %v", err)
	}
	if len(data.Categories) != 4 {
		t.Fatalf("Expected 4 categories, got %d", len(data.Categories))
	}

	var id string
	for _, c := range data.Categories {
		if c.Category == model.CategoryTwo {
			if c.Count != 1 {
				t.Fatalf("Expected 1 two-people image, got %d", c.Count)
			}
			id = c.Images[0].ID
		} else if c.Count != 0 {
			t.Errorf("Expected category %q empty, got %d", c.Category, c.Count)
		}
	}

	// The spooled bytes are served back.
	rec = httptest.NewRecorder()
	ViewResultHandler(env.manager)(rec, httptest.NewRequest(http.MethodGet, "/api/results/view?id="+id, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("View returned %d", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), pngBytes()) {
		t.Error("Served bytes do not match the upload")
	}

	// Deleting releases the entry.
	rec = httptest.NewRecorder()
	DeleteResultHandler(env.manager, env.logger)(rec, httptest.NewRequest(http.MethodGet, "/api/results/delete?id="+id, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Delete returned %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	ViewResultHandler(env.manager)(rec, httptest.NewRequest(http.MethodGet, "/api/results/view?id="+id, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", rec.Code)
	}
}

func TestDeleteResultHandler_AbsentID(t *testing.T) {
	env := setupEnv(t, &fakeDetector{ready: true}, nil)

	rec := httptest.NewRecorder()
	DeleteResultHandler(env.manager, env.logger)(rec, httptest.NewRequest(http.MethodGet, "/api/results/delete?id=missing", nil))

	// Removing an unknown id is a no-op, not an error.
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}

	var resp map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if existed, ok := resp["existed"].(bool); !ok || existed {
		t.Errorf("Expected existed=false, got %v", resp["existed"])
	}
}

func TestViewResultHandler_MissingParameter(t *testing.T) {
	env := setupEnv(t, &fakeDetector{ready: true}, nil)

	rec := httptest.NewRecorder()
	ViewResultHandler(env.manager)(rec, httptest.NewRequest(http.MethodGet, "/api/results/view", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestClearResultsHandler(t *testing.T) {
	env := setupEnv(t, &fakeDetector{ready: true, persons: 0}, nil)

	doUpload(t, env, map[string][]byte{"empty.png": pngBytes()})
	waitIdle(t, env.manager)

	rec := httptest.NewRecorder()
	ClearResultsHandler(env.manager, env.logger)(rec, httptest.NewRequest(http.MethodGet, "/api/results/clear", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Clear returned %d", rec.Code)
	}

	if env.manager.GetStore().Len() != 0 {
		t.Errorf("Expected empty store after clear")
	}
}

// ========================================
// Run Journal Handler Tests
// ========================================

func TestGetRunsHandler_NoJournal(t *testing.T) {
	env := setupEnv(t, &fakeDetector{ready: true}, nil)

	rec := httptest.NewRecorder()
	GetRunsHandler(env.manager, env.logger)(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 without journal, got %d", rec.Code)
	}
}

func TestGetRunsHandler_JournalsCompletedRun(t *testing.T) {
	db, err := sqlite.New(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := setupEnv(t, &fakeDetector{ready: true, persons: 1}, sqlite.NewRunRepository(db))

	resp := doUpload(t, env, map[string][]byte{"photo.png": pngBytes()})
	waitIdle(t, env.manager)

	rec := httptest.NewRecorder()
	GetRunsHandler(env.manager, env.logger)(rec, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Runs returned %d", rec.Code)
	}

	var runs []model.Run
	if err := json.NewDecoder(rec.Body).Decode(&runs); err != nil {
		t.Fatalf("Failed to decode runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 journaled run, got %d", len(runs))
	}
	run := runs[0]
	if run.ID != resp.RunID || run.Total != 1 || run.Processed != 1 || run.Status != model.RunStatusComplete {
		t.Errorf("Unexpected journaled run: %+v", run)
	}
	if run.FinishedAt == nil {
		t.Error("Expected FinishedAt to be set")
	}
}
