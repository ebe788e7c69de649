package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/maraichr/curator/internal/progress"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func operationsRouter(tracker *progress.Tracker) *chi.Mux {
	h := NewOperationHandler(testLogger(), tracker, nil)
	r := chi.NewRouter()
	r.Get("/operations", h.List)
	r.Get("/operations/{operationID}", h.Get)
	r.Delete("/operations/{operationID}", h.Cancel)
	return r
}

func TestGetOperation(t *testing.T) {
	tracker := progress.NewTracker(testLogger(), nil)
	id := uuid.New().String()
	tracker.Start(id, progress.KindUpload, map[string]any{"filename": "doc.pdf"})
	tracker.Update(id, progress.StatusReading, 3, "reading doc.pdf", nil)

	rec := httptest.NewRecorder()
	operationsRouter(tracker).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/operations/"+id, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var op progress.Operation
	if err := json.Unmarshal(rec.Body.Bytes(), &op); err != nil {
		t.Fatal(err)
	}
	if op.ID != id || op.Status != progress.StatusReading || op.Progress != 3 {
		t.Errorf("op = %+v", op)
	}
}

func TestGetOperationNotFound(t *testing.T) {
	tracker := progress.NewTracker(testLogger(), nil)

	rec := httptest.NewRecorder()
	operationsRouter(tracker).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/operations/"+uuid.New().String(), nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	errObj, _ := body["error"].(map[string]any)
	if errObj["code"] != "OPERATION_NOT_FOUND" {
		t.Errorf("error body = %v", body)
	}
}

func TestGetOperationInvalidID(t *testing.T) {
	tracker := progress.NewTracker(testLogger(), nil)

	rec := httptest.NewRecorder()
	operationsRouter(tracker).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/operations/not-a-uuid", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestListOperations(t *testing.T) {
	tracker := progress.NewTracker(testLogger(), nil)
	tracker.Start(uuid.New().String(), progress.KindUpload, nil)
	tracker.Start(uuid.New().String(), progress.KindCrawl, nil)

	rec := httptest.NewRecorder()
	operationsRouter(tracker).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/operations", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Operations []progress.Operation `json:"operations"`
		Total      int                  `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Total != 2 || len(body.Operations) != 2 {
		t.Errorf("total = %d, operations = %d", body.Total, len(body.Operations))
	}
}

func TestCancelFinishedOperationIsNoOp(t *testing.T) {
	tracker := progress.NewTracker(testLogger(), nil)
	id := uuid.New().String()
	tracker.Start(id, progress.KindUpload, nil)
	tracker.Complete(id, map[string]any{"chunks_stored": 4})

	rec := httptest.NewRecorder()
	operationsRouter(tracker).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/operations/"+id, nil))

	// The final snapshot comes back; nothing is cancelled.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var op progress.Operation
	if err := json.Unmarshal(rec.Body.Bytes(), &op); err != nil {
		t.Fatal(err)
	}
	if op.Status != progress.StatusCompleted {
		t.Errorf("status = %s, want completed", op.Status)
	}
}

func TestCancelUnknownOperation(t *testing.T) {
	tracker := progress.NewTracker(testLogger(), nil)

	rec := httptest.NewRecorder()
	operationsRouter(tracker).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/operations/"+uuid.New().String(), nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
