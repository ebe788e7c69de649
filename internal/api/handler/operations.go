package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/maraichr/curator/internal/ingestion"
	"github.com/maraichr/curator/internal/progress"
	"github.com/maraichr/curator/pkg/apierr"
)

type OperationHandler struct {
	logger  *slog.Logger
	tracker *progress.Tracker
	orch    *ingestion.Orchestrator
}

func NewOperationHandler(logger *slog.Logger, tracker *progress.Tracker, orch *ingestion.Orchestrator) *OperationHandler {
	return &OperationHandler{logger: logger, tracker: tracker, orch: orch}
}

// Get returns the current snapshot of one operation. Poll this.
func (h *OperationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "operationID")
	if _, err := uuid.Parse(id); err != nil {
		writeAPIError(w, h.logger, apierr.InvalidOperationID())
		return
	}

	op, ok := h.tracker.Get(id)
	if !ok {
		writeAPIError(w, h.logger, apierr.OperationNotFound())
		return
	}

	writeJSON(w, http.StatusOK, op)
}

// List returns snapshots of all tracked operations, newest first.
func (h *OperationHandler) List(w http.ResponseWriter, r *http.Request) {
	ops := h.tracker.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"operations": ops,
		"total":      len(ops),
	})
}

// Cancel requests cancellation of a running operation. Cancelling an
// operation that already reached a terminal state is a no-op and returns its
// final snapshot.
func (h *OperationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "operationID")
	if _, err := uuid.Parse(id); err != nil {
		writeAPIError(w, h.logger, apierr.InvalidOperationID())
		return
	}

	op, ok := h.tracker.Get(id)
	if !ok {
		writeAPIError(w, h.logger, apierr.OperationNotFound())
		return
	}
	if op.Status.IsTerminal() {
		writeJSON(w, http.StatusOK, op)
		return
	}

	h.orch.Cancel(id)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"operation_id": id,
		"status":       "cancelling",
	})
}
