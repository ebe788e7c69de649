package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/maraichr/curator/internal/ingestion"
	"github.com/maraichr/curator/internal/store"
	minioclient "github.com/maraichr/curator/internal/store/minio"
	"github.com/maraichr/curator/internal/store/postgres"
	"github.com/maraichr/curator/pkg/apierr"
)

// maxUploadBytes caps a single uploaded file at 100MB.
const maxUploadBytes = 100 * 1024 * 1024

type IngestHandler struct {
	logger *slog.Logger
	store  *store.Store
	minio  *minioclient.Client
	orch   *ingestion.Orchestrator
}

func NewIngestHandler(logger *slog.Logger, s *store.Store, minio *minioclient.Client, orch *ingestion.Orchestrator) *IngestHandler {
	return &IngestHandler{logger: logger, store: s, minio: minio, orch: orch}
}

type crawlRequest struct {
	URL      string `json:"url"`
	MaxPages int    `json:"max_pages"`
	MaxDepth int    `json:"max_depth"`
}

// Crawl accepts a crawl submission and returns its operation id immediately.
func (h *IngestHandler) Crawl(w http.ResponseWriter, r *http.Request) {
	var req crawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, h.logger, apierr.InvalidRequestBody())
		return
	}
	if req.URL == "" {
		writeAPIError(w, h.logger, apierr.URLRequired())
		return
	}
	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		writeAPIError(w, h.logger, apierr.URLInvalid())
		return
	}

	source, err := h.store.CreateSource(r.Context(), postgres.CreateSourceParams{
		Kind: "crawl",
		Name: u.Host,
		URI:  req.URL,
	})
	if err != nil {
		writeAPIError(w, h.logger, apierr.SubmitFailed(err))
		return
	}

	id := h.orch.SubmitCrawl(source, ingestion.CrawlRequest{
		URL:      req.URL,
		MaxPages: req.MaxPages,
		MaxDepth: req.MaxDepth,
	})

	writeJSON(w, http.StatusAccepted, map[string]any{
		"operation_id": id,
		"source_id":    source.ID,
	})
}

// Upload stages a multipart file upload and returns its operation id
// immediately. The payload goes to object storage first so the request body
// is released before any processing starts.
func (h *IngestHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeAPIError(w, h.logger, apierr.FileRequired())
		return
	}
	defer file.Close()

	if header.Size == 0 {
		writeAPIError(w, h.logger, apierr.FileEmpty(fmt.Sprintf("empty file: %s", header.Filename)))
		return
	}

	filename := header.Filename
	if filename == "" {
		filename = "upload-" + uuid.New().String()[:8]
	}

	objectName := fmt.Sprintf("uploads/%s/%s", uuid.New().String(), filename)
	contentType := header.Header.Get("Content-Type")

	var tags []string
	for _, t := range strings.Split(r.FormValue("tags"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	if err := h.minio.Stage(r.Context(), objectName, file, header.Size, contentType); err != nil {
		writeAPIError(w, h.logger, apierr.StagingFailed(err))
		return
	}

	source, err := h.store.CreateSource(r.Context(), postgres.CreateSourceParams{
		Kind: "upload",
		Name: filename,
		URI:  objectName,
	})
	if err != nil {
		writeAPIError(w, h.logger, apierr.SubmitFailed(err))
		return
	}

	id := h.orch.SubmitUpload(source, ingestion.UploadRequest{
		ObjectName:  objectName,
		Filename:    filename,
		ContentType: contentType,
		Tags:        tags,
	})

	writeJSON(w, http.StatusAccepted, map[string]any{
		"operation_id": id,
		"source_id":    source.ID,
	})
}
