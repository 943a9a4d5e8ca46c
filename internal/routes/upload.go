package routes

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Arthur2500/ConvertZ/internal/alerts"
	"github.com/Arthur2500/ConvertZ/internal/config"
	"github.com/Arthur2500/ConvertZ/internal/convert"
	"github.com/Arthur2500/ConvertZ/internal/deliver"
	"github.com/Arthur2500/ConvertZ/internal/sanitize"
	"github.com/Arthur2500/ConvertZ/internal/util"
)

// Handler owns the upload-to-delivery pipeline endpoints.
type Handler struct {
	cfg    *config.Config
	orch   *convert.Orchestrator
	pack   *deliver.Packager
	notify *alerts.Notifier
}

func NewHandler(cfg *config.Config, orch *convert.Orchestrator, pack *deliver.Packager, notify *alerts.Notifier) *Handler {
	return &Handler{cfg: cfg, orch: orch, pack: pack, notify: notify}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Post("/upload", h.handleUpload)
}

func (h *Handler) APIRoutes(r chi.Router) {
	r.Post("/api/upload", h.handleAPIUpload)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, 200, map[string]interface{}{
		"status":  "ok",
		"version": config.Version,
	})
}

// handleUpload accepts one or more files under the "videos" field plus the
// shared parameter set, converts them all concurrently and responds with
// either the converted file or a zip bundle.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondJSON(w, 400, map[string]string{"error": "Failed to parse upload: file may be too large"})
		return
	}

	params, err := sanitize.Validate(
		formValueOr(r, "format", ""),
		formValueOr(r, "resolution", ""),
		formValueOr(r, "fps", ""),
		formValueOr(r, "bitrate", ""),
	)
	if err != nil {
		respondJSON(w, 400, map[string]string{"error": err.Error()})
		return
	}

	headers := r.MultipartForm.File["videos"]
	if len(headers) == 0 {
		respondJSON(w, 400, map[string]string{"error": "No files uploaded"})
		return
	}

	h.convertAndDeliver(w, headers, params)
}

// handleAPIUpload is the single-file variant with an optional shared-secret
// check.
func (h *Handler) handleAPIUpload(w http.ResponseWriter, r *http.Request) {
	if h.cfg.APIKey != "" && r.Header.Get("Authorization") != h.cfg.APIKey {
		respondJSON(w, 403, map[string]string{"error": "Forbidden"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondJSON(w, 400, map[string]string{"error": "Failed to parse upload: file may be too large"})
		return
	}

	params, err := sanitize.Validate(
		formValueOr(r, "format", ""),
		formValueOr(r, "resolution", ""),
		formValueOr(r, "fps", ""),
		formValueOr(r, "bitrate", ""),
	)
	if err != nil {
		respondJSON(w, 400, map[string]string{"error": err.Error()})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondJSON(w, 400, map[string]string{"error": "No file uploaded"})
		return
	}
	file.Close()

	h.convertAndDeliver(w, []*multipart.FileHeader{header}, params)
}

func (h *Handler) convertAndDeliver(w http.ResponseWriter, headers []*multipart.FileHeader, params sanitize.Params) {
	requestID := uuid.New().String()

	jobs := make([]convert.Job, 0, len(headers))
	for _, fh := range headers {
		path, err := h.stageUpload(fh)
		if err != nil {
			for _, j := range jobs {
				os.Remove(j.SourcePath)
			}
			respondJSON(w, 400, map[string]string{"error": err.Error()})
			return
		}
		jobs = append(jobs, convert.Job{
			ID:           strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			SourcePath:   path,
			OriginalName: fh.Filename,
		})
	}

	log.Printf("[%s] Received %d files for conversion (format=%s resolution=%d%% fps=%d bitrate=%dk)",
		requestID[:8], len(jobs), params.Format, params.Resolution, params.FPS, params.Bitrate)

	outputs, err := h.orch.RunAll(jobs, params)
	if err != nil {
		h.notify.ConversionFailed(requestID, params.Format, err)
		respondJSON(w, 500, map[string]string{"error": userError(err)})
		return
	}

	downloadName := downloadFilename(jobs[0].OriginalName, params.Format)
	h.pack.Deliver(w, outputs, params.Format, downloadName, requestID)
}

// stageUpload copies one uploaded part into the staging sandbox under a
// server-assigned name. The client filename contributes nothing but its
// extension, and only after the allow-list check.
func (h *Handler) stageUpload(fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext == "" || !config.AllowedUploadExts[ext] {
		return "", fmt.Errorf("Unsupported file type. Please upload a video file.")
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("Failed to read upload")
	}
	defer src.Close()

	tmpPath := filepath.Join(h.cfg.UploadDir, uuid.New().String()+ext)
	dst, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("Failed to save file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("Failed to save file")
	}
	return tmpPath, nil
}

func userError(err error) string {
	var cerr *convert.ConversionError
	switch {
	case errors.Is(err, convert.ErrUnsafePath):
		return "Unsafe file path"
	case errors.Is(err, convert.ErrOutputMissing):
		return "An error occurred during the conversion process."
	case errors.As(err, &cerr):
		return "An error occurred during the conversion process."
	default:
		return "Internal server error"
	}
}

// downloadFilename builds the client-facing name for single-file delivery.
// Display only; all paths derive from server-assigned storage names.
func downloadFilename(originalName, format string) string {
	stem := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))
	stem = util.ToASCIIFilename(util.SanitizeFilename(stem))
	if stem == "" {
		stem = "converted"
	}
	return stem + "." + format
}
