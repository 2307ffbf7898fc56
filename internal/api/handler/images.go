package handler

import (
	"encoding/base64"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ariamap/ariamap/internal/api/models"
	"github.com/ariamap/ariamap/internal/api/response"
)

// ImagesHandler serves rendered map images as base64 JSON.
type ImagesHandler struct {
	mapsDir string
	logger  zerolog.Logger
}

// NewImagesHandler creates a new images handler rooted at mapsDir.
func NewImagesHandler(mapsDir string, logger zerolog.Logger) *ImagesHandler {
	if mapsDir == "" {
		mapsDir = "maps"
	}
	return &ImagesHandler{mapsDir: mapsDir, logger: logger}
}

// Serve handles GET /images/{region}/{date}/{hour}/{filename}. The path
// segments mirror the renderer's output layout.
func (h *ImagesHandler) Serve(w http.ResponseWriter, r *http.Request) {
	region := chi.URLParam(r, "region")
	date := chi.URLParam(r, "date")
	hour := chi.URLParam(r, "hour")
	filename := chi.URLParam(r, "filename")

	path := filepath.Join(h.mapsDir, region, date+"T"+hour, filename)

	// Reject any path that escapes the maps directory.
	cleaned := filepath.Clean(path)
	if !strings.HasPrefix(cleaned, filepath.Clean(h.mapsDir)+string(filepath.Separator)) {
		response.BadRequest(w, r, "invalid image path")
		return
	}

	data, err := os.ReadFile(cleaned)
	if err != nil {
		if os.IsNotExist(err) {
			response.NotFound(w, r, "file not found")
			return
		}
		h.logger.Error().Err(err).Str("path", cleaned).Msg("reading image")
		response.InternalError(w, r, "error reading image")
		return
	}

	response.OK(w, r, http.StatusOK, "image retrieved", models.ImagePayload{
		ImageBase64: base64.StdEncoding.EncodeToString(data),
	})
}
