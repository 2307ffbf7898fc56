// Package handler provides HTTP handlers for the AriaMap API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ariamap/ariamap/internal/api/models"
	"github.com/ariamap/ariamap/internal/api/response"
	"github.com/ariamap/ariamap/internal/datamap"
	"github.com/ariamap/ariamap/internal/measurement"
)

// MeasurementHandler handles measurement ingestion and map lookups.
type MeasurementHandler struct {
	measurements measurement.Repository
	artifacts    datamap.Repository
	logger       zerolog.Logger
}

// NewMeasurementHandler creates a new measurement handler.
func NewMeasurementHandler(measurements measurement.Repository, artifacts datamap.Repository, logger zerolog.Logger) *MeasurementHandler {
	return &MeasurementHandler{
		measurements: measurements,
		artifacts:    artifacts,
		logger:       logger,
	}
}

// AddMeasurement handles POST /measurements.
// Stores a single station reading with its reported timestamp.
func (h *MeasurementHandler) AddMeasurement(w http.ResponseWriter, r *http.Request) {
	var record measurement.Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		response.BadRequest(w, r, "malformed measurement body")
		return
	}

	if err := h.measurements.Save(r.Context(), record.ToDomain()); err != nil {
		h.logger.Error().Err(err).Msg("saving measurement")
		response.InternalError(w, r, "error saving measurement")
		return
	}

	response.OK(w, r, http.StatusCreated, "measurement saved", nil)
}

// LatestDataMap handles GET /measurements/datamap/latest/{pollutant}.
// The "pm2.5" alias is normalized to the stored "pm2dot5" key.
func (h *MeasurementHandler) LatestDataMap(w http.ResponseWriter, r *http.Request) {
	pollutant := strings.ToLower(chi.URLParam(r, "pollutant"))
	if pollutant == "pm2.5" {
		pollutant = "pm2dot5"
	}

	latest, err := h.artifacts.FindLatest(r.Context(), pollutant)
	if err != nil {
		if errors.Is(err, datamap.ErrNotFound) {
			response.NotFound(w, r, "no datamap found")
			return
		}
		h.logger.Error().Err(err).Str("pollutant", pollutant).Msg("loading latest datamap")
		response.InternalError(w, r, "error loading datamap")
		return
	}

	response.OK(w, r, http.StatusOK, "datamap retrieved", []models.DataMapPayload{
		models.DataMapFromDomain(latest),
	})
}
