package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ariamap/ariamap/internal/api/models"
	"github.com/ariamap/ariamap/internal/api/response"
	"github.com/ariamap/ariamap/internal/geo"
	"github.com/ariamap/ariamap/internal/measurement"
	"github.com/ariamap/ariamap/internal/pipeline"
)

// SimulationHandler runs tree-absorption what-if simulations.
type SimulationHandler struct {
	measurements measurement.Repository
	simulator    *pipeline.Simulator
	logger       zerolog.Logger
}

// NewSimulationHandler creates a new simulation handler.
func NewSimulationHandler(measurements measurement.Repository, simulator *pipeline.Simulator, logger zerolog.Logger) *SimulationHandler {
	return &SimulationHandler{
		measurements: measurements,
		simulator:    simulator,
		logger:       logger,
	}
}

// Run handles POST /simulations. The caller supplies a bounding box to
// plant, the number of synthetic absorption points, and the measurement
// date to simulate against.
func (h *SimulationHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req models.SimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "malformed simulation body")
		return
	}

	if req.LatMin == nil || req.LonMin == nil || req.LatMax == nil || req.LonMax == nil || req.NPoints == nil {
		response.BadRequest(w, r, "missing parameters")
		return
	}

	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		response.BadRequest(w, r, "invalid date, expected YYYY-MM-DD")
		return
	}

	ms, err := h.measurements.FindBetween(r.Context(), day, day.AddDate(0, 0, 1).Add(-time.Nanosecond))
	if err != nil {
		h.logger.Error().Err(err).Msg("loading measurements for simulation")
		response.InternalError(w, r, "error loading measurements")
		return
	}
	if len(ms) == 0 {
		response.NotFound(w, r, "no measurements found for date")
		return
	}

	result, err := h.simulator.Run(r.Context(), ms, pipeline.SimulationRequest{
		Area: geo.Bounds{
			North: *req.LatMax,
			South: *req.LatMin,
			East:  *req.LonMax,
			West:  *req.LonMin,
		},
		NPoints: *req.NPoints,
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidSimulation) {
			response.BadRequest(w, r, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("running simulation")
		response.InternalError(w, r, "simulation failed")
		return
	}

	payload := models.SimulationPayload{}
	for _, a := range result.Artifacts {
		payload.Artifacts = append(payload.Artifacts, models.ArtifactPayload{
			Pollutant: string(a.Pollutant),
			Location:  a.Location,
		})
	}

	response.OK(w, r, http.StatusOK, "simulation completed", payload)
}
