package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/ariamap/ariamap/internal/api/models"
	"github.com/ariamap/ariamap/internal/api/response"
	"github.com/ariamap/ariamap/internal/datamap"
	"github.com/ariamap/ariamap/internal/forecast"
	"github.com/ariamap/ariamap/internal/geo"
	"github.com/ariamap/ariamap/internal/measurement"
	"github.com/ariamap/ariamap/internal/render"
)

// wirePollutantKeys maps stored pollutant keys to their wire names in
// health simulation responses.
var wirePollutantKeys = map[measurement.Pollutant]string{
	measurement.PollutantPM25: "pm2_5",
	measurement.PollutantPM10: "pm10",
	measurement.PollutantNO2:  "no2",
	measurement.PollutantO3:   "o3",
	measurement.PollutantSO2:  "so2",
}

// HealthSimulationHandler produces forecast-driven health maps.
type HealthSimulationHandler struct {
	forecasts *forecast.Service
	renderer  render.Renderer
	artifacts datamap.Repository
	logger    zerolog.Logger
	clock     clockwork.Clock
}

// NewHealthSimulationHandler creates a new health simulation handler.
func NewHealthSimulationHandler(forecasts *forecast.Service, renderer render.Renderer, artifacts datamap.Repository, logger zerolog.Logger, clock clockwork.Clock) *HealthSimulationHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &HealthSimulationHandler{
		forecasts: forecasts,
		renderer:  renderer,
		artifacts: artifacts,
		logger:    logger,
		clock:     clock,
	}
}

// Run handles POST /health-simulation/datamap. It forecasts every
// station cluster to the target date, interpolates the predicted health
// index, and persists the rendered map under the health tag.
func (h *HealthSimulationHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req models.HealthSimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "malformed request body")
		return
	}
	if req.Date == "" {
		response.BadRequest(w, r, "missing 'date' parameter")
		return
	}

	targetDate, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		response.BadRequest(w, r, "invalid date, expected YYYY-MM-DD")
		return
	}

	result, err := h.forecasts.HealthMapForDate(r.Context(), targetDate)
	if err != nil {
		switch {
		case errors.Is(err, measurement.ErrNoMeasurements):
			response.NotFound(w, r, "no stations found for today")
		case errors.Is(err, forecast.ErrAllStationsFailed):
			h.logger.Error().Err(err).Msg("health forecast failed on every cluster")
			response.InternalError(w, r, "no valid prediction obtained for the health index")
		default:
			h.logger.Error().Err(err).Msg("building health forecast map")
			response.InternalError(w, r, "error generating health map")
		}
		return
	}

	location, err := h.renderer.Render(r.Context(), render.Request{
		Grid:         result.Surface.Grid,
		Values:       result.Surface.Result.Mean,
		Coords:       result.Surface.Coords,
		SourceValues: result.Surface.Values,
		Label:        datamap.HealthIndexTag,
		Region:       "Puglia",
		Bounds:       geo.PugliaBounds,
		Timestamp:    h.clock.Now(),
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("rendering health map")
		response.InternalError(w, r, "error rendering health map")
		return
	}

	if err := h.artifacts.Save(r.Context(), &datamap.DataMap{
		CreatedAt: h.clock.Now(),
		Pollutant: datamap.HealthIndexTag,
		URL:       location,
		Region:    "Puglia",
	}); err != nil {
		h.logger.Error().Err(err).Msg("saving health artifact")
		response.InternalError(w, r, "error saving health map")
		return
	}

	payload := models.HealthSimulationPayload{
		TargetDate: req.Date,
		Location:   location,
	}
	for _, f := range result.Forecasts {
		values := make(map[string]int, len(f.Values))
		for pollutant, v := range f.Values {
			values[wirePollutantKeys[pollutant]] = v
		}
		payload.Predictions = append(payload.Predictions, models.StationPrediction{
			Coordinates: models.Coordinates{Longitude: f.Point.Lon, Latitude: f.Point.Lat},
			Pollutants:  values,
		})
	}
	for _, f := range result.Failures {
		payload.Predictions = append(payload.Predictions, models.StationPrediction{
			Coordinates: models.Coordinates{Longitude: f.Point.Lon, Latitude: f.Point.Lat},
			Error:       f.Err.Error(),
		})
	}

	response.OK(w, r, http.StatusOK, "health map generated", payload)
}

// Latest handles GET /health-simulation/datamap/latest.
func (h *HealthSimulationHandler) Latest(w http.ResponseWriter, r *http.Request) {
	latest, err := h.artifacts.FindLatest(r.Context(), datamap.HealthIndexTag)
	if err != nil {
		if errors.Is(err, datamap.ErrNotFound) {
			response.NotFound(w, r, "no datamap found")
			return
		}
		h.logger.Error().Err(err).Msg("loading latest health datamap")
		response.InternalError(w, r, "error loading datamap")
		return
	}

	response.OK(w, r, http.StatusOK, "datamap retrieved", []models.DataMapPayload{
		models.DataMapFromDomain(latest),
	})
}
