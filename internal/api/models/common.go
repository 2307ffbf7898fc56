// Package models provides request and response models for the AriaMap API.
package models

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ariamap/ariamap/internal/datamap"
)

// Envelope status codes. The wire contract reports success as 0 and
// failure as 1 in the `response` field.
const (
	ResponseOK    = 0
	ResponseError = 1
)

// Envelope is the uniform response wrapper for all API endpoints.
type Envelope struct {
	Response int         `json:"response"`
	Message  string      `json:"message"`
	Payload  interface{} `json:"payload,omitempty"`
}

// OK builds a success envelope.
func OK(message string, payload interface{}) Envelope {
	return Envelope{Response: ResponseOK, Message: message, Payload: payload}
}

// Fail builds a failure envelope.
func Fail(message string) Envelope {
	return Envelope{Response: ResponseError, Message: message}
}

// Write serializes the envelope with the given HTTP status.
func (e Envelope) Write(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(e)
}

// DataMapPayload is the wire representation of a generated map artifact.
type DataMapPayload struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Pollutant string    `json:"pollutant"`
	URL       string    `json:"url"`
	Region    string    `json:"region"`
}

// DataMapFromDomain converts a stored artifact into its payload form.
func DataMapFromDomain(dm *datamap.DataMap) DataMapPayload {
	return DataMapPayload{
		ID:        dm.ID,
		CreatedAt: dm.CreatedAt,
		Pollutant: dm.Pollutant,
		URL:       dm.URL,
		Region:    dm.Region,
	}
}

// SimulationRequest carries the tree-absorption simulation parameters:
// a bounding box, the number of synthetic absorption points to place in
// it, and the measurement date to simulate against.
type SimulationRequest struct {
	LatMin  *float64 `json:"lat_min"`
	LonMin  *float64 `json:"lon_min"`
	LatMax  *float64 `json:"lat_max"`
	LonMax  *float64 `json:"lon_max"`
	NPoints *int     `json:"n_points"`
	Date    string   `json:"date"`
}

// SimulationPayload lists the artifacts a simulation produced.
type SimulationPayload struct {
	Artifacts []ArtifactPayload `json:"artifacts"`
}

// ArtifactPayload is one generated simulation image.
type ArtifactPayload struct {
	Pollutant string `json:"pollutant"`
	Location  string `json:"location"`
}

// HealthSimulationRequest carries the forecast target date (YYYY-MM-DD).
type HealthSimulationRequest struct {
	Date string `json:"date"`
}

// StationPrediction is one per-station pollutant forecast in a health
// simulation response. Error is set when the forecast for that station
// failed; Pollutants is nil in that case.
type StationPrediction struct {
	Coordinates Coordinates    `json:"coordinates"`
	Pollutants  map[string]int `json:"pollutants,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// Coordinates is a lon/lat pair on the wire.
type Coordinates struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// HealthSimulationPayload is the health simulation response body.
type HealthSimulationPayload struct {
	TargetDate  string              `json:"target_date"`
	Location    string              `json:"location"`
	Predictions []StationPrediction `json:"predictions"`
}

// ImagePayload carries a base64-encoded map image.
type ImagePayload struct {
	ImageBase64 string `json:"image_base64"`
}
