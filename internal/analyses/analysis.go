// Package analyses implements the soil analysis domain: evidence capture to
// blob storage and durable analysis records awaiting engineer review.
package analyses

import (
	"time"

	"github.com/google/uuid"

	"github.com/terrasense/regolith/internal/device"
)

// StatusPending marks a freshly ingested record awaiting review.
const StatusPending = "PENDING"

// NotProvided is stored in place of the optional text fields (location,
// predicted soil type, evidence URL) when a run supplied no value. The
// columns are never null, so downstream consumers always see the marker.
const NotProvided = "Not provided"

// Analysis is a persisted soil analysis record.
type Analysis struct {
	ID                uuid.UUID `json:"id"`
	EngineerID        string    `json:"engineer_id"`
	Location          string    `json:"location"`
	TotalWeight       float64   `json:"total_weight"`
	GravelWeight      float64   `json:"gravel_weight"`
	SandWeight        float64   `json:"sand_weight"`
	GravelPercent     float64   `json:"gravel_percent"`
	SandPercent       float64   `json:"sand_percent"`
	FinesPercent      float64   `json:"fines_percent"`
	SoilType          string    `json:"soil_type"`
	PredictedSoilType string    `json:"predicted_soil_type"`
	ImageURL          string    `json:"image_url"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// orNotProvided collapses an absent or empty optional field to the stored
// marker.
func orNotProvided(v *string) string {
	if v == nil || *v == "" {
		return NotProvided
	}
	return *v
}

// IngestCommand carries everything needed to commit a completed analysis
// run. Image is the decoded evidence payload; nil means no evidence was
// captured for this run.
type IngestCommand struct {
	Owner             string
	Location          *string
	Results           device.Measurements
	PredictedSoilType *string
	Image             []byte
}
