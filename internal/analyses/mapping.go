package analyses

import (
	"net/url"

	"github.com/terrasense/regolith/pkg/query"
	"github.com/terrasense/regolith/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "soil_analyses", "a").
	Project("id", "ID").
	Project("engineer_id", "EngineerID").
	Project("location", "Location").
	Project("total_weight", "TotalWeight").
	Project("gravel_weight", "GravelWeight").
	Project("sand_weight", "SandWeight").
	Project("gravel_percent", "GravelPercent").
	Project("sand_percent", "SandPercent").
	Project("fines_percent", "FinesPercent").
	Project("soil_type", "SoilType").
	Project("predicted_soil_type", "PredictedSoilType").
	Project("image_url", "ImageURL").
	Project("status", "Status").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for analysis queries.
// Nil fields are ignored. EngineerID, Status, and SoilType use exact
// matching. Location uses case-insensitive contains matching.
type Filters struct {
	EngineerID *string `json:"engineer_id,omitempty"`
	Status     *string `json:"status,omitempty"`
	SoilType   *string `json:"soil_type,omitempty"`
	Location   *string `json:"location,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("EngineerID", f.EngineerID).
		WhereEquals("Status", f.Status).
		WhereEquals("SoilType", f.SoilType).
		WhereContains("Location", f.Location)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if e := values.Get("engineer_id"); e != "" {
		f.EngineerID = &e
	}

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if st := values.Get("soil_type"); st != "" {
		f.SoilType = &st
	}

	if l := values.Get("location"); l != "" {
		f.Location = &l
	}

	return f
}

func scanAnalysis(s repository.Scanner) (Analysis, error) {
	var a Analysis
	err := s.Scan(
		&a.ID,
		&a.EngineerID,
		&a.Location,
		&a.TotalWeight,
		&a.GravelWeight,
		&a.SandWeight,
		&a.GravelPercent,
		&a.SandPercent,
		&a.FinesPercent,
		&a.SoilType,
		&a.PredictedSoilType,
		&a.ImageURL,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}
