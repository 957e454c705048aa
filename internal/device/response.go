package device

import "encoding/json"

// Status tags a controller response. The set is closed: a payload carrying
// any other tag is rejected at the relay boundary with ErrUnknownStatus.
type Status string

const (
	StatusUnknown Status = "unknown"
	StatusReading Status = "reading"
	StatusResults Status = "results"
	StatusReset   Status = "reset"
	StatusError   Status = "error"
)

// Response is a controller payload decoded once at the relay boundary.
// Value is set only when the controller reported a numeric scale reading.
// Results is non-nil only for the results tag.
type Response struct {
	Status  Status
	Message string
	Value   *float64
	Results *Measurements
}

// Measurements holds the computed fields of a completed analysis run.
// Partial is true when the controller omitted one or more required fields;
// omitted numerics are zero-filled rather than rejected, tolerating a
// partially-populated results payload.
type Measurements struct {
	TotalWeight   float64
	GravelWeight  float64
	SandWeight    float64
	GravelPercent float64
	SandPercent   float64
	FinesPercent  float64
	SoilType      string
	Partial       bool
}

// payload mirrors the controller's JSON wire format. Pointer fields
// distinguish absent values from zeroes. Value is decoded leniently: the
// controller has been observed sending non-numeric readings, which pass
// through as a reading without a weight rather than failing the body.
type payload struct {
	Status        *string  `json:"status"`
	Message       string   `json:"message"`
	Value         any      `json:"value"`
	TotalWeight   *float64 `json:"total_weight"`
	GravelWeight  *float64 `json:"gravel_weight"`
	SandWeight    *float64 `json:"sand_weight"`
	GravelPercent *float64 `json:"gravel_percent"`
	SandPercent   *float64 `json:"sand_percent"`
	FinesPercent  *float64 `json:"fines_percent"`
	SoilType      *string  `json:"soil_type"`
}

// decodeResponse parses a full controller body into a tagged Response.
// The entire body must parse before any field is read. A missing status
// field defaults to the unknown tag; a present but unrecognized tag is
// rejected.
func decodeResponse(body []byte) (*Response, error) {
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, ErrMalformedPayload
	}

	status := StatusUnknown
	if p.Status != nil {
		status = Status(*p.Status)
	}

	resp := &Response{
		Status:  status,
		Message: p.Message,
	}

	switch status {
	case StatusUnknown, StatusReset, StatusError:
	case StatusReading:
		if v, ok := p.Value.(float64); ok {
			resp.Value = &v
		}
	case StatusResults:
		resp.Results = decodeMeasurements(&p)
	default:
		return nil, ErrUnknownStatus
	}

	return resp, nil
}

func decodeMeasurements(p *payload) *Measurements {
	m := &Measurements{}

	m.TotalWeight, m.Partial = fill(p.TotalWeight, m.Partial)
	m.GravelWeight, m.Partial = fill(p.GravelWeight, m.Partial)
	m.SandWeight, m.Partial = fill(p.SandWeight, m.Partial)
	m.GravelPercent, m.Partial = fill(p.GravelPercent, m.Partial)
	m.SandPercent, m.Partial = fill(p.SandPercent, m.Partial)
	m.FinesPercent, m.Partial = fill(p.FinesPercent, m.Partial)

	if p.SoilType != nil {
		m.SoilType = *p.SoilType
	} else {
		m.Partial = true
	}

	return m
}

func fill(v *float64, partial bool) (float64, bool) {
	if v == nil {
		return 0, true
	}
	return *v, partial
}
