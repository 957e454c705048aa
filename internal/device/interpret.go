package device

// Outcome is the interpreted form of a controller response, ready for the
// API boundary. Interpretation is stateless: each relay call is an
// independent evaluation with no state carried between invocations.
type Outcome struct {
	Status  Status
	Message string
	// Weight is set when a reading response carried a numeric scale value.
	Weight *float64
	// Results is non-nil only for a completed analysis run; it is the sole
	// outcome that triggers the authorization, evidence, and persistence
	// stages.
	Results *Measurements
	// Failed marks a controller-reported error; Message carries the
	// device's own description.
	Failed bool
}

// Interpret maps a decoded controller response to an Outcome.
func Interpret(resp *Response) Outcome {
	out := Outcome{
		Status:  resp.Status,
		Message: resp.Message,
	}

	switch resp.Status {
	case StatusUnknown, StatusReset:
		// Pass status and message through verbatim.
	case StatusReading:
		out.Weight = resp.Value
	case StatusResults:
		out.Results = resp.Results
	case StatusError:
		out.Failed = true
	}

	return out
}
