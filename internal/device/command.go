// Package device implements the measurement controller domain: the closed
// command set, the relay that exchanges commands with the hardware over HTTP,
// and the interpreter that maps controller responses to typed outcomes.
package device

// Command is one of the closed set of tokens the controller accepts.
// The wire tokens match the controller firmware: single characters sent
// as the "input" query parameter.
type Command string

const (
	// StartCoarseSeparation begins the coarse (gravel) separation cycle.
	StartCoarseSeparation Command = "1"
	// StartFineSeparation begins the fine (sand) separation cycle.
	StartFineSeparation Command = "2"
	// RequestWeight reads the current scale value.
	RequestWeight Command = "W"
	// Reset returns the controller to its idle state.
	Reset Command = "R"
	// RunFullAnalysis executes the complete weighing sequence and returns
	// computed measurement results. The only command that may carry an
	// image and trigger persistence.
	RunFullAnalysis Command = "3"
)

// ParseCommand validates a wire token against the closed command set.
// Returns ErrInvalidCommand for anything outside the set; no network
// call is ever made for a rejected token.
func ParseCommand(token string) (Command, error) {
	switch Command(token) {
	case StartCoarseSeparation, StartFineSeparation, RequestWeight, Reset, RunFullAnalysis:
		return Command(token), nil
	}
	return "", ErrInvalidCommand
}

// Simple reports whether the command is a fire-and-forget status query,
// valid on the read-style entry point.
func (c Command) Simple() bool {
	return c != RunFullAnalysis
}
