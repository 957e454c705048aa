package device_test

import (
	"errors"
	"testing"

	"github.com/terrasense/regolith/internal/device"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    device.Command
		wantErr bool
	}{
		{"coarse separation", "1", device.StartCoarseSeparation, false},
		{"fine separation", "2", device.StartFineSeparation, false},
		{"request weight", "W", device.RequestWeight, false},
		{"reset", "R", device.Reset, false},
		{"full analysis", "3", device.RunFullAnalysis, false},
		{"empty", "", "", true},
		{"unknown token", "X", "", true},
		{"lowercase weight", "w", "", true},
		{"multi-character", "1W", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := device.ParseCommand(tc.input)

			if tc.wantErr {
				if !errors.Is(err, device.ErrInvalidCommand) {
					t.Fatalf("err = %v, want ErrInvalidCommand", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd != tc.want {
				t.Errorf("cmd = %q, want %q", cmd, tc.want)
			}
		})
	}
}

func TestCommandSimple(t *testing.T) {
	simple := []device.Command{
		device.StartCoarseSeparation,
		device.StartFineSeparation,
		device.RequestWeight,
		device.Reset,
	}

	for _, cmd := range simple {
		if !cmd.Simple() {
			t.Errorf("%q.Simple() = false, want true", cmd)
		}
	}

	if device.RunFullAnalysis.Simple() {
		t.Error("full analysis command reported as simple")
	}
}
