package leap

import (
	"encoding/json"
	"testing"
)

func TestSerialNumber_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  SerialNumber
	}{
		{"unquoted number", `{"SerialNumber": 68130838}`, "68130838"},
		{"quoted string", `{"SerialNumber": "68130838"}`, "68130838"},
		{"null", `{"SerialNumber": null}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec DeviceRecord
			if err := json.Unmarshal([]byte(tt.input), &rec); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if rec.SerialNumber != tt.want {
				t.Errorf("SerialNumber = %q, want %q", rec.SerialNumber, tt.want)
			}
		})
	}
}

func TestStatusCode_OK(t *testing.T) {
	tests := []struct {
		status StatusCode
		want   bool
	}{
		{"200 OK", true},
		{"204 NoContent", true},
		{"404 NotFound", false},
		{"500 InternalError", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := tt.status.OK(); got != tt.want {
			t.Errorf("StatusCode(%q).OK() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestDeviceRecord_QualifiedName(t *testing.T) {
	tests := []struct {
		name string
		rec  DeviceRecord
		want string
	}{
		{
			name: "joins name segments",
			rec:  DeviceRecord{Name: "Pico", FullyQualifiedName: []string{"Living Room", "Blinds", "Pico"}},
			want: "Living Room Blinds Pico",
		},
		{
			name: "falls back to bare name",
			rec:  DeviceRecord{Name: "Pico"},
			want: "Pico",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.QualifiedName(); got != tt.want {
				t.Errorf("QualifiedName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGoToTilt_Shape(t *testing.T) {
	raw, err := json.Marshal(GoToTilt(75))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var body struct {
		Command struct {
			CommandType    string `json:"CommandType"`
			TiltParameters struct {
				Tilt int `json:"Tilt"`
			} `json:"TiltParameters"`
		} `json:"Command"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if body.Command.CommandType != "GoToTilt" {
		t.Errorf("CommandType = %q, want GoToTilt", body.Command.CommandType)
	}
	if body.Command.TiltParameters.Tilt != 75 {
		t.Errorf("Tilt = %d, want 75", body.Command.TiltParameters.Tilt)
	}
}
