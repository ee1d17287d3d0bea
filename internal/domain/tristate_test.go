package domain

import (
	"encoding/json"
	"testing"
)

func TestTristateJSON(t *testing.T) {
	tests := []struct {
		name  string
		value Tristate
		json  string
	}{
		{name: "unknown", value: Unknown, json: "null"},
		{name: "true", value: True, json: "true"},
		{name: "false", value: False, json: "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.value)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(data) != tt.json {
				t.Errorf("Marshal() = %s, want %s", data, tt.json)
			}

			var got Tristate
			if err := json.Unmarshal([]byte(tt.json), &got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if got != tt.value {
				t.Errorf("Unmarshal() = %v, want %v", got, tt.value)
			}
		})
	}
}

func TestTristateBool(t *testing.T) {
	if v, known := Unknown.Bool(); v || known {
		t.Errorf("Unknown.Bool() = (%v, %v), want (false, false)", v, known)
	}
	if v, known := FromBool(true).Bool(); !v || !known {
		t.Errorf("True.Bool() = (%v, %v), want (true, true)", v, known)
	}
	if v, known := FromBool(false).Bool(); v || !known {
		t.Errorf("False.Bool() = (%v, %v), want (false, true)", v, known)
	}
}

func TestParseTristateInvalid(t *testing.T) {
	if _, err := ParseTristate("maybe"); err == nil {
		t.Error("ParseTristate(\"maybe\") should return error")
	}
}

func TestCameraNames(t *testing.T) {
	h := HostWithCameras{
		Cameras: []Camera{{ID: "1", Name: "front_door"}, {ID: "2", Name: "garage"}},
	}
	byName := h.CameraNames()
	if len(byName) != 2 {
		t.Fatalf("CameraNames() len = %d, want 2", len(byName))
	}
	if byName["garage"].ID != "2" {
		t.Errorf("CameraNames()[garage].ID = %q, want 2", byName["garage"].ID)
	}
}
