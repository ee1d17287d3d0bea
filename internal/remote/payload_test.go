package remote

import (
	"testing"
)

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantNames []string
		wantErr   bool
	}{
		{
			name:      "two cameras",
			body:      `{"mqtt":{"host":"broker"},"cameras":{"front_door":{"detect":{"fps":5}},"garage":{"enabled":true}}}`,
			wantNames: []string{"front_door", "garage"},
		},
		{
			name:      "empty cameras object",
			body:      `{"cameras":{}}`,
			wantNames: nil,
		},
		{
			name:    "missing cameras object",
			body:    `{"mqtt":{}}`,
			wantErr: true,
		},
		{
			name:    "null cameras",
			body:    `{"cameras":null}`,
			wantErr: true,
		},
		{
			name:    "not json",
			body:    `<html>bad gateway</html>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseConfig([]byte(tt.body))
			if tt.wantErr {
				if err == nil {
					t.Fatal("ParseConfig() should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseConfig() error = %v", err)
			}
			cams := p.Cameras()
			if len(cams) != len(tt.wantNames) {
				t.Fatalf("Cameras() len = %d, want %d", len(cams), len(tt.wantNames))
			}
			for _, n := range tt.wantNames {
				if _, ok := cams[n]; !ok {
					t.Errorf("Cameras() missing %q", n)
				}
			}
		})
	}
}

func TestParseConfigKeepsBlobVerbatim(t *testing.T) {
	p, err := ParseConfig([]byte(`{"cameras":{"garage":{"ffmpeg":{"inputs":[{"path":"rtsp://x"}]},"z":1}}}`))
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	want := `{"ffmpeg":{"inputs":[{"path":"rtsp://x"}]},"z":1}`
	if got := string(p.Cameras()["garage"]); got != want {
		t.Errorf("garage config = %s, want %s", got, want)
	}
}

func TestStatsActivity(t *testing.T) {
	body := `{
		"front_door": {"camera_fps": 5.1, "process_fps": 5.0},
		"garage": {"camera_fps": 0.0},
		"driveway": {"camera_fps": null},
		"porch": {"camera_fps": "5"},
		"detectors": {"cpu": {"inference_speed": 10}},
		"service": {"uptime": 100, "version": "0.13"},
		"detection_fps": 3.2,
		"cameras": {
			"backyard": {"camera_fps": 15},
			"garage": {"camera_fps": 2}
		}
	}`

	p, err := ParseStats([]byte(body))
	if err != nil {
		t.Fatalf("ParseStats() error = %v", err)
	}
	got := p.Activity()

	want := map[string]bool{
		"front_door": true,
		"garage":     true, // nested entry wins
		"backyard":   true,
	}
	if len(got) != len(want) {
		t.Fatalf("Activity() = %v, want %v", got, want)
	}
	for name, active := range want {
		if got[name] != active {
			t.Errorf("Activity()[%s] = %v, want %v", name, got[name], active)
		}
	}
}

func TestStatsActivityZeroFPS(t *testing.T) {
	p, err := ParseStats([]byte(`{"garage":{"camera_fps":0}}`))
	if err != nil {
		t.Fatalf("ParseStats() error = %v", err)
	}
	active, ok := p.Activity()["garage"]
	if !ok || active {
		t.Errorf("Activity()[garage] = (%v, %v), want (false, true)", active, ok)
	}
}

func TestParseStatsRejectsNonObject(t *testing.T) {
	for _, body := range []string{`[1,2]`, `null`, `oops`} {
		if _, err := ParseStats([]byte(body)); err == nil {
			t.Errorf("ParseStats(%s) should return error", body)
		}
	}
}
