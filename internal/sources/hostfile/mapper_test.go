package hostfile

import (
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func TestMapperMapHosts(t *testing.T) {
	file := &File{Hosts: []HostEntry{
		{Name: "garage", URL: "https://nvr-garage.lan:5000/"},
		{Name: " attic ", URL: "http://10.0.0.12:5000", Enabled: boolPtr(false)},
	}}

	hosts, err := NewMapper().MapHosts(file)
	if err != nil {
		t.Fatalf("MapHosts() error = %v", err)
	}
	if len(hosts) != 2 {
		t.Fatalf("MapHosts() returned %d hosts, want 2", len(hosts))
	}

	if hosts[0].URL != "https://nvr-garage.lan:5000" {
		t.Errorf("trailing slash kept: %q", hosts[0].URL)
	}
	if !hosts[0].Enabled {
		t.Error("omitted enabled should default to true")
	}
	if hosts[1].Name != "attic" || hosts[1].Enabled {
		t.Errorf("second host = %+v", hosts[1])
	}
}

func TestMapperRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name  string
		hosts []HostEntry
	}{
		{"missing name", []HostEntry{{URL: "http://nvr"}}},
		{"missing url", []HostEntry{{Name: "nvr"}}},
		{"bad scheme", []HostEntry{{Name: "nvr", URL: "ftp://nvr"}}},
		{"no host", []HostEntry{{Name: "nvr", URL: "http://"}}},
		{"duplicate url", []HostEntry{
			{Name: "a", URL: "http://nvr:5000"},
			{Name: "b", URL: "http://nvr:5000/"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMapper().MapHosts(&File{Hosts: tt.hosts}); err == nil {
				t.Error("MapHosts() should return error")
			}
		})
	}
}

func TestMapperEmptyFile(t *testing.T) {
	hosts, err := NewMapper().MapHosts(&File{})
	if err != nil || len(hosts) != 0 {
		t.Errorf("MapHosts(empty) = (%v, %v)", hosts, err)
	}
}
