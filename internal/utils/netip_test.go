package utils

import (
	"net/http/httptest"
	"testing"
)

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{"10.0.0.0/8", " 192.168.1.5 ", "fd00::/8", "garbage", ""})

	tests := []struct {
		ip   string
		want bool
	}{
		{"10.20.30.40", true},
		{"192.168.1.5", true},
		{"::ffff:192.168.1.5", true},
		{"192.168.1.6", false},
		{"fd12::1", true},
		{"not-an-ip", false},
	}
	for _, tt := range tests {
		if got := m.Allow(tt.ip); got != tt.want {
			t.Errorf("Allow(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}
	if m.IsEmpty() {
		t.Error("IsEmpty() = true")
	}
	if !NewIPMatcher([]string{"nope"}).IsEmpty() {
		t.Error("matcher with only invalid entries should be empty")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "127.0.0.1:4321"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	if got := ClientIP(req, false); got != "127.0.0.1" {
		t.Errorf("ClientIP(untrusted) = %q", got)
	}
	if got := ClientIP(req, true); got != "203.0.113.7" {
		t.Errorf("ClientIP(trusted) = %q", got)
	}

	req.Header.Set("CF-Connecting-IP", "198.51.100.2")
	if got := ClientIP(req, true); got != "198.51.100.2" {
		t.Errorf("ClientIP(cloudflare) = %q", got)
	}
}

func TestParseHostNoPort(t *testing.T) {
	tests := map[string]string{
		"1.2.3.4:80":  "1.2.3.4",
		"[::1]:8080":  "::1",
		"nvrsync.lan": "nvrsync.lan",
		"":            "",
	}
	for in, want := range tests {
		if got := ParseHostNoPort(in); got != want {
			t.Errorf("ParseHostNoPort(%q) = %q, want %q", in, got, want)
		}
	}
}
