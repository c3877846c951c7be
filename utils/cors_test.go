package utils

import "testing"

func TestIsAllowedOrigin(t *testing.T) {
	tests := []struct {
		origin  string
		allowed bool
	}{
		// Allowed: localhost
		{"http://localhost", true},
		{"http://localhost:8000", true},
		{"https://localhost:3000", true},

		// Allowed: private IPs
		{"http://192.168.1.1", true},
		{"http://192.168.1.1:3000", true},
		{"http://10.0.0.1:8080", true},
		{"http://172.16.0.1", true},
		{"http://127.0.0.1:3000", true},

		// Allowed: link-local
		{"http://169.254.1.1", true},

		// Blocked: public domains
		{"http://example.com", false},
		{"https://evil.com", false},
		{"http://openapi.seoul.go.kr.evil.com", false},

		// Blocked: public IPs
		{"http://8.8.8.8", false},

		// Blocked: empty/invalid
		{"", false},
		{"not-a-url", false},
	}

	for _, tt := range tests {
		if got := IsAllowedOrigin(tt.origin); got != tt.allowed {
			t.Errorf("IsAllowedOrigin(%q) = %v, want %v", tt.origin, got, tt.allowed)
		}
	}
}

func TestAllowOriginsRegistersExactOrigin(t *testing.T) {
	origin := "https://seoulfest.example.com"
	if IsAllowedOrigin(origin) {
		t.Fatalf("expected %q to be blocked before registration", origin)
	}

	AllowOrigins(origin + "/")

	if !IsAllowedOrigin(origin) {
		t.Errorf("expected %q to be allowed after registration", origin)
	}
	if IsAllowedOrigin("https://other.example.com") {
		t.Errorf("registration must not open unrelated origins")
	}
}
