package horosafe

import (
	"errors"
	"net"
	"strings"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://mappings.dev/1.20.1/net/minecraft/client/Minecraft.html", false},
		{"http://mappings.dev/1.20.1/index.html", false},
		{"ftp://mappings.dev/data", true},    // bad scheme
		{"javascript:alert(1)", true},        // bad scheme
		{"http://127.0.0.1/admin", true},     // loopback
		{"http://10.0.0.1/internal", true},   // private
		{"http://192.168.1.1/api", true},     // private
		{"http://[::1]/api", true},           // IPv6 loopback
		{"http://172.16.0.1/secret", true},   // private
		{"http:///no-host", true},            // no host
		{"http://0.0.0.0/unspecified", true}, // unspecified
	}
	for _, tt := range tests {
		err := ValidateURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateURL(%q) error=%v, wantErr=%v", tt.url, err, tt.wantErr)
		}
	}
}

func TestValidateClassPath(t *testing.T) {
	for _, ok := range []string{
		"net.minecraft.client.Minecraft",
		"net.minecraft.world.entity.Entity$RemovalReason",
		"Minecraft",
	} {
		if err := ValidateClassPath(ok); err != nil {
			t.Errorf("ValidateClassPath(%q): unexpected error %v", ok, err)
		}
	}

	for _, bad := range []string{
		"",
		"net..minecraft",
		"net/minecraft/Foo",
		"../etc/passwd",
		"net.minecraft.has space",
		".leading",
		strings.Repeat("a", 513),
	} {
		err := ValidateClassPath(bad)
		if !errors.Is(err, ErrInvalidClassPath) {
			t.Errorf("ValidateClassPath(%q): got %v, want ErrInvalidClassPath", bad, err)
		}
	}
}

func TestLimitedReadAll(t *testing.T) {
	data := strings.Repeat("x", 100)
	got, err := LimitedReadAll(strings.NewReader(data), 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 100 {
		t.Fatalf("expected 100 bytes, got %d", len(got))
	}

	got, err = LimitedReadAll(strings.NewReader(data), 100)
	if err != nil || len(got) != 100 {
		t.Fatalf("exact limit: got %d bytes, err %v", len(got), err)
	}

	_, err = LimitedReadAll(strings.NewReader(data), 50)
	if !errors.Is(err, ErrResponseTooLarge) {
		t.Fatalf("expected ErrResponseTooLarge, got %v", err)
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip      string
		private bool
	}{
		{"127.0.0.1", true},
		{"10.0.0.1", true},
		{"172.16.0.1", true},
		{"192.168.0.1", true},
		{"169.254.1.1", true},
		{"8.8.8.8", false},
		{"1.1.1.1", false},
		{"::1", true},
	}
	for _, tt := range tests {
		ip := net.ParseIP(tt.ip)
		if ip == nil {
			t.Fatalf("failed to parse IP %q", tt.ip)
		}
		if got := isPrivateIP(ip); got != tt.private {
			t.Errorf("isPrivateIP(%s) = %v, want %v", tt.ip, got, tt.private)
		}
	}
}
