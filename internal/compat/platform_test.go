package compat

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalizeOS(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Darwin", "macos"},
		{"darwin", "macos"},
		{" DARWIN ", "macos"},
		{"Linux", "linux"},
		{"linux", "linux"},
		{"Windows", "windows"},
		{"FreeBSD", "freebsd"},
		{"openbsd", "openbsd"},
	}
	for _, tt := range tests {
		if got := NormalizeOS(tt.in); got != tt.want {
			t.Errorf("NormalizeOS(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRuntimeMajorMinor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"go1.26.0", "1.26"},
		{"go1.26", "1.26"},
		{"go1.27rc1", "1.27"},
		{"1.25.3", "1.25"},
		{"devel go1.27-3f8a91c Mon Aug 24", "1.27"},
		{"unknown", "unknown"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := RuntimeMajorMinor(tt.in); got != tt.want {
			t.Errorf("RuntimeMajorMinor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDetectDeterministic(t *testing.T) {
	a := Detect()
	b := Detect()
	if a != b {
		t.Errorf("Detect not deterministic: %+v vs %+v", a, b)
	}
	if a.Key != PlatformKey(a.OSName, a.RuntimeVersion) {
		t.Errorf("key %q does not match os %q + runtime %q", a.Key, a.OSName, a.RuntimeVersion)
	}
	if a.OSName != strings.ToLower(a.OSName) {
		t.Errorf("os name not normalized: %q", a.OSName)
	}
	if a.OSName == "darwin" {
		t.Error("darwin must normalize to macos")
	}
	if a.RuntimeVersion == "" {
		t.Error("runtime version empty")
	}
}

func TestPlatformKeyShape(t *testing.T) {
	if got := PlatformKey("macos", "1.26"); got != "macos-1.26" {
		t.Errorf("PlatformKey = %q", got)
	}
}

func TestProfilePath(t *testing.T) {
	info := PlatformInfo{OSName: "linux", RuntimeVersion: "1.26"}
	want := filepath.Join("/data/profiles", "linux", "1.26", "profile.json")
	if got := ProfilePath("/data/profiles", info); got != want {
		t.Errorf("ProfilePath = %q, want %q", got, want)
	}
}
