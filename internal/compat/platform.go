// Package compat is the SQL plugin's platform-compatibility layer. The SQL
// grammar parses differently across OS/runtime combinations; compat records
// each platform's raw parsing behavior into a versioned profile and adapts
// extraction output through an ordered rule pipeline so every platform ends
// up with equivalent element lists.
package compat

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ProfileFileName is the on-disk name of a platform's behavior profile.
const ProfileFileName = "profile.json"

// PlatformInfo identifies the environment a behavior profile belongs to.
// Key is the lookup key; OSVersion is informational and never part of it.
type PlatformInfo struct {
	OSName         string `json:"os_name"`
	OSVersion      string `json:"os_version"`
	RuntimeVersion string `json:"runtime_version"`
	Key            string `json:"platform_key"`
}

// Detect reads the ambient environment. It is a pure read: repeated calls
// in one process return identical values.
func Detect() PlatformInfo {
	osName := NormalizeOS(runtime.GOOS)
	rv := RuntimeMajorMinor(runtime.Version())
	return PlatformInfo{
		OSName:         osName,
		OSVersion:      osRelease(),
		RuntimeVersion: rv,
		Key:            PlatformKey(osName, rv),
	}
}

// PlatformKey builds the profile lookup key, "{os_name}-{runtime_version}".
func PlatformKey(osName, runtimeVersion string) string {
	return osName + "-" + runtimeVersion
}

// NormalizeOS maps an OS name to its profile family: darwin becomes macos,
// everything else is lowercased verbatim.
func NormalizeOS(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "darwin" {
		return "macos"
	}
	return n
}

// RuntimeMajorMinor reduces a runtime version string to "major.minor":
// "go1.26.0" becomes "1.26". Strings without a parseable version pass
// through trimmed rather than failing.
func RuntimeMajorMinor(v string) string {
	v = strings.TrimSpace(v)
	i := strings.IndexFunc(v, isDigit)
	if i < 0 {
		return v
	}
	v = v[i:]
	parts := strings.SplitN(v, ".", 3)
	if len(parts) < 2 {
		return v
	}
	minor := parts[1]
	if j := strings.IndexFunc(minor, func(r rune) bool { return !isDigit(r) }); j >= 0 {
		minor = minor[:j]
	}
	if minor == "" {
		return parts[0]
	}
	return parts[0] + "." + minor
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// ProfilePath is {base}/{os_name}/{runtime_version}/profile.json.
func ProfilePath(base string, info PlatformInfo) string {
	return filepath.Join(base, info.OSName, info.RuntimeVersion, ProfileFileName)
}

// osRelease returns the kernel release string where the platform exposes
// one. Best effort; informational only.
func osRelease() string {
	b, err := os.ReadFile("/proc/sys/kernel/osrelease")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
