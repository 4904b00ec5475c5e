package model

import (
	"fmt"
	"runtime"
	"strings"
)

// Platform is the operating system an asset variant targets.
// The string values match the "os" lists in the install catalog.
type Platform string

const (
	Windows Platform = "windows"
	Mac     Platform = "mac"
	Linux   Platform = "linux"
)

// IsValid returns true if the platform is recognized
func (p Platform) IsValid() bool {
	switch p {
	case Windows, Mac, Linux:
		return true
	default:
		return false
	}
}

// AllPlatforms returns all supported platforms
func AllPlatforms() []Platform {
	return []Platform{Windows, Mac, Linux}
}

// ParsePlatform parses a platform name, accepting GOOS spellings as aliases.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "windows", "win":
		return Windows, nil
	case "mac", "darwin", "macos", "osx":
		return Mac, nil
	case "linux":
		return Linux, nil
	case "":
		return "", fmt.Errorf("platform cannot be empty")
	default:
		return "", fmt.Errorf("unknown platform %q (valid: windows, mac, linux)", s)
	}
}

// PlatformForGOOS maps a Go GOOS value to a catalog platform.
func PlatformForGOOS(goos string) (Platform, error) {
	return ParsePlatform(goos)
}

// CurrentPlatform returns the platform of the running process.
func CurrentPlatform() (Platform, error) {
	return PlatformForGOOS(runtime.GOOS)
}
