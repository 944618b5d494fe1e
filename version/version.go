package version

import (
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is the release version, overridable at build time.
var Version = "0.1.0"

// DevVersion is the version used outside of release builds.
var DevVersion = "0.1.0"

// Mode is "dev" or "prod", overridable at build time.
var Mode = "dev"

func GetCurrentVersion() string {
	if Mode == "dev" {
		return DevVersion
	}
	return Version
}

// GetMinorVersion returns the major.minor prefix of a version string.
func GetMinorVersion(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) < 2 {
		return version
	}
	return parts[0] + "." + parts[1]
}

func IsVersionGreaterThan(version, target string) bool {
	return semver.Compare("v"+version, "v"+target) > 0
}

func IsVersionGreaterOrEqualThan(version, target string) bool {
	return semver.Compare("v"+version, "v"+target) >= 0
}

// SortVersions orders version strings ascending in place.
func SortVersions(versions []string) {
	sort.Slice(versions, func(i, j int) bool {
		return semver.Compare("v"+versions[i], "v"+versions[j]) < 0
	})
}
