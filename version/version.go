// Package version holds build metadata for keydiff.
package version

// Overridden at build time with -ldflags "-X github.com/TFMV/keydiff/version.Version=...".
var Version = "0.1.0"
var BuildDate = "2026-10-17"

func GetVersion() string {
	return Version
}

func GetBuildDate() string {
	return BuildDate
}

// String formats the version line printed by the CLI.
func String() string {
	return "keydiff v" + Version + " (built " + BuildDate + ")"
}
