package app

import "fmt"

// Set via ldflags, e.g.
// go build -ldflags "-X github.com/openlibraryenvironment/dcb-service-sub001/internal/app.Version=1.0.0"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// BuildVersion is reported at startup and by /health. Local builds without
// ldflags report just the version.
func BuildVersion() string {
	if Commit == "unknown" && BuildTime == "unknown" {
		return Version
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime)
}
