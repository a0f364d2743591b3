// Package buildinfo contains build-time information embedded via ldflags.
package buildinfo

// Version, Commit, and BuildDate are set at build time via ldflags.
// Example:
//
//	go build -ldflags "\
//	  -X github.com/scidataarchive/depositd/internal/buildinfo.Version=v1.0.0 \
//	  -X github.com/scidataarchive/depositd/internal/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/scidataarchive/depositd/internal/buildinfo.BuildDate=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// GetVersion returns the current version, with "dev" as the default for
// development builds.
func GetVersion() string {
	if Version == "" {
		return "dev"
	}
	return Version
}

// String renders a one-line "version (commit, built date)" summary,
// printed by the version subcommand.
func String() string {
	return GetVersion() + " (" + Commit + ", built " + BuildDate + ")"
}
