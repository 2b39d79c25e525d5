package config

// Set at link time:
//
//	go build -ldflags "-X github.com/lucascsr96/SynkCamp/internal/config.version=1.0.0 \
//	    -X github.com/lucascsr96/SynkCamp/internal/config.commit=$(git rev-parse --short HEAD)"
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// NewBuildInfo returns the linker-injected build metadata.
func NewBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	}
}
