package version

// Set at build time:
//
//	go build -ldflags "-X shelf-vision/internal/version.Version=v0.1.0 -X shelf-vision/internal/version.Commit=$(git rev-parse --short HEAD)"
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)
