package app

// Build metadata, set with -ldflags "-X github.com/hyperifyio/marksum/internal/app.BuildVersion=...".
var (
	BuildVersion = "0.0.0-dev"
	BuildCommit  = "unknown"
	BuildDate    = "unknown"
)

// VersionString formats the build metadata for -version.
func VersionString() string {
	return "marksum " + BuildVersion + " (commit " + BuildCommit + ", built " + BuildDate + ")"
}
