package version

// values are set at build time via ldflags
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"

	FullVersion = Version + " (" + GitCommit + " " + BuildDate + ")"
)
