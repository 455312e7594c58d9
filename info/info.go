package info

// Build metadata, populated at link time via -ldflags.
var (
	Version   = "dev"
	GitCommit = ""
	GitBranch = ""
	BuildDate = ""
)
