package version

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
	GoVersion = runtime.Version()
)

// String is the one-line build description printed by "nvrsync version".
func String() string {
	return fmt.Sprintf("nvrsync %s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}

// UserAgent is sent on every request to a remote host.
func UserAgent() string {
	return "nvrsync/" + Version + " (" + Commit + ")"
}
