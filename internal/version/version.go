// Package version carries build identification, stamped at link time via
// -ldflags "-X github.com/lattice-sensing/bevpipe/internal/version.Version=...".
package version

var (
	// Version is the release version of this build.
	Version = "dev"
	// GitSHA is the git commit this binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String returns a one-line description for startup logs.
func String() string {
	return Version + " (" + GitSHA + ", built " + BuildTime + ")"
}
