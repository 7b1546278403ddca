// ABOUTME: Build version information
// ABOUTME: Overridden at link time with -ldflags "-X .../internal/version.Version=..."
package version

import "fmt"

var (
	// Version is the release tag, "dev" for local builds
	Version = "dev"
	// Commit is the git revision the binary was built from
	Commit = "none"
	// Date is the build timestamp
	Date = "unknown"
)

// Product is the name reported by the CLI
const Product = "dawcore"

// String formats the version line shown by --version
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
