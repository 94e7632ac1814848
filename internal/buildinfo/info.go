// Package buildinfo carries version metadata stamped at link time.
package buildinfo

import "fmt"

var (
	// Version will be set via ldflags during build.
	Version = "dev"
	// Commit will be set via ldflags during build.
	Commit = "none"
	// Date will be set via ldflags during build.
	Date = "unknown"
)

// String returns "cfonb120 <version> (<commit>, <date>)".
func String() string {
	return fmt.Sprintf("cfonb120 %s (%s, %s)", Version, Commit, Date)
}
