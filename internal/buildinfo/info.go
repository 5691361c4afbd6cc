// Package buildinfo carries release metadata stamped in at link time:
//
//	go build -ldflags "-X github.com/tellerbook/tellerbook/internal/buildinfo.Version=v0.3.0" ./cmd/tellerbook
package buildinfo

var (
	// Version is the release tag.
	Version = "dev"
	// Commit is the source revision.
	Commit = "none"
	// Date is the build timestamp.
	Date = "unknown"
)
