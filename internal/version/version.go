// Package version exposes build metadata set via -ldflags.
package version

// Version is overridden at build time:
//
//	go build -ldflags "-X github.com/linkshelf/api/internal/version.Version=v1.2.3"
var Version = "dev"
