// Package version provides build information for cyclist binaries.
package version

// Version is the current release version.
// It can be overridden at build time using:
//
//	go build -ldflags "-X github.com/AaronLay10/cyclist/internal/version.Version=x.y.z"
var Version = "0.3.0"
