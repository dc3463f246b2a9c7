// Package version carries the build version, overridable at link time with
// -ldflags "-X pycycles/internal/version.Version=v1.2.3".
package version

var Version = "dev"
