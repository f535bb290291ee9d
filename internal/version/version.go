// Package version provides build and version information for the story
// service and the arcscript tool.
package version

// Version is the current release version. Override it at build time with:
//
//	go build -ldflags "-X github.com/AaronLay10/ArcEngine/internal/version.Version=x.y.z"
var Version = "0.3.0"

// String formats the version for -version output.
func String(program string) string {
	return program + " " + Version
}
