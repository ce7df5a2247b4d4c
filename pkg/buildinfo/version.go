// Package buildinfo carries the version stamped into a nestview binary.
//
// The variables are set with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/nestview/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/nestview/pkg/buildinfo.Commit=$(git rev-parse --short HEAD)" \
//	    ./cmd/nestview
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is the build stamp as reported by GET /healthz.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"built"`
}

// Current returns the stamp of the running binary.
func Current() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}

// Template returns the cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s (commit %s, built %s)\n", Version, Commit, Date)
}
