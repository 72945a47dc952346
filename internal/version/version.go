// Package version carries build identification, injected with -ldflags.
package version

var (
	Version = "dev"
	Commit  = "unknown"
)

type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

func Get() Info {
	return Info{Version: Version, Commit: Commit}
}
