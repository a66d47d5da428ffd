package version

import (
	"encoding/json"
	"os"
	"runtime"
	"runtime/debug"
)

// Version is set at build time with -ldflags "-X .../internal/version.Version=1.2.3".
var Version = ""

type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	GoVersion string `json:"go_version"`
}

// Load resolves the running version: the linker flag first, then a version.json next to
// the binary's working directory, then "0.0.0".
func Load() Info {
	info := Info{Version: Version, GoVersion: runtime.Version()}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				info.Commit = s.Value
			}
		}
	}
	if info.Version != "" {
		return info
	}
	info.Version = "0.0.0"
	data, err := os.ReadFile("version.json")
	if err != nil {
		return info
	}
	var file struct {
		Version string `json:"version"`
	}
	if json.Unmarshal(data, &file) == nil && file.Version != "" {
		info.Version = file.Version
	}
	return info
}
