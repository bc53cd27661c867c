package buildconfig

import "runtime"

// Build-time variables injected via ldflags:
//
//	-X github.com/Harshitk-cp/recommender/internal/buildconfig.version=v1.2.0
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = ""
)

func Version() string {
	return version
}

func Commit() string {
	return commit
}

// Info describes the running binary. It is reported by the health endpoint.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
}

func VersionInfo() Info {
	return Info{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}
