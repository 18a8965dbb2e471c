package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Release builds stamp these:
//
//	go build -ldflags="-X github.com/ibuddy/iboost/internal/version.Version=v0.3.0 \
//	                   -X github.com/ibuddy/iboost/internal/version.Commit=4f2c1ab" \
//	    ./cmd/iboost-buddy
var (
	Version = ""
	Commit  = ""
)

// Binary is the installed command name
const Binary = "iboost-buddy"

// Info identifies a running build. The daemon reports it on /health and in
// its mDNS TXT record so a client can tell which build it is talking to.
type Info struct {
	Binary    string `json:"binary"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
	Dirty     bool   `json:"dirty,omitempty"`
}

func (i Info) String() string {
	commit := i.Commit
	if i.Dirty {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s %s (commit: %s, %s)", i.Binary, i.Version, commit, i.GoVersion)
}

// TXT returns the build as mDNS TXT key=value pairs
func (i Info) TXT() []string {
	return []string{"version=" + i.Version, "commit=" + i.Commit}
}

var (
	once    sync.Once
	current Info
)

// Get returns the build info, resolved once from ldflags and the Go build info
func Get() Info {
	once.Do(func() {
		bi, _ := debug.ReadBuildInfo()
		current = resolve(Version, Commit, bi)
	})
	return current
}

// resolve prefers stamped values, then the module version and VCS revision
// recorded by the Go toolchain.
func resolve(version, commit string, bi *debug.BuildInfo) Info {
	info := Info{
		Binary:    Binary,
		Version:   version,
		Commit:    commit,
		GoVersion: runtime.Version(),
	}

	if bi != nil {
		if bi.GoVersion != "" {
			info.GoVersion = bi.GoVersion
		}
		// go install github.com/ibuddy/iboost/cmd/iboost-buddy@v0.3.0
		if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = shortRevision(s.Value)
				}
			case "vcs.modified":
				info.Dirty = s.Value == "true"
			}
		}
	}

	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	return info
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
