package version

import (
	"reflect"
	"runtime/debug"
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	vcs := func(rev, modified string) []debug.BuildSetting {
		return []debug.BuildSetting{
			{Key: "vcs.revision", Value: rev},
			{Key: "vcs.modified", Value: modified},
		}
	}

	tests := []struct {
		name        string
		version     string
		commit      string
		bi          *debug.BuildInfo
		wantVersion string
		wantCommit  string
		wantDirty   bool
	}{
		{
			name: "no build info", bi: nil,
			wantVersion: "dev", wantCommit: "unknown",
		},
		{
			name: "ldflags win", version: "v0.3.0", commit: "abc1234",
			bi:          &debug.BuildInfo{Main: debug.Module{Version: "v0.2.0"}, Settings: vcs("ffffffffffff", "false")},
			wantVersion: "v0.3.0", wantCommit: "abc1234",
		},
		{
			name:        "go install version",
			bi:          &debug.BuildInfo{Main: debug.Module{Version: "v0.2.0"}},
			wantVersion: "v0.2.0", wantCommit: "unknown",
		},
		{
			name:        "devel build from a dirty checkout",
			bi:          &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}, Settings: vcs("0123456789abcdef", "true")},
			wantVersion: "dev", wantCommit: "0123456", wantDirty: true,
		},
		{
			name:        "short revision kept",
			bi:          &debug.BuildInfo{Settings: vcs("abc", "false")},
			wantVersion: "dev", wantCommit: "abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolve(tt.version, tt.commit, tt.bi)
			if got.Binary != Binary {
				t.Errorf("Binary = %q, want %q", got.Binary, Binary)
			}
			if got.Version != tt.wantVersion || got.Commit != tt.wantCommit || got.Dirty != tt.wantDirty {
				t.Errorf("resolve() = %+v, want version %q commit %q dirty %v",
					got, tt.wantVersion, tt.wantCommit, tt.wantDirty)
			}
			if got.GoVersion == "" {
				t.Error("GoVersion is empty")
			}
		})
	}
}

func TestInfo_StringAndTXT(t *testing.T) {
	info := Info{Binary: Binary, Version: "v0.3.0", Commit: "abc1234", GoVersion: "go1.24.0", Dirty: true}

	if got, want := info.String(), "iboost-buddy v0.3.0 (commit: abc1234-dirty, go1.24.0)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got, want := info.TXT(), []string{"version=v0.3.0", "commit=abc1234"}; !reflect.DeepEqual(got, want) {
		t.Errorf("TXT() = %v, want %v", got, want)
	}
}

func TestGet(t *testing.T) {
	info := Get()
	if info.Version == "" || info.Commit == "" {
		t.Fatalf("Get() = %+v; version and commit should be populated", info)
	}
	if !strings.HasPrefix(info.String(), Binary+" ") {
		t.Errorf("String() = %q", info.String())
	}
	if Get() != info {
		t.Error("Get() is not stable across calls")
	}
}
