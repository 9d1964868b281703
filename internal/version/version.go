// Package version reports build information of the classifier binary.
//
// Values can be injected at build time:
//
//	go build -ldflags "-X github.com/InfraSecConsult/ics-threat-classifier/internal/version.Version=v1.0.0 \
//	  -X github.com/InfraSecConsult/ics-threat-classifier/internal/version.CommitHash=$(git rev-parse --short HEAD) \
//	  -X github.com/InfraSecConsult/ics-threat-classifier/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/classifier
package version

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
)

var (
	Version    = ""
	CommitHash = ""
	BuildTime  = ""
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// Info is the resolved build information.
type Info struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash,omitempty"`
	BuildTime  string `json:"build_time,omitempty"`
	GoVersion  string `json:"go_version"`
}

// GetVersion resolves the version from ldflags, then a VERSION file in the
// working directory or up to two parents, then "dev".
func GetVersion() string {
	if Version != "" {
		return Version
	}
	for _, path := range []string{"VERSION", "../VERSION", "../../VERSION"} {
		if content, err := os.ReadFile(path); err == nil {
			if v := strings.TrimSpace(string(content)); v != "" {
				return v
			}
		}
	}
	return "dev"
}

// GetCommitHash prefers the ldflags value and falls back to the VCS revision
// stamped by the go tool.
func GetCommitHash() string {
	if CommitHash != "" {
		return CommitHash
	}
	info, ok := readBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && setting.Value != "" {
			return shortRevision(setting.Value)
		}
	}
	return ""
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// GetFullVersion returns version+commit when a commit is known.
func GetFullVersion() string {
	v := GetVersion()
	if c := GetCommitHash(); c != "" {
		v += "+" + c
	}
	return v
}

func Get() Info {
	return Info{
		Version:    GetVersion(),
		CommitHash: GetCommitHash(),
		BuildTime:  BuildTime,
		GoVersion:  runtime.Version(),
	}
}

func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ics-threat-classifier %s", i.Version)
	if i.CommitHash != "" {
		fmt.Fprintf(&b, " (commit %s)", i.CommitHash)
	}
	if i.BuildTime != "" {
		fmt.Fprintf(&b, " built %s", i.BuildTime)
	}
	fmt.Fprintf(&b, " %s", i.GoVersion)
	return b.String()
}
