// Package contracts holds the types shared by the CLI, the web service and
// their clients.
package contracts

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const (
	Version = "1.0.0"

	// DataFormatVersion versions the tidy and composite CSV layouts
	DataFormatVersion = "v1"

	APIVersion = "v1"
)

// Stamped with -ldflags "-X ewscli/pkg/contracts.BuildTime=..."
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo is the body of GET /api/version
type VersionInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	DataFormat   string `json:"data_format"`
	APIVersion   string `json:"api_version"`
}

// GetVersionInfo reports the build. Without ldflags the commit comes from
// the VCS stamp the go tool embeds.
func GetVersionInfo() VersionInfo {
	commit := GitCommit
	if commit == "unknown" {
		commit = vcsRevision()
	}
	return VersionInfo{
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    commit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		DataFormat:   DataFormatVersion,
		APIVersion:   APIVersion,
	}
}

func vcsRevision() string {
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				if len(s.Value) > 12 {
					return s.Value[:12]
				}
				return s.Value
			}
		}
	}
	return "unknown"
}

func GetVersionString() string {
	return "ewscli v" + Version
}

// GetFullVersionString is the `ewsprep version` output
func GetFullVersionString() string {
	info := GetVersionInfo()
	return fmt.Sprintf("%s (data format %s, built %s, commit %s, %s %s/%s)",
		GetVersionString(), info.DataFormat, info.BuildTime, info.GitCommit,
		info.GoVersion, info.OS, info.Architecture)
}
