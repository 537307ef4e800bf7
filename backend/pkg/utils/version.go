package utils

import (
	"fmt"
	"runtime/debug"
)

// Version is the semantic version, overridable at link time with
// -ldflags "-X dispenser-bridge/backend/pkg/utils.Version=...".
var Version = "0.1.0"

func getVCSInfo() (commit, buildTime, modified string) {
	commit = "unknown"
	buildTime = "unknown"
	modified = "false"

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return commit, buildTime, modified
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			commit = setting.Value
			if len(commit) > 7 {
				commit = commit[:7]
			}
		case "vcs.time":
			buildTime = setting.Value
		case "vcs.modified":
			modified = setting.Value
		}
	}

	return commit, buildTime, modified
}

// GetBuildVersion returns the full human-readable version string.
func GetBuildVersion() string {
	commit, buildTime, modified := getVCSInfo()

	version := "v" + Version
	if modified == "true" {
		version += "-dirty"
	}

	return fmt.Sprintf("%s (%s) built at %s", version, commit, buildTime)
}

// GetVersionShort returns the version and commit without the build time.
func GetVersionShort() string {
	commit, _, modified := getVCSInfo()

	version := "v" + Version
	if modified == "true" {
		version += "-dirty"
	}

	return fmt.Sprintf("%s (%s)", version, commit)
}

// GetBuildInfo returns version metadata as a flat map for logs and health
// endpoints.
func GetBuildInfo() map[string]string {
	commit, buildTime, modified := getVCSInfo()

	out := map[string]string{
		"version":      Version,
		"commit":       commit,
		"build_time":   buildTime,
		"vcs_modified": modified,
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		out["go_version"] = info.GoVersion
	}

	return out
}
