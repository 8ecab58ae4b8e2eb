package app

import (
	"fmt"
	"runtime/debug"
)

// Set via ldflags:
//
//	go build -ldflags "-X github.com/heartmarshall/notes-assistant-backend/internal/app.Version=1.0.0" ./cmd/notesd
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// BuildVersion is reported by `notesd --version`, the startup log and /health.
// Commit and build time fall back to the VCS stamp embedded by the go tool.
func BuildVersion() string {
	commit, built := Commit, BuildTime
	if commit == "" || built == "" {
		c, b := vcsStamp()
		if commit == "" {
			commit = c
		}
		if built == "" {
			built = b
		}
	}
	if commit == "" {
		return Version
	}
	if len(commit) > 12 {
		commit = commit[:12]
	}
	if built == "" {
		return fmt.Sprintf("%s (%s)", Version, commit)
	}
	return fmt.Sprintf("%s (%s, %s)", Version, commit, built)
}

func vcsStamp() (revision, at string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.time":
			at = s.Value
		}
	}
	return revision, at
}
