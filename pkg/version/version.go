package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Stamped at build time, e.g.
//
//	go build -ldflags "-X statecraft/pkg/version.Version=1.4.0 -X statecraft/pkg/version.Commit=$(git rev-parse HEAD)" ./cmd/warden
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)

// Info describes the running statecraft binary
type Info struct {
	Binary    string `json:"binary"`
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns build information for binary. When the commit was not stamped
// it falls back to the VCS revision the Go toolchain embedded.
func Get(binary string) Info {
	info := Info{
		Binary:    binary,
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info.Commit == "" {
		info.Commit = vcsRevision()
	}
	return info
}

func vcsRevision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}

// ShortCommit is the first seven characters of the commit, or empty
func (i Info) ShortCommit() string {
	if len(i.Commit) > 7 {
		return i.Commit[:7]
	}
	return i.Commit
}

// String renders "warden 1.4.0 (abc1234)"
func (i Info) String() string {
	s := i.Binary + " " + i.Version
	if c := i.ShortCommit(); c != "" {
		s += " (" + c + ")"
	}
	return s
}

// Details is the multi-line form printed by `warden version`
func (i Info) Details() string {
	built := i.BuildDate
	if built == "" {
		built = "unknown"
	}
	return fmt.Sprintf("%s\nbuilt: %s\ngo: %s %s", i.String(), built, i.GoVersion, i.Platform)
}
