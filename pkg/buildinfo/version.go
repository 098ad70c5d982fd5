// Package buildinfo reports which figcomp build is running.
//
// Release builds stamp the values with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/figcomp/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/figcomp/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/figcomp/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Binaries from "go install" carry no ldflags; for those the module version
// and VCS stamp embedded by the Go toolchain are used instead.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"sync"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var resolveOnce sync.Once

// resolve fills unstamped values from the embedded module build info.
func resolve() {
	resolveOnce.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		fill(info)
	})
}

func fill(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	stamped := Commit != "none"
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if !stamped {
				Commit = s.Value
			}
		case "vcs.time":
			if Date == "unknown" {
				Date = s.Value
			}
		case "vcs.modified":
			if s.Value == "true" && !stamped && Commit != "none" {
				Commit += "-dirty"
			}
		}
	}
}

// Template returns the version template for cobra's --version flag.
func Template() string {
	resolve()
	return fmt.Sprintf("{{.Name}} %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
