package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func reset(t *testing.T, version, commit, date string) {
	t.Helper()
	oldV, oldC, oldD := Version, Commit, Date
	Version, Commit, Date = version, commit, date
	t.Cleanup(func() { Version, Commit, Date = oldV, oldC, oldD })
}

func TestFill(t *testing.T) {
	info := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	tests := []struct {
		name                  string
		version, commit, date string
		want                  [3]string
	}{
		{"unstamped", "dev", "none", "unknown", [3]string{"v0.3.0", "abc123-dirty", "2026-01-02T03:04:05Z"}},
		{"ldflags win", "v1.0.0", "feed", "2026-10-01", [3]string{"v1.0.0", "feed", "2026-10-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reset(t, tt.version, tt.commit, tt.date)
			fill(info)
			if got := [3]string{Version, Commit, Date}; got != tt.want {
				t.Errorf("fill() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFillDevelVersion(t *testing.T) {
	reset(t, "dev", "none", "unknown")
	fill(&debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	if Version != "dev" {
		t.Errorf("Version = %q, want dev", Version)
	}
}

func TestTemplate(t *testing.T) {
	reset(t, "v1.2.3", "abc", "today")
	tmpl := Template()
	if !strings.HasPrefix(tmpl, "{{.Name}} v1.2.3\n") || !strings.Contains(tmpl, "commit: abc") {
		t.Errorf("Template() = %q", tmpl)
	}
}
