package version

import (
	"fmt"
	"runtime/debug"
)

func ModuleVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	// When built, e.g., using go install .../antns-go/cmd/antns@vX.Y.Z.
	version := info.Main.Version
	if version != "(devel)" {
		return version
	}

	// Use git commit, if available. The vcs.* fields are populated
	// when running "go build" in a git checkout, *without* listing
	// specific source files on the commandline.
	m := make(map[string]string)
	for _, setting := range info.Settings {
		m[setting.Key] = setting.Value
	}
	revision, ok := m["vcs.revision"]
	if !ok {
		return version
	}
	version = fmt.Sprintf("git %s", revision)
	if t, ok := m["vcs.time"]; ok {
		version += " " + t
	}
	if m["vcs.modified"] != "false" {
		version += " (with local changes)"
	}

	return version
}

func DisplayVersion(tool string) {
	fmt.Printf("%s (antns-go module) %s\n", tool, ModuleVersion())
}
