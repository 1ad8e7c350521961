package version

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Build metadata of the rbsec CLI, overridable at build time:
//
//	go build -ldflags "-X rbsec/internal/version.Version=1.2.0 -X rbsec/internal/version.GitCommit=$(git rev-parse HEAD)"
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Colored renders Version with major, minor and patch in their own colors.
// Pre-release and build suffixes are left plain. Colors follow the global
// color.NoColor switch.
func Colored() string {
	v := strings.TrimSpace(Version)
	if v == "" {
		return "dev"
	}
	core, suffix := v, ""
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		core, suffix = v[:i], v[i:]
	}
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return v
	}
	return majorColor.Sprint(parts[0]) + "." + minorColor.Sprint(parts[1]) + "." + patchColor.Sprint(parts[2]) + suffix
}

// Short returns the commit hash cut to 12 characters, or "".
func Short() string {
	c := strings.TrimSpace(GitCommit)
	if len(c) > 12 {
		return c[:12]
	}
	return c
}

// String is the one-line form used by --version.
func String() string {
	s := strings.TrimSpace(Version)
	if s == "" {
		s = "dev"
	}
	if c := Short(); c != "" {
		s = fmt.Sprintf("%s (%s)", s, c)
	}
	return s
}
