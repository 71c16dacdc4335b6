package meta

import (
	"fmt"
	"runtime"
	"strings"
)

// Info describes the build context of a chatd binary. The linker fills in
// most of it, see the vars below.
type Info struct {
	Version   string
	Build     string
	Branch    string
	BuildTime string
	Platform  string
	GoVersion string
	GoTag     string
}

// These will be filled in using the linker -X flag, e.g.
//
//   go build -ldflags "-X github.com/luma/chatd/internal/meta.Version=1.2.0"
var (
	// Version as an arbitrary string
	Version = "dev"

	// Build is the Git sha from when we are building
	Build string

	// Branch is the Git branch that we are building from
	Branch string

	// BuildTimeUTC is the build time in UTC (year/month/day hour:min:sec)
	BuildTimeUTC string

	// GoTag is the Go build tags, see https://golang.org/pkg/go/build/#hdr-Build_Constraints
	GoTag string

	platform = fmt.Sprintf("%s %s", runtime.GOOS, runtime.GOARCH)
)

// GetInfo returns an Info struct populated with the build information.
func GetInfo() Info {
	return Info{
		GoVersion: runtime.Version(),
		Version:   Version,
		Build:     Build,
		Branch:    Branch,
		BuildTime: BuildTimeUTC,
		GoTag:     GoTag,
		Platform:  platform,
	}
}

// String renders the non-empty fields one per line.
func (i Info) String() string {
	var s strings.Builder

	for _, field := range []struct{ name, value string }{
		{"Version", i.Version},
		{"Build", i.Build},
		{"Branch", i.Branch},
		{"Build time", i.BuildTime},
		{"Platform", i.Platform},
		{"Go version", i.GoVersion},
		{"Go tags", i.GoTag},
	} {
		if field.value == "" {
			continue
		}
		fmt.Fprintf(&s, "%-11s %s\n", field.name+":", field.value)
	}

	return s.String()
}
