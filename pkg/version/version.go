package version

import (
	"fmt"
	"runtime"
)

// Version represents the current version of memwar.
type Version struct {
	Major    string
	Minor    string
	Patch    string
	Metadata string
	Build    string
}

// MemwarVersion is the current version of memwar.
var MemwarVersion = Version{
	Major: "0", Minor: "3", Patch: "0", Metadata: "",
}

func (v Version) String() string {
	ver := fmt.Sprintf("Version: %s.%s.%s", v.Major, v.Minor, v.Patch)
	if v.Metadata != "" {
		ver += "-" + v.Metadata
	}
	if v.Build == "" {
		return ver
	}
	return fmt.Sprintf("%s\nBuild: %s", ver, v.Build)
}

// BuildInfo returns the toolchain and platform the binary was built for.
func BuildInfo() string {
	return fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
