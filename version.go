package main

import (
	"runtime/debug"
)

// set with -ldflags "-X main.buildVersion=..."
var buildVersion string = ""

// appVersion prefers module build info (go install), then the ldflags value.
func appVersion() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	if buildVersion != "" {
		return buildVersion
	}
	return "#UNAVAILABLE"
}
