package main

import (
	"area/cmd"
)

// version is the application version, injected at build time via ldflags.
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
