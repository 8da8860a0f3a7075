// cmd/docent/main.go
package main

import (
	docent "github.com/mwiater/docent/internal/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	setVersionInfo = docent.SetVersionInfo
	executeCmd     = docent.Execute
)

// main injects build metadata and hands control to the cobra root command.
func main() {
	setVersionInfo(version, commit, date)
	executeCmd()
}
