// Package main contains the hex cli source code.
package main

import (
	"os"

	"github.com/hexpm/hexgo/internal/cmd"
)

// nolint: gochecknoglobals
var version = "dev"

func main() {
	cmd.Execute(version, os.Exit, os.Args[1:])
}
