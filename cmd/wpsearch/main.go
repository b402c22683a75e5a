package main

import "github.com/dthomason/wpsearch/internal/cli"

// set via ldflags during build
var version = "1.0.0-dev"

func main() {
	cli.SetVersion(version)
	cli.Execute()
}
