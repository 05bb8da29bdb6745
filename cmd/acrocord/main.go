// Package main is the reference entrypoint for the acrocord CLI. Programs
// that declare their own tables build an equivalent binary by registering
// descriptors and handing the registry to cli.Execute.
package main

import (
	"os"

	"github.com/eurobios-mews-labs/acrocord/internal/cli"
	"github.com/eurobios-mews-labs/acrocord/internal/registry"
)

func main() {
	if err := cli.Execute(registry.New()); err != nil {
		os.Exit(1)
	}
}
