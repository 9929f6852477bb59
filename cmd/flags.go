// Package cmd parses the process's command-line arguments into the
// choices main needs to start the server: which config file to load and
// whether to attach the interactive dashboard.
package cmd

import (
	"flag"

	"flywheel/infrastructure/PAL/args"
)

// Options is the parsed command line.
type Options struct {
	ConfigPath string
	Dashboard  bool
}

// Parse reads provider's arguments into Options. A dedicated
// flag.FlagSet (rather than the package-level flag.CommandLine) keeps
// this safe to call more than once in tests.
func Parse(provider args.Provider) (Options, error) {
	fs := flag.NewFlagSet("flywheel", flag.ContinueOnError)
	configPath := fs.String("config", "config.json", "path to the server configuration file")
	dashboard := fs.Bool("dashboard", false, "attach the interactive worker dashboard instead of plain logging")

	if err := fs.Parse(provider.Args()); err != nil {
		return Options{}, err
	}

	return Options{ConfigPath: *configPath, Dashboard: *dashboard}, nil
}
