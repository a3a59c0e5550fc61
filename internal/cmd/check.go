package cmd

import (
	"context"

	"go.followtheprocess.codes/cli"
	"go.followtheprocess.codes/jyed/internal/jyed"
)

const checkLong = `
Each file is checked as JSON or YAML depending on its extension, files
with any other extension are checked as whichever of the two they parse as.

Patterns are globs supporting '**' to match any number of directories and
'{a,b}' alternatives. If no pattern is given, every .json, .yaml and .yml
file below the current directory is checked.

Every file is reported on, the command fails if any of them is invalid.
`

// check returns the check subcommand.
func check() (*cli.Command, error) {
	var options jyed.CheckOptions

	return cli.New(
		"check",
		cli.Short("Check JSON and YAML files for syntax errors"),
		cli.Long(checkLong),
		cli.Flag(&options.Patterns, "pattern", 'p', "Glob pattern(s) of files to check"),
		cli.Flag(
			&options.Concurrency,
			"concurrency",
			'c',
			"Maximum number of files to check at once",
			cli.FlagDefault(jyed.DefaultConcurrency()),
		),
		cli.Flag(&options.Debug, "debug", 'd', "Enable debug logging"),
		cli.Run(func(ctx context.Context, cmd *cli.Command) error {
			app := jyed.New(options.Debug, version, cmd.Stdin(), cmd.Stdout(), cmd.Stderr())
			return app.Check(ctx, options)
		}),
	)
}
