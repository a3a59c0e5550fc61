package cmd

import (
	"context"

	"go.followtheprocess.codes/cli"
	"go.followtheprocess.codes/cli/flag"
	"go.followtheprocess.codes/jyed/internal/jyed"
)

// detect returns the detect subcommand.
func detect() (*cli.Command, error) {
	var (
		file  string
		debug bool
	)

	return cli.New(
		"detect",
		cli.Short("Print the format of a file, json or yaml"),
		cli.Arg(&file, "file", "Path to the file"),
		cli.Flag(&debug, "debug", flag.NoShortHand, "Enable debug logging"),
		cli.Run(func(ctx context.Context, cmd *cli.Command) error {
			app := jyed.New(debug, version, cmd.Stdin(), cmd.Stdout(), cmd.Stderr())
			return app.Detect(file)
		}),
	)
}
