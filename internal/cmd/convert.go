package cmd

import (
	"context"

	"go.followtheprocess.codes/cli"
	"go.followtheprocess.codes/jyed/internal/jyed"
)

const convertLong = `
JSON files are converted to YAML and YAML files to JSON, the format of
the file is detected from its extension, or its content if the extension
is neither.

The converted document is printed to stdout unless '--output' is given.

With '--watch', the file is converted again every time it changes until
the command is interrupted.
`

// convert returns the convert subcommand.
func convert() (*cli.Command, error) {
	var (
		file    string
		options jyed.ConvertOptions
	)

	return cli.New(
		"convert",
		cli.Short("Convert a JSON file to YAML or a YAML file to JSON"),
		cli.Long(convertLong),
		cli.Arg(&file, "file", "Path to the file to convert"),
		cli.Flag(&options.Output, "output", 'o', "Name of a file to save the converted document"),
		cli.Flag(&options.Watch, "watch", 'w', "Convert again whenever the file changes"),
		cli.Flag(&options.Debug, "debug", 'd', "Enable debug logging"),
		cli.Run(func(ctx context.Context, cmd *cli.Command) error {
			app := jyed.New(options.Debug, version, cmd.Stdin(), cmd.Stdout(), cmd.Stderr())
			return app.Convert(ctx, file, options)
		}),
	)
}
