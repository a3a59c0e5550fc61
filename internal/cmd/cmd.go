// Package cmd implements jyed's CLI.
package cmd

import (
	"context"

	"go.followtheprocess.codes/cli"
	"go.followtheprocess.codes/jyed/internal/jyed"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

// Build builds and returns the jyed CLI.
func Build() (*cli.Command, error) {
	var debug bool

	return cli.New(
		"jyed",
		cli.Short("A dual pane JSON and YAML editor"),
		cli.Version(version),
		cli.Commit(commit),
		cli.BuildDate(date),
		cli.Example("Pick a file and what to do with it interactively", "jyed"),
		cli.Example("Open the editor in the browser", "jyed serve"),
		cli.Example("Convert a JSON file to YAML", "jyed convert ./deployment.json"),
		cli.Example("Reconvert a YAML file every time it changes", "jyed convert ./values.yaml --output values.json --watch"),
		cli.Example("Check every JSON and YAML file below the current directory", "jyed check"),
		cli.Example("Check only some files", "jyed check --pattern 'config/**/*.yaml'"),
		cli.Flag(&debug, "debug", 'd', "Enable debug logs"),
		cli.SubCommands(serve, check, convert, detect),
		cli.Run(func(ctx context.Context, cmd *cli.Command) error {
			app := jyed.New(debug, version, cmd.Stdin(), cmd.Stdout(), cmd.Stderr())
			return app.Interactive(ctx)
		}),
	)
}
