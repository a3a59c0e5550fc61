package cmd

import (
	"context"

	"go.followtheprocess.codes/cli"
	"go.followtheprocess.codes/jyed/internal/jyed"
)

const serveLong = `
The editor runs in the browser, a source pane on the left which is
converted into the target pane on the right. Files can be uploaded into
the source pane and the target pane downloaded.

Server settings are read from the TOML file given by '--config', e.g.

  [server]
  addr = "localhost:8080"
  read_timeout = "10s"
  write_timeout = "10s"
  shutdown_timeout = "5s"
  max_body_bytes = 10485760

  [log]
  debug = false

Any setting missing from the file keeps its default, and flags take
precedence over the file.
`

// serve returns the serve subcommand.
func serve() (*cli.Command, error) {
	var options jyed.ServeOptions

	return cli.New(
		"serve",
		cli.Short("Run the editor in the browser"),
		cli.Long(serveLong),
		cli.Flag(&options.Config, "config", 'c', "Path to a TOML config file"),
		cli.Flag(&options.Addr, "addr", 'a', "Address to listen on, overrides the config file"),
		cli.Flag(&options.Debug, "debug", 'd', "Enable debug logging"),
		cli.Run(func(ctx context.Context, cmd *cli.Command) error {
			app := jyed.New(options.Debug, version, cmd.Stdin(), cmd.Stdout(), cmd.Stderr())
			return app.Serve(ctx, options)
		}),
	)
}
