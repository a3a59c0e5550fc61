// Package jyed implements the functionality of the program, the CLI in package cmd is simply the
// entrypoint to exported functions and methods in this package.
package jyed

import (
	"io"

	"go.followtheprocess.codes/log"
)

// App represents the jyed program.
type App struct {
	stdin   io.Reader   // Interactive input is read from here
	stdout  io.Writer   // Normal program output is written here
	stderr  io.Writer   // Logs and errors are written here
	logger  *log.Logger // The logger for the application
	version string      // The app version
	debug   bool        // Whether debug logging is enabled
}

// New returns a new [App].
func New(debug bool, version string, stdin io.Reader, stdout, stderr io.Writer) App {
	return App{
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		logger:  newLogger(debug, stderr),
		version: version,
		debug:   debug,
	}
}

// newLogger returns the application logger writing to w.
func newLogger(debug bool, w io.Writer) *log.Logger {
	level := log.LevelInfo
	if debug {
		level = log.LevelDebug
	}

	return log.New(w, log.Prefix("jyed"), log.WithLevel(level))
}
