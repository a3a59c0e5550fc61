package jyed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.followtheprocess.codes/jyed/internal/format"
	"go.followtheprocess.codes/log"
	"go.followtheprocess.codes/msg"
)

// debounce is how long the watcher waits for a burst of write events to settle
// before converting again.
const debounce = 50 * time.Millisecond

// ConvertOptions are the options passed to the convert subcommand.
type ConvertOptions struct {
	// Output is the name of a file in which to save the converted document, if empty,
	// it is printed to stdout.
	Output string

	// Watch, if true, converts again every time the file changes until cancelled.
	Watch bool

	// Debug enables debug logging.
	Debug bool
}

// Validate reports whether the ConvertOptions is valid for converting file, returning
// a non-nil error if it's not.
func (c ConvertOptions) Validate(file string) error {
	if c.Output != "" && filepath.Clean(c.Output) == filepath.Clean(file) {
		return fmt.Errorf("--output %s would overwrite the file being converted", c.Output)
	}

	return nil
}

// Convert implements the convert subcommand.
func (a App) Convert(ctx context.Context, file string, options ConvertOptions) error {
	if err := options.Validate(file); err != nil {
		return err
	}

	logger := a.logger.Prefixed("convert").With(slog.String("file", file))
	logger.Debug("Convert configuration", slog.String("options", fmt.Sprintf("%+v", options)))

	if err := a.convertFile(logger, file, options); err != nil {
		return err
	}

	if !options.Watch {
		return nil
	}

	return a.watch(ctx, logger, file, func() {
		if err := a.convertFile(logger, file, options); err != nil {
			msg.Ferror(a.stderr, "%v", err)
		}
	})
}

// convertFile performs a single conversion of file.
func (a App) convertFile(logger *log.Logger, file string, options ConvertOptions) error {
	start := time.Now()

	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("could not read file: %w", err)
	}

	text := string(content)

	from := format.Detect(file, text)
	if from == format.Unknown {
		return fmt.Errorf("%s: %w", file, format.ErrUnknownFormat)
	}

	if err := format.Validate(text, from, format.Source); err != nil {
		return fmt.Errorf("%s is not valid %s: %w", file, from.Title(), err)
	}

	conversion, err := format.Convert(text, from)
	if err != nil {
		return fmt.Errorf("could not convert %s: %w", file, err)
	}

	logger.Debug(
		"Converted file",
		slog.String("from", from.String()),
		slog.String("to", conversion.Format.String()),
		slog.Duration("took", time.Since(start)),
	)

	out := conversion.Text
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}

	if options.Output == "" {
		fmt.Fprint(a.stdout, out)
		return nil
	}

	if err := os.WriteFile(options.Output, []byte(out), 0o644); err != nil {
		return fmt.Errorf("could not write output: %w", err)
	}

	msg.Fsuccess(
		a.stdout,
		"Converted %s (%s) to %s (%s)",
		pathStyle.Text(file),
		formatStyle.Text(from.Title()),
		pathStyle.Text(options.Output),
		formatStyle.Text(conversion.Format.Title()),
	)

	return nil
}

// watch calls fn every time file is written to, until ctx is cancelled.
//
// The file's directory is watched rather than the file itself so that editors which
// save by renaming a new file over the old one are still picked up.
func (a App) watch(ctx context.Context, logger *log.Logger, file string, fn func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create file watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(file)

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("could not watch %s: %w", file, err)
	}

	fmt.Fprintln(a.stderr, dimmed.Text("Watching "+file+" for changes, press ctrl+c to stop"))

	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Stopped watching")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("file watcher closed unexpectedly")
			}

			if filepath.Clean(event.Name) != target {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			logger.Debug("File changed", slog.String("op", event.Op.String()))
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("file watcher closed unexpectedly")
			}

			logger.Warn("File watcher error", slog.String("error", err.Error()))

		case <-timer.C:
			fn()
		}
	}
}
