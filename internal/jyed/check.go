package jyed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"go.followtheprocess.codes/jyed/internal/format"
	"go.followtheprocess.codes/msg"
	"golang.org/x/sync/errgroup"
)

// DefaultPattern is the glob used by check when no patterns are given.
const DefaultPattern = "**/*.{json,yaml,yml}"

// CheckOptions are the options passed to the check subcommand.
type CheckOptions struct {
	// Patterns are doublestar globs selecting the files to check, nil or empty
	// means [DefaultPattern].
	Patterns []string

	// Concurrency is the maximum number of files checked at once.
	Concurrency int

	// Debug enables debug logging.
	Debug bool
}

// DefaultConcurrency is the default value of [CheckOptions.Concurrency].
func DefaultConcurrency() int {
	return runtime.NumCPU()
}

// Validate reports whether the CheckOptions is valid, returning a non-nil
// error if it's not.
func (c CheckOptions) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}

	for _, pattern := range c.Patterns {
		if !doublestar.ValidatePathPattern(pattern) {
			return fmt.Errorf("invalid pattern %q", pattern)
		}
	}

	return nil
}

// Check implements the check subcommand.
//
// Every file matching the patterns is validated as a source document in the format
// detected from its name and content. A success line is printed for each valid file
// and an error line for each invalid one, the returned error reports how many failed.
func (a App) Check(ctx context.Context, options CheckOptions) error {
	if err := options.Validate(); err != nil {
		return err
	}

	patterns := options.Patterns
	if len(patterns) == 0 {
		patterns = []string{DefaultPattern}
	}

	logger := a.logger.Prefixed("check").With(slog.Any("patterns", patterns))
	logger.Debug("Collecting files")

	paths, err := collect(patterns)
	if err != nil {
		return err
	}

	if len(paths) == 0 {
		return fmt.Errorf("no files matched %v", patterns)
	}

	logger.Debug("Checking files", slog.Int("number", len(paths)), slog.Int("concurrency", options.Concurrency))

	results := make([]error, len(paths))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(options.Concurrency)

	for i, path := range paths {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			results[i] = checkFile(path)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	failed := 0

	for i, path := range paths {
		if err := results[i]; err != nil {
			failed++

			msg.Ferror(a.stderr, "%s: %v", path, err)

			continue
		}

		msg.Fsuccess(a.stdout, "%s is valid", path)
	}

	if failed != 0 {
		return fmt.Errorf("%d of %d files invalid", failed, len(paths))
	}

	return nil
}

// checkFile validates a single file.
func checkFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read file: %w", err)
	}

	text := string(content)

	detected := format.Detect(path, text)
	if detected == format.Unknown {
		return errors.New("not recognisable as JSON or YAML")
	}

	return format.Validate(text, detected, format.Source)
}

// collect returns the sorted, de-duplicated files matching any of patterns.
func collect(patterns []string) ([]string, error) {
	var paths []string

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("could not glob %q: %w", pattern, err)
		}

		paths = append(paths, matches...)
	}

	slices.Sort(paths)

	return slices.Compact(paths), nil
}
