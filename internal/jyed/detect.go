package jyed

import (
	"fmt"
	"log/slog"
	"os"

	"go.followtheprocess.codes/jyed/internal/format"
)

// Detect implements the detect subcommand, printing the format of file.
func (a App) Detect(file string) error {
	content, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("could not read file: %w", err)
	}

	detected := format.Detect(file, string(content))

	a.logger.Prefixed("detect").Debug("Detected format", slog.String("file", file), slog.String("format", detected.String()))

	if detected == format.Unknown {
		return fmt.Errorf("%s: %w", file, format.ErrUnknownFormat)
	}

	fmt.Fprintln(a.stdout, detected)

	return nil
}
