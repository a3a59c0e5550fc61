package jyed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/huh"
)

// Interactive actions.
const (
	actionConvert = "convert"
	actionCheck   = "check"
	actionDetect  = "detect"
)

// maxChoices caps the number of files offered in the picker.
const maxChoices = 200

// Interactive implements the root command when run with no arguments, prompting for
// a JSON or YAML file below the current directory and what to do with it.
func (a App) Interactive(ctx context.Context) error {
	logger := a.logger.Prefixed("interactive")

	files, err := collect([]string{DefaultPattern})
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return errors.New("no JSON or YAML files found in the current directory, pass a file to 'jyed convert' instead")
	}

	if len(files) > maxChoices {
		logger.Debug("Truncating file choices", slog.Int("found", len(files)), slog.Int("max", maxChoices))
		files = files[:maxChoices]
	}

	var (
		file   string
		action string
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which file?").
				Options(huh.NewOptions(files...)...).
				Value(&file),
			huh.NewSelect[string]().
				Title("What would you like to do with it?").
				Options(
					huh.NewOption("Convert it to the other format", actionConvert),
					huh.NewOption("Check it for errors", actionCheck),
					huh.NewOption("Detect its format", actionDetect),
				).
				Value(&action),
		),
	).WithInput(a.stdin).WithOutput(a.stderr)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}

		return fmt.Errorf("could not run interactive prompt: %w", err)
	}

	logger.Debug("User picked", slog.String("file", file), slog.String("action", action))

	return a.dispatch(ctx, file, action)
}

// dispatch runs the chosen action on file.
func (a App) dispatch(ctx context.Context, file, action string) error {
	switch action {
	case actionConvert:
		return a.Convert(ctx, file, ConvertOptions{})
	case actionCheck:
		return a.Check(ctx, CheckOptions{Patterns: []string{file}, Concurrency: 1})
	case actionDetect:
		return a.Detect(file)
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}
