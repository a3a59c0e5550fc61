package jyed_test

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.followtheprocess.codes/jyed/internal/format"
	"go.followtheprocess.codes/jyed/internal/jyed"
	"go.followtheprocess.codes/snapshot"
	"go.followtheprocess.codes/test"
	"go.uber.org/goleak"
)

var (
	update = flag.Bool("update", false, "Update snapshots and testscripts")
	clean  = flag.Bool("clean", false, "Clean all snapshots and recreate")
)

func TestConvert(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "convert", "*"))
	test.Ok(t, err)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			snap := snapshot.New(
				t,
				snapshot.Update(*update),
				snapshot.Clean(*clean),
				snapshot.Color(os.Getenv("CI") == ""),
			)

			stdout := &bytes.Buffer{}
			stderr := &bytes.Buffer{}

			app := jyed.New(false, "test", os.Stdin, stdout, stderr)

			err := app.Convert(t.Context(), file, jyed.ConvertOptions{})
			test.Ok(t, err)
			test.Equal(t, stderr.String(), "")

			snap.Snap(stdout.String())
		})
	}
}

func TestConvertOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	out := filepath.Join(dir, "out.yaml")

	test.Ok(t, os.WriteFile(in, []byte(`{"b": [1, {"c": null}], "a": "x"}`), 0o644))

	stdout := &bytes.Buffer{}
	app := jyed.New(false, "test", os.Stdin, stdout, &bytes.Buffer{})

	err := app.Convert(t.Context(), in, jyed.ConvertOptions{Output: out})
	test.Ok(t, err)

	got, err := os.ReadFile(out)
	test.Ok(t, err)

	test.Diff(t, string(got), "b:\n  - 1\n  - c: null\na: x\n")
	test.True(t, strings.HasPrefix(stdout.String(), "Success: Converted"))
}

func TestConvertYAMLToJSONEndsInNewline(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.yml")

	test.Ok(t, os.WriteFile(in, []byte("a: 1\n"), 0o644))

	stdout := &bytes.Buffer{}
	app := jyed.New(false, "test", os.Stdin, stdout, &bytes.Buffer{})

	test.Ok(t, app.Convert(t.Context(), in, jyed.ConvertOptions{}))
	test.Equal(t, stdout.String(), "{\n  \"a\": 1\n}\n")
}

func TestConvertErrors(t *testing.T) {
	tests := []struct {
		name    string // Name of the test case
		file    string // File name, created in a temp dir
		content string // File contents
		wantErr error  // If set, the error must wrap this
		errMsg  string // Substring of the error
	}{
		{
			name:    "invalid json",
			file:    "bad.json",
			content: `{"a": }`,
			errMsg:  "is not valid JSON",
		},
		{
			name:    "invalid yaml",
			file:    "bad.yaml",
			content: "a: [1",
			errMsg:  "is not valid YAML",
		},
		{
			name:    "empty",
			file:    "empty.yaml",
			content: "",
			wantErr: format.ErrEmpty,
		},
		{
			name:    "unknown",
			file:    "notes.txt",
			content: "a: [1",
			wantErr: format.ErrUnknownFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			test.Ok(t, os.WriteFile(path, []byte(tt.content), 0o644))

			stdout := &bytes.Buffer{}
			app := jyed.New(false, "test", os.Stdin, stdout, &bytes.Buffer{})

			err := app.Convert(t.Context(), path, jyed.ConvertOptions{})
			test.Err(t, err)
			test.Equal(t, stdout.String(), "")

			if tt.wantErr != nil {
				test.True(t, errors.Is(err, tt.wantErr), test.Context("got %v, wanted %v", err, tt.wantErr))
			}

			if tt.errMsg != "" {
				test.True(t, strings.Contains(err.Error(), tt.errMsg), test.Context("error %q missing %q", err, tt.errMsg))
			}
		})
	}
}

func TestConvertMissingFile(t *testing.T) {
	app := jyed.New(false, "test", os.Stdin, &bytes.Buffer{}, &bytes.Buffer{})

	err := app.Convert(t.Context(), filepath.Join(t.TempDir(), "missing.json"), jyed.ConvertOptions{})
	test.Err(t, err)
}

func TestConvertOptionsValidate(t *testing.T) {
	test.Ok(t, jyed.ConvertOptions{}.Validate("in.json"))
	test.Ok(t, jyed.ConvertOptions{Output: "out.yaml"}.Validate("in.json"))
	test.Err(t, jyed.ConvertOptions{Output: "./in.json"}.Validate("in.json"))
}

func TestConvertWatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	out := filepath.Join(dir, "out.yaml")

	test.Ok(t, os.WriteFile(in, []byte(`{"version": 1}`), 0o644))

	stdout := &syncBuffer{}
	stderr := &syncBuffer{}
	app := jyed.New(false, "test", os.Stdin, stdout, stderr)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	errs := make(chan error, 1)

	go func() {
		errs <- app.Convert(ctx, in, jyed.ConvertOptions{Output: out, Watch: true})
	}()

	waitFor(t, func() bool {
		return strings.Contains(stderr.String(), "Watching")
	})

	got, err := os.ReadFile(out)
	test.Ok(t, err)
	test.Equal(t, string(got), "version: 1\n")

	// Keep writing until the change is picked up, the watcher may not have
	// registered the very first write
	waitFor(t, func() bool {
		if err := os.WriteFile(in, []byte(`{"version": 2}`), 0o644); err != nil {
			return false
		}

		got, err := os.ReadFile(out)

		return err == nil && string(got) == "version: 2\n"
	})

	cancel()
	test.Ok(t, <-errs)
}

// syncBuffer is a [bytes.Buffer] safe for concurrent use.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.buf.String()
}

// waitFor polls condition until it returns true, failing the test if that takes
// more than a few seconds.
func waitFor(t *testing.T, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}

		time.Sleep(100 * time.Millisecond)
	}

	t.Fatal("timed out waiting for condition")
}
