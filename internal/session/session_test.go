package session_test

import (
	"errors"
	"strings"
	"testing"

	"go.followtheprocess.codes/jyed/internal/format"
	"go.followtheprocess.codes/jyed/internal/session"
	"go.followtheprocess.codes/test"
)

const sampleJSON = `{
  "name": "Json-Yaml Editor",
  "version": "1.0.0",
  "description": "A synchronized editor for JSON and YAML content.",
  "features": [
    "Two-way editing",
    "Real-time validation"
  ]
}`

func TestNew(t *testing.T) {
	state := session.New()

	test.Equal(t, state.Source, session.Document{Text: session.Sample, Format: format.YAML})
	test.Equal(t, state.Target, session.Document{Text: sampleJSON, Format: format.JSON})
	test.True(t, state.Status == nil)
	test.Equal(t, state.StatusText(), "Ready")
	test.Equal(t, state.Revision, 0)
	test.True(t, state.CanConvert())
	test.True(t, state.CanDownload())
	test.Ok(t, state.Check())
}

func TestEditSource(t *testing.T) {
	state := session.New().Validate()
	test.True(t, state.Status != nil)

	state = state.EditSource("a: [1")
	test.Equal(t, state.Source.Text, "a: [1")
	test.True(t, state.Status == nil, test.Context("status not cleared by an edit"))
	test.False(t, state.Source.Valid())

	state = state.EditSource("a: [1]")
	test.True(t, state.Source.Valid())

	state = state.EditSource("   ")
	test.Equal(t, state.Source.Error, "No content to validate.")
	test.False(t, state.CanConvert())

	// Target untouched throughout
	test.Equal(t, state.Target.Text, sampleJSON)
}

func TestEditTarget(t *testing.T) {
	state := session.New().EditTarget(`{"broken": `)
	test.False(t, state.Target.Valid())
	test.False(t, state.CanDownload())

	state = state.EditTarget("")
	test.True(t, state.Target.Valid(), test.Context("empty target should be valid, got %q", state.Target.Error))
	test.False(t, state.CanDownload())

	state = state.EditTarget(`{"fixed": true}`)
	test.True(t, state.Target.Valid())
	test.True(t, state.CanDownload())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string // Name of the test case
		source    string // Source text (YAML)
		target    string // Target text (JSON)
		message   string // Expected status message
		tone      session.Tone
		sourceErr bool // Whether the source should end up with an error
		targetErr bool // Whether the target should end up with an error
	}{
		{
			name:    "both valid",
			source:  "a: 1\n",
			target:  `{"a": 1}`,
			message: "Validation succeeded",
			tone:    session.Success,
		},
		{
			name:    "empty target is fine",
			source:  "a: 1\n",
			target:  "",
			message: "Validation succeeded",
			tone:    session.Success,
		},
		{
			name:      "empty source is not",
			source:    "",
			target:    `{"a": 1}`,
			message:   "Validation failed - check errors below",
			tone:      session.Failure,
			sourceErr: true,
		},
		{
			name:      "invalid target",
			source:    "a: 1\n",
			target:    `{"a": `,
			message:   "Validation failed - check errors below",
			tone:      session.Failure,
			targetErr: true,
		},
		{
			name:      "both invalid",
			source:    "a: [",
			target:    `{"a": `,
			message:   "Validation failed - check errors below",
			tone:      session.Failure,
			sourceErr: true,
			targetErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := session.New().EditSource(tt.source).EditTarget(tt.target).Validate()

			test.Equal(t, *state.Status, session.Status{Message: tt.message, Tone: tt.tone})
			test.Equal(t, state.Source.Error != "", tt.sourceErr)
			test.Equal(t, state.Target.Error != "", tt.targetErr)
		})
	}
}

func TestConvertJSONToYAML(t *testing.T) {
	state := session.New().Upload("doc.json", `{"a":1}`)
	test.Equal(t, state.Source.Format, format.JSON)

	state = state.Convert()

	test.Equal(t, state.Target, session.Document{Text: "a: 1\n", Format: format.YAML})
	test.Equal(t, *state.Status, session.Status{Message: "Converted JSON to YAML", Tone: session.Success})
}

func TestConvertYAMLToJSON(t *testing.T) {
	state := session.New().EditTarget("").Convert()

	test.Equal(t, state.Target, session.Document{Text: sampleJSON, Format: format.JSON})
	test.Equal(t, *state.Status, session.Status{Message: "Converted YAML to JSON", Tone: session.Success})
}

func TestConvertInvalidSource(t *testing.T) {
	before := session.New().Upload("doc.json", `{"a":1}`).Convert()
	test.Equal(t, before.Target.Format, format.YAML)

	state := before.EditSource("{invalid").Convert()

	parseErr := format.Validate("{invalid", format.JSON, format.Source)
	test.Err(t, parseErr)

	// Target untouched, status is an error carrying the parser's diagnostic
	test.Equal(t, state.Target, before.Target)
	test.Equal(t, state.Status.Tone, session.Failure)
	test.True(t, strings.Contains(state.Status.Message, parseErr.Error()), test.Context("status: %q", state.Status.Message))
	test.Equal(t, state.Source.Error, parseErr.Error())
}

func TestConvertEmptySource(t *testing.T) {
	before := session.New()
	state := before.EditSource("").Convert()

	test.Equal(t, state.Target, before.Target)
	test.Equal(t, state.Status.Tone, session.Failure)
	test.Equal(t, state.Source.Error, "No content to validate.")
}

func TestConvertRevalidatesSource(t *testing.T) {
	// A source error left over from an earlier state is cleared once the source
	// is found to be valid at convert time
	state := session.New()
	state.Source.Error = "stale"

	state = state.Convert()
	test.Equal(t, state.Source.Error, "")
	test.Equal(t, state.Status.Tone, session.Success)
}

func TestUpload(t *testing.T) {
	tests := []struct {
		name    string           // Name of the test case
		file    string           // Uploaded file name
		content string           // Uploaded file content
		message string           // Expected status message
		tone    session.Tone     // Expected status tone
		source  session.Document // Expected source document (ignored if unsupported)
		target  session.Document // Expected target document (ignored if unsupported)
		unsup   bool             // Whether the upload should be rejected as unsupported
	}{
		{
			name:    "yaml",
			file:    "data.yml",
			content: "a: 1",
			message: `Loaded YAML file "data.yml"`,
			tone:    session.Success,
			source:  session.Document{Text: "a: 1\n", Format: format.YAML},
			target:  session.Document{Format: format.JSON},
		},
		{
			name:    "json is reformatted",
			file:    "data.json",
			content: `{"a":1,"b":[true]}`,
			message: `Loaded JSON file "data.json"`,
			tone:    session.Success,
			source:  session.Document{Text: "{\n  \"a\": 1,\n  \"b\": [\n    true\n  ]\n}", Format: format.JSON},
			target:  session.Document{Format: format.YAML},
		},
		{
			name:    "json with a number too large for a float",
			file:    "big.json",
			content: `{"a": 1e400}`,
			message: `Loaded JSON file "big.json"`,
			tone:    session.Success,
			source:  session.Document{Text: "{\n  \"a\": null\n}", Format: format.JSON},
			target:  session.Document{Format: format.YAML},
		},
		{
			name:    "sniffed json",
			file:    "data.txt",
			content: `[1,2]`,
			message: `Loaded JSON file "data.txt"`,
			tone:    session.Success,
			source:  session.Document{Text: "[\n  1,\n  2\n]", Format: format.JSON},
			target:  session.Document{Format: format.YAML},
		},
		{
			name:    "sniffed yaml",
			file:    "Dockerfile",
			content: "a: b\n",
			message: `Loaded YAML file "Dockerfile"`,
			tone:    session.Success,
			source:  session.Document{Text: "a: b\n", Format: format.YAML},
			target:  session.Document{Format: format.JSON},
		},
		{
			name:    "unsupported",
			file:    "notes.txt",
			content: "a: [unclosed",
			message: "Unsupported file type. Please upload YAML or JSON.",
			tone:    session.Failure,
			unsup:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := session.New()
			state := before.Upload(tt.file, tt.content)

			test.Equal(t, *state.Status, session.Status{Message: tt.message, Tone: tt.tone})
			test.Equal(t, state.PendingUpload, 0)

			if tt.unsup {
				test.Equal(t, state.Source, before.Source)
				test.Equal(t, state.Target, before.Target)

				return
			}

			test.Equal(t, state.Source, tt.source)
			test.Equal(t, state.Target, tt.target)
		})
	}
}

func TestUploadInvalidJSONKeepsRawText(t *testing.T) {
	state := session.New().Upload("broken.json", `{"a":`)

	test.Equal(t, state.Source.Text, `{"a":`)
	test.Equal(t, state.Source.Format, format.JSON)
	test.False(t, state.Source.Valid())
	test.Equal(t, state.Target, session.Document{Format: format.YAML})
	test.Equal(t, state.Status.Tone, session.Failure)
	test.Equal(t, state.Status.Message, "JSON parse error: "+state.Source.Error)
}

func TestUploadInvalidYAMLKeepsText(t *testing.T) {
	state := session.New().Upload("broken.yaml", "a: [1")

	test.Equal(t, state.Source.Text, "a: [1\n")
	test.Equal(t, state.Source.Format, format.YAML)
	test.False(t, state.Source.Valid())
	test.Equal(t, state.Target, session.Document{Format: format.JSON})
	test.Equal(t, state.Status.Message, "YAML parse error: "+state.Source.Error)
}

func TestUploadReadError(t *testing.T) {
	before := session.New()
	state, ticket := before.BeginUpload()
	state = state.CompleteUpload(ticket, "data.json", "", errors.New("permission denied"))

	test.Equal(t, *state.Status, session.Status{Message: "Failed to read file: permission denied", Tone: session.Failure})
	test.Equal(t, state.Source, before.Source)
	test.Equal(t, state.Target, before.Target)
	test.Equal(t, state.PendingUpload, 0)
}

func TestUploadStale(t *testing.T) {
	tests := []struct {
		interrupt func(session.State) session.State // Whatever happens while the file is being read
		name      string                            // Name of the test case
	}{
		{
			name:      "edit source",
			interrupt: func(s session.State) session.State { return s.EditSource("typed: while uploading\n") },
		},
		{
			name:      "edit target",
			interrupt: func(s session.State) session.State { return s.EditTarget("{}") },
		},
		{
			name: "newer upload",
			interrupt: func(s session.State) session.State {
				s, _ = s.BeginUpload()
				return s
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, ticket := session.New().BeginUpload()
			interrupted := tt.interrupt(state)

			got := interrupted.CompleteUpload(ticket, "late.json", `{"late": true}`, nil)
			test.Equal(t, got.Source, interrupted.Source)
			test.Equal(t, got.Target, interrupted.Target)
			test.Equal(t, got.Revision, interrupted.Revision)
		})
	}
}

func TestUploadSurvivesValidate(t *testing.T) {
	// Only edits and newer uploads supersede an upload in progress
	state, ticket := session.New().BeginUpload()
	state = state.Validate()
	state = state.CompleteUpload(ticket, "data.yaml", "b: 2\n", nil)

	test.Equal(t, state.Source, session.Document{Text: "b: 2\n", Format: format.YAML})
}

func TestUploadUnknownTicket(t *testing.T) {
	state := session.New()
	got := state.CompleteUpload(0, "data.yaml", "b: 2\n", nil)
	test.Equal(t, got.Revision, state.Revision)
	test.Equal(t, got.Source, state.Source)
}

func TestDownload(t *testing.T) {
	tests := []struct {
		want    *session.File // Expected file, nil if none
		name    string        // Name of the test case
		target  string        // Target text
		message string        // Expected status
		format  format.Format // Target format
	}{
		{
			name:    "empty target",
			target:  "",
			format:  format.JSON,
			message: "Nothing to download yet.",
		},
		{
			name:    "blank target",
			target:  "  \n",
			format:  format.YAML,
			message: "Nothing to download yet.",
		},
		{
			name:    "invalid target",
			target:  `{"a": `,
			format:  format.JSON,
			message: "Resolve target errors before downloading.",
		},
		{
			name:    "json",
			target:  `{"a": 1}`,
			format:  format.JSON,
			message: "Downloaded document.json",
			want:    &session.File{Name: "document.json", MIME: "text/plain;charset=utf-8", Content: `{"a": 1}`},
		},
		{
			name:    "yaml",
			target:  "a: 1\n",
			format:  format.YAML,
			message: "Downloaded document.yaml",
			want:    &session.File{Name: "document.yaml", MIME: "text/plain;charset=utf-8", Content: "a: 1\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := session.New()
			before.Target.Format = tt.format
			before = before.EditTarget(tt.target)

			state, file := before.Download()

			test.Equal(t, state.Source, before.Source)
			test.Equal(t, state.Target, before.Target)
			test.Equal(t, state.StatusText(), tt.message)

			if tt.want == nil {
				test.True(t, file == nil, test.Context("download emitted when blocked: %+v", file))
				test.Equal(t, state.Status.Tone, session.Failure)

				return
			}

			test.True(t, file != nil, test.Context("no download emitted"))
			test.Equal(t, *file, *tt.want)
			test.Equal(t, state.Status.Tone, session.Success)
		})
	}
}

func TestRevisionAlwaysIncreases(t *testing.T) {
	state := session.New()
	revision := state.Revision

	steps := []func(session.State) session.State{
		func(s session.State) session.State { return s.EditSource("a: 1\n") },
		func(s session.State) session.State { return s.EditTarget("") },
		session.State.Validate,
		session.State.Convert,
		func(s session.State) session.State { return s.Upload("x.json", "{}") },
		func(s session.State) session.State {
			s, _ = s.Download()
			return s
		},
	}

	for _, step := range steps {
		state = step(state)
		test.True(t, state.Revision > revision, test.Context("revision did not increase: %d", state.Revision))
		revision = state.Revision
	}
}

func TestCheck(t *testing.T) {
	test.Ok(t, session.New().Check())

	state := session.New()
	state.Source.Format = format.Unknown
	test.Err(t, state.Check())

	state = session.New()
	state.Target.Format = format.Unknown
	test.Err(t, state.Check())

	state = session.New()
	state.PendingUpload = 10
	test.Err(t, state.Check())
}
