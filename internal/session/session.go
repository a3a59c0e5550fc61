// Package session implements the editor session: the source and target documents,
// their validation errors and the status of the last action, along with the rules
// for how each user action changes them.
//
// A [State] is a plain value. Every transition is a method that returns a new
// [State] and never fails, errors are recorded in the state itself so the editor
// always remains usable. The whole state serialises to JSON so it can be owned by
// the browser and passed through the server's reducer endpoint.
package session

import (
	"errors"
	"fmt"

	"go.followtheprocess.codes/jyed/internal/format"
)

// Sample is the document the source pane starts with.
const Sample = `name: Json-Yaml Editor
version: 1.0.0
description: A synchronized editor for JSON and YAML content.
features:
  - Two-way editing
  - Real-time validation
`

// Status messages.
const (
	ready               = "Ready"
	validationSucceeded = "Validation succeeded"
	validationFailed    = "Validation failed - check errors below"
	sourceInvalid       = "Resolve source errors before converting"
	unsupportedFile     = "Unsupported file type. Please upload YAML or JSON."
	nothingToDownload   = "Nothing to download yet."
	targetInvalid       = "Resolve target errors before downloading."
)

// DownloadMIME is the content type of every downloaded document.
const DownloadMIME = "text/plain;charset=utf-8"

// Tone is the flavour of a [Status].
type Tone string

const (
	Success Tone = "success" // The action worked
	Failure Tone = "error"   // The action failed or was blocked
)

// Status describes the outcome of the most recent user triggered action.
type Status struct {
	Message string `json:"message"`
	Tone    Tone   `json:"tone"`
}

// Document is one editor pane: its text, the format it is claimed to be in, and
// the most recent validation error.
//
// The format is a claim, not a guarantee, a document tagged JSON may well hold
// invalid JSON in which case Error says why.
type Document struct {
	Text   string        `json:"text"`
	Format format.Format `json:"format"`
	Error  string        `json:"error,omitempty"` // Empty means valid
}

// Valid reports whether the document had no errors when it was last validated.
func (d Document) Valid() bool {
	return d.Error == ""
}

// File is a document handed to the user for download.
type File struct {
	Name    string `json:"name"`
	MIME    string `json:"mime"`
	Content string `json:"content"`
}

// Ticket identifies an in-flight upload, see [State.BeginUpload].
type Ticket uint64

// State is the complete state of an editor session.
type State struct {
	// Status is the outcome of the last action, nil when there is nothing to report.
	Status *Status `json:"status,omitempty"`

	// Source is the left hand pane, the one that gets converted.
	Source Document `json:"source"`

	// Target is the right hand pane, the one conversions are written to and
	// downloads are taken from.
	Target Document `json:"target"`

	// Revision increases by one with every transition.
	Revision uint64 `json:"revision"`

	// PendingUpload is the ticket of the upload currently being read, 0 if none.
	PendingUpload Ticket `json:"pendingUpload,omitempty"`
}

// New returns the state of a freshly opened editor: the [Sample] YAML document
// in the source pane and its JSON conversion in the target pane.
func New() State {
	target := ""
	if conversion, err := format.Convert(Sample, format.YAML); err == nil {
		target = conversion.Text
	}

	return State{
		Source: Document{Text: Sample, Format: format.YAML},
		Target: Document{Text: target, Format: format.JSON},
	}
}

// Check reports whether s is a state the transitions can work with, which is
// only a concern for states that arrive from outside e.g. over HTTP.
func (s State) Check() error {
	if s.Source.Format == format.Unknown {
		return errors.New("source document has no format")
	}

	if s.Target.Format == format.Unknown {
		return errors.New("target document has no format")
	}

	if s.PendingUpload > Ticket(s.Revision) {
		return fmt.Errorf("pending upload %d is ahead of revision %d", s.PendingUpload, s.Revision)
	}

	return nil
}

// StatusText returns the message to show in the status bar.
func (s State) StatusText() string {
	if s.Status == nil {
		return ready
	}

	return s.Status.Message
}

// CanConvert reports whether there is anything in the source pane to convert.
func (s State) CanConvert() bool {
	return !format.IsBlank(s.Source.Text)
}

// CanDownload reports whether the target pane holds something valid to download.
func (s State) CanDownload() bool {
	return !format.IsBlank(s.Target.Text) && s.Target.Valid()
}

// EditSource replaces the source text, clears the status and revalidates the source.
//
// It invalidates any upload in progress.
func (s State) EditSource(text string) State {
	s = s.next()
	s.PendingUpload = 0
	s.Status = nil
	s.Source.Text = text
	s.Source.Error = message(format.Validate(text, s.Source.Format, format.Source))

	return s
}

// EditTarget replaces the target text, clears the status and revalidates the target.
//
// It invalidates any upload in progress.
func (s State) EditTarget(text string) State {
	s = s.next()
	s.PendingUpload = 0
	s.Status = nil
	s.Target.Text = text
	s.Target.Error = message(format.Validate(text, s.Target.Format, format.Target))

	return s
}

// Validate revalidates both documents, the status reports overall success while
// the individual errors are kept on each document.
func (s State) Validate() State {
	s = s.next()
	s.Source.Error = message(format.Validate(s.Source.Text, s.Source.Format, format.Source))
	s.Target.Error = message(format.Validate(s.Target.Text, s.Target.Format, format.Target))

	if s.Source.Valid() && s.Target.Valid() {
		return s.succeed(validationSucceeded)
	}

	return s.fail(validationFailed)
}

// Convert converts the source document into the opposite format, replacing the target
// document entirely.
//
// The source is revalidated first, if it is invalid or the conversion fails the
// target is left exactly as it was.
func (s State) Convert() State {
	s = s.next()

	if err := format.Validate(s.Source.Text, s.Source.Format, format.Source); err != nil {
		s.Source.Error = err.Error()
		return s.fail(sourceInvalid + ": " + err.Error())
	}

	s.Source.Error = ""

	conversion, err := format.Convert(s.Source.Text, s.Source.Format)
	if err != nil {
		return s.fail(err.Error())
	}

	s.Target = Document{Text: conversion.Text, Format: conversion.Format}

	return s.succeed(fmt.Sprintf("Converted %s to %s", s.Source.Format.Title(), conversion.Format.Title()))
}

// BeginUpload marks the start of a file upload, the returned ticket must be passed
// to [State.CompleteUpload] once the file has been read.
//
// Starting a new upload invalidates any upload already in progress.
func (s State) BeginUpload() (State, Ticket) {
	s = s.next()
	s.PendingUpload = Ticket(s.Revision)

	return s, s.PendingUpload
}

// CompleteUpload loads the content of an uploaded file into the source pane.
//
// If ticket is no longer the pending upload, because the user has since edited
// either pane or started another upload, the result is stale and s is returned
// unchanged.
//
// The format is detected from name and content, content that is neither JSON nor
// YAML leaves the documents untouched. Otherwise the content is normalised (see
// [format.Normalise]) into the source pane, even if it doesn't parse, and the
// target pane is reset to an empty document of the opposite format.
func (s State) CompleteUpload(ticket Ticket, name, content string, readErr error) State {
	if ticket == 0 || ticket != s.PendingUpload {
		return s
	}

	s = s.next()
	s.PendingUpload = 0

	if readErr != nil {
		return s.fail("Failed to read file: " + readErr.Error())
	}

	detected := format.Detect(name, content)
	if detected == format.Unknown {
		return s.fail(unsupportedFile)
	}

	text, err := format.Normalise(content, detected)

	s.Source = Document{Text: text, Format: detected, Error: message(err)}
	s.Target = Document{Format: detected.Opposite()}

	if err != nil {
		return s.fail(fmt.Sprintf("%s parse error: %s", detected.Title(), err))
	}

	return s.succeed(fmt.Sprintf("Loaded %s file \"%s\"", detected.Title(), name))
}

// Upload is [State.BeginUpload] immediately followed by [State.CompleteUpload], for
// callers that already have the file content in hand.
func (s State) Upload(name, content string) State {
	s, ticket := s.BeginUpload()
	return s.CompleteUpload(ticket, name, content, nil)
}

// Download returns the target document as a file to save.
//
// Nothing is returned if the target is blank or invalid, the status says which.
func (s State) Download() (State, *File) {
	s = s.next()

	if format.IsBlank(s.Target.Text) {
		return s.fail(nothingToDownload), nil
	}

	if !s.Target.Valid() {
		return s.fail(targetInvalid), nil
	}

	file := &File{
		Name:    s.Target.Format.DownloadName(),
		MIME:    DownloadMIME,
		Content: s.Target.Text,
	}

	return s.succeed("Downloaded " + file.Name), file
}

func (s State) next() State {
	s.Revision++
	return s
}

func (s State) succeed(msg string) State {
	s.Status = &Status{Message: msg, Tone: Success}
	return s
}

func (s State) fail(msg string) State {
	s.Status = &Status{Message: msg, Tone: Failure}
	return s
}

// message returns the text of err, or "" if err is nil.
func message(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
