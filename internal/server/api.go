package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
	"go.followtheprocess.codes/jyed/internal/format"
	"go.followtheprocess.codes/jyed/internal/session"
)

// apiError is the body of every non 2xx API response.
type apiError struct {
	Error string `json:"error"`
}

// View is everything the page needs to render a session.
type View struct {
	// Effect is what the page must do as a result of the action, if anything.
	Effect session.Effect `json:"effect"`

	// Status is the status bar text, "Ready" when there is nothing to report.
	Status string `json:"status"`

	// Tone is the flavour of Status, empty when there is nothing to report.
	Tone session.Tone `json:"tone,omitempty"`

	// State is the session state the page should hold on to and send back
	// with the next action.
	State session.State `json:"state"`

	CanConvert  bool `json:"canConvert"`
	CanDownload bool `json:"canDownload"`
}

// newView builds the [View] of state.
func newView(state session.State, effect session.Effect) View {
	view := View{
		State:       state,
		Effect:      effect,
		Status:      state.StatusText(),
		CanConvert:  state.CanConvert(),
		CanDownload: state.CanDownload(),
	}

	if state.Status != nil {
		view.Tone = state.Status.Tone
	}

	return view
}

// ReduceRequest is the body of a POST to /api/session/reduce.
type ReduceRequest struct {
	State  session.State  `json:"state"`
	Action session.Action `json:"action"`
}

// DetectRequest is the body of a POST to /api/detect.
type DetectRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// DetectResponse is the response to a POST to /api/detect.
type DetectResponse struct {
	// Format is "json", "yaml", or "unknown".
	Format string `json:"format"`
}

// ValidateRequest is the body of a POST to /api/validate.
type ValidateRequest struct {
	Text   string        `json:"text"`
	Format format.Format `json:"format"`
	Role   string        `json:"role"` // "source" (the default) or "target"
}

// ValidateResponse is the response to a POST to /api/validate.
type ValidateResponse struct {
	Error string `json:"error,omitempty"`
	Valid bool   `json:"valid"`
}

// ConvertRequest is the body of a POST to /api/convert.
type ConvertRequest struct {
	Text   string        `json:"text"`
	Format format.Format `json:"format"` // The format Text is in
}

// ConvertResponse is the response to a POST to /api/convert.
type ConvertResponse struct {
	Text   string        `json:"text"`
	Format format.Format `json:"format"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, newView(session.New(), session.Effect{}))
}

func (s *Server) handleReduce(w http.ResponseWriter, r *http.Request) {
	var request ReduceRequest
	if !s.decode(w, r, &request) {
		return
	}

	if err := request.State.Check(); err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("invalid state: %w", err))
		return
	}

	next, effect, err := session.Reduce(request.State, request.Action)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}

	s.respond(w, http.StatusOK, newView(next, effect))
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var request DetectRequest
	if !s.decode(w, r, &request) {
		return
	}

	detected := format.Detect(request.Filename, request.Content)
	s.respond(w, http.StatusOK, DetectResponse{Format: detected.String()})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var request ValidateRequest
	if !s.decode(w, r, &request) {
		return
	}

	var role format.Role

	switch request.Role {
	case "", "source":
		role = format.Source
	case "target":
		role = format.Target
	default:
		s.fail(w, http.StatusBadRequest, fmt.Errorf("unknown role %q, expected 'source' or 'target'", request.Role))
		return
	}

	response := ValidateResponse{Valid: true}
	if err := format.Validate(request.Text, request.Format, role); err != nil {
		response = ValidateResponse{Valid: false, Error: err.Error()}
	}

	s.respond(w, http.StatusOK, response)
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var request ConvertRequest
	if !s.decode(w, r, &request) {
		return
	}

	if err := format.Validate(request.Text, request.Format, format.Source); err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}

	conversion, err := format.Convert(request.Text, request.Format)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}

	s.respond(w, http.StatusOK, ConvertResponse{Text: conversion.Text, Format: conversion.Format})
}

// decode decodes the JSON request body into v, answering the request with an error
// and returning false if it can't.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}

		s.fail(w, http.StatusBadRequest, fmt.Errorf("could not read request body: %w", err))

		return false
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}

	return true
}

// respond writes v as the JSON response body.
func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(v); err != nil {
		s.logger.Error("Could not write response", slog.String("error", err.Error()))
	}
}

// fail writes err as a JSON error response.
func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	s.respond(w, status, apiError{Error: err.Error()})
}
