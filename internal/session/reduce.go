package session

import (
	"errors"
	"fmt"
)

// Kind is the type of an [Action].
type Kind string

// Action kinds, one per user interaction.
const (
	ActionEditSource  Kind = "editSource"
	ActionEditTarget  Kind = "editTarget"
	ActionValidate    Kind = "validate"
	ActionConvert     Kind = "convert"
	ActionBeginUpload Kind = "beginUpload"
	ActionUpload      Kind = "upload"
	ActionDownload    Kind = "download"
)

// Action is a user interaction with the editor, in a form that can be sent over the wire.
//
// Which fields are used depends on Type.
type Action struct {
	Type      Kind   `json:"type"`
	Text      string `json:"text,omitempty"`      // editSource, editTarget
	Name      string `json:"name,omitempty"`      // upload: the file name
	Content   string `json:"content,omitempty"`   // upload: the file content
	ReadError string `json:"readError,omitempty"` // upload: set if the file could not be read
	Ticket    Ticket `json:"ticket,omitempty"`    // upload: from the beginUpload effect
}

// Effect is what the outside world must do as a result of an [Action].
type Effect struct {
	// Download is the file to hand to the user, set by a successful download.
	Download *File `json:"download,omitempty"`

	// Ticket is the upload ticket issued by beginUpload.
	Ticket Ticket `json:"ticket,omitempty"`

	// Stale is set when an upload completed after being superseded, the state
	// is returned unchanged.
	Stale bool `json:"stale,omitempty"`
}

// ErrUnknownAction is returned by [Reduce] for an action it does not understand.
var ErrUnknownAction = errors.New("unknown action")

// Reduce applies action to state, returning the new state and any effect the caller
// must carry out.
//
// The only error is an action of unknown type, in which case state is returned as is.
func Reduce(state State, action Action) (State, Effect, error) {
	switch action.Type {
	case ActionEditSource:
		return state.EditSource(action.Text), Effect{}, nil
	case ActionEditTarget:
		return state.EditTarget(action.Text), Effect{}, nil
	case ActionValidate:
		return state.Validate(), Effect{}, nil
	case ActionConvert:
		return state.Convert(), Effect{}, nil
	case ActionBeginUpload:
		next, ticket := state.BeginUpload()
		return next, Effect{Ticket: ticket}, nil
	case ActionUpload:
		var readErr error
		if action.ReadError != "" {
			readErr = errors.New(action.ReadError)
		}

		next := state.CompleteUpload(action.Ticket, action.Name, action.Content, readErr)

		return next, Effect{Stale: next.Revision == state.Revision}, nil
	case ActionDownload:
		next, file := state.Download()
		return next, Effect{Download: file}, nil
	default:
		return state, Effect{}, fmt.Errorf("%w: %q", ErrUnknownAction, action.Type)
	}
}
