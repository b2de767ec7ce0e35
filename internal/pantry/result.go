package pantry

import (
	"errors"
	"net/http"
)

type ResultKind int

const (
	ResultRedirect ResultKind = iota
	ResultInvalid
	ResultConflict
	ResultNotFound
	ResultFailure
)

// Result is what a command handler decided; the presentation layer turns
// it into a redirect or a re-rendered page.
type Result struct {
	Kind     ResultKind
	Location string
	Message  string
	Err      error
}

func Redirect(location string) Result {
	return Result{Kind: ResultRedirect, Location: location}
}

func Invalid(message string) Result {
	return Result{Kind: ResultInvalid, Message: message}
}

func Conflict(message string) Result {
	return Result{Kind: ResultConflict, Message: message}
}

func NotFound() Result {
	return Result{Kind: ResultNotFound}
}

func Failure(err error) Result {
	return Result{Kind: ResultFailure, Err: err, Message: "Something went wrong. Please try again."}
}

// Status is the HTTP status used when the result re-renders a page.
func (r Result) Status() int {
	switch r.Kind {
	case ResultRedirect:
		return http.StatusSeeOther
	case ResultInvalid:
		return http.StatusUnprocessableEntity
	case ResultConflict:
		return http.StatusConflict
	case ResultNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// FromError maps repository sentinels to results. inUse and invalid are the
// user-facing messages for ErrInUse and ErrInvalid/ErrDuplicate.
func FromError(err error, inUse, invalid string) Result {
	switch {
	case err == nil:
		return Result{}
	case errors.Is(err, ErrNotFound):
		return NotFound()
	case errors.Is(err, ErrInUse):
		return Conflict(inUse)
	case errors.Is(err, ErrInvalid), errors.Is(err, ErrDuplicate):
		return Invalid(invalid)
	default:
		return Failure(err)
	}
}
