package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/vadimbarashkov/dlink/internal/session"
)

// Outcome classifies the result of a backend call.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeBadRequest
	OutcomeUnauthorized
	OutcomeServerError
	OutcomeNetworkFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeBadRequest:
		return "bad_request"
	case OutcomeUnauthorized:
		return "unauthorized"
	case OutcomeServerError:
		return "server_error"
	case OutcomeNetworkFailure:
		return "network_failure"
	default:
		return "unknown"
	}
}

var (
	// ErrBadRequest is returned when the server rejects the submitted input (HTTP 400).
	ErrBadRequest = errors.New("bad request")
	// ErrUnauthorized is returned when the access token is missing, expired or invalid (HTTP 401).
	ErrUnauthorized = errors.New("unauthorized")
	// ErrServerError is returned for HTTP 500, any other unexpected status, or an undecodable body.
	ErrServerError = errors.New("server error")
	// ErrNetworkFailure is returned when no response was received.
	ErrNetworkFailure = errors.New("network failure")
)

var outcomeErrs = map[Outcome]error{
	OutcomeBadRequest:     ErrBadRequest,
	OutcomeUnauthorized:   ErrUnauthorized,
	OutcomeServerError:    ErrServerError,
	OutcomeNetworkFailure: ErrNetworkFailure,
}

// Error describes a failed backend call.
type Error struct {
	Op         string  // Op is the client operation that failed.
	Outcome    Outcome // Outcome is the failure kind.
	StatusCode int     // StatusCode is the HTTP status, zero when no response was received.
	Message    string  // Message is the message the server sent, if any.
	Err        error   // Err is the underlying transport or decoding error, if any.
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, outcomeErrs[e.Outcome])
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the outcome sentinel and the underlying error to errors.Is.
func (e *Error) Unwrap() []error {
	errs := []error{outcomeErrs[e.Outcome]}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// OutcomeOf returns the outcome carried by err. A nil error is OutcomeOK and
// errors that did not come from a backend call are OutcomeServerError.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Outcome
	}

	return OutcomeServerError
}

type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// classify turns the result of an HTTP round trip into nil or an *Error,
// decoding a successful body into out when out is not nil. It is the single
// place where status codes are interpreted.
func classify(op string, resp *http.Response, err error, out any) error {
	if err != nil {
		if errors.Is(err, session.ErrNoToken) {
			return &Error{Op: op, Outcome: OutcomeUnauthorized, Err: err}
		}
		return &Error{Op: op, Outcome: OutcomeNetworkFailure, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := render.DecodeJSON(resp.Body, out); err != nil {
			return &Error{
				Op:         op,
				Outcome:    OutcomeServerError,
				StatusCode: resp.StatusCode,
				Err:        fmt.Errorf("failed to decode response body: %w", err),
			}
		}
		return nil
	}

	apiErr := &Error{
		Op:         op,
		StatusCode: resp.StatusCode,
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		apiErr.Outcome = OutcomeBadRequest
	case http.StatusUnauthorized:
		apiErr.Outcome = OutcomeUnauthorized
	default:
		apiErr.Outcome = OutcomeServerError
	}

	var body errorBody
	if err := render.DecodeJSON(resp.Body, &body); err == nil {
		apiErr.Message = body.Message
	}

	return apiErr
}

// isCanceled reports whether err stems from the caller giving up.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
