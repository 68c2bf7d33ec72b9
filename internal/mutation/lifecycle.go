// Package mutation orchestrates the operations that change server-side state:
// creating, updating and deleting links, plus signing in, registering and
// signing out.
//
// Every coordinator follows the same lifecycle. A submission is validated
// locally first and never reaches the network when invalid. A valid one moves
// the coordinator from Idle to Submitting, then to Succeeded or Failed, and
// back to Idle so the form can be submitted again. A failure is reported
// through the Notifier and leaves the entered values in place.
package mutation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/vadimbarashkov/dlink/internal/api"
	"github.com/vadimbarashkov/dlink/internal/collection"
	"github.com/vadimbarashkov/dlink/internal/navigation"
	"github.com/vadimbarashkov/dlink/internal/validation"
)

// ErrBusy is returned when a submission is attempted while another one is in flight.
var ErrBusy = errors.New("submission in progress")

// State is a lifecycle state.
type State int

const (
	Idle State = iota
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Notifier surfaces a message the user has to acknowledge.
type Notifier interface {
	Notify(msg string)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Navigator switches the current view.
type Navigator interface {
	Navigate(v navigation.View)
}

// Links is the part of the link collection mutations keep up to date.
type Links interface {
	Invalidate()
	Refresh(ctx context.Context) (collection.View, error)
}

// Form is the state of one form: the entered values and the field errors of
// the last validation.
type Form[T any] struct {
	Values T
	Errors validation.Errors
}

// Lifecycle tracks the submission state of a coordinator.
type Lifecycle struct {
	mu        sync.Mutex
	state     State
	observers []func(State)
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.state
}

// Observe registers fn to be called on every transition.
func (l *Lifecycle) Observe(fn func(State)) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.observers = append(l.observers, fn)
}

// begin moves an idle lifecycle to Submitting. The check and the move happen
// under one lock, so only one of several concurrent submissions gets through.
func (l *Lifecycle) begin() bool {
	l.mu.Lock()
	if l.state != Idle {
		l.mu.Unlock()
		return false
	}
	l.state = Submitting
	observers := append([]func(State){}, l.observers...)
	l.mu.Unlock()

	notifyObservers(observers, Submitting)
	return true
}

func (l *Lifecycle) transition(s State) {
	l.mu.Lock()
	l.state = s
	observers := append([]func(State){}, l.observers...)
	l.mu.Unlock()

	notifyObservers(observers, s)
}

func notifyObservers(observers []func(State), s State) {
	for _, fn := range observers {
		fn(s)
	}
}

// submit runs call inside the lifecycle. On success it runs onSuccess while in
// Succeeded, on failure it notifies the user while in Failed; both end in Idle.
func (l *Lifecycle) submit(notify Notifier, messages map[api.Outcome]string, call func() error, onSuccess func()) error {
	if !l.begin() {
		return ErrBusy
	}
	defer l.transition(Idle)

	if err := call(); err != nil {
		l.transition(Failed)
		notify.Notify(Message(err, messages))
		return err
	}

	l.transition(Succeeded)
	onSuccess()

	return nil
}

var defaultMessages = map[api.Outcome]string{
	api.OutcomeBadRequest:     "Bad Request from user",
	api.OutcomeUnauthorized:   "Unauthorized, please login again",
	api.OutcomeServerError:    "Internal server error",
	api.OutcomeNetworkFailure: "Unable to reach the server",
}

// Message returns the fixed user-facing message for err, preferring overrides.
func Message(err error, overrides map[api.Outcome]string) string {
	outcome := api.OutcomeOf(err)

	if msg, ok := overrides[outcome]; ok {
		return msg
	}
	if msg, ok := defaultMessages[outcome]; ok {
		return msg
	}

	return defaultMessages[api.OutcomeServerError]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
