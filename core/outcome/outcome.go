// Package outcome turns the result of a submission into what the user gets to see:
// a transient notification, a persistent banner and inline field errors.
package outcome

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/trace/core"
)

// RedirectDelay is how long the success notification stays before switching views.
const RedirectDelay = 3 * time.Second

const (
	MsgSaved    = "Saved successfully."
	MsgGeneric  = "Something went wrong. Please try again."
	MsgInvalid  = "Please correct the highlighted fields."
	MsgTimedOut = "The request timed out. Please check your connection and try again."
)

type Level int

const (
	LevelSuccess Level = iota
	LevelError
	LevelTimeout
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelTimeout:
		return "timeout"
	default:
		return "error"
	}
}

// Result is what a submission produced.
type Result struct {
	Data    interface{}
	Err     error
	Message string // success message, defaults to MsgSaved
	// Redirect asks for a view switch once the success notification expired.
	Redirect bool
}

func Success(msg string, data interface{}) Result {
	return Result{Message: msg, Data: data}
}

func Failure(err error) Result {
	return Result{Err: err}
}

func (r Result) OK() bool { return r.Err == nil }

// Feedback is the renderable side of a Result. Message is never empty.
type Feedback struct {
	Level Level
	// Message is the transient notification.
	Message string
	// Banner stays inline until the next submission. Empty on success.
	Banner        string
	FieldErrors   map[string]string
	RedirectAfter time.Duration
}

// UserMessager is implemented by errors carrying a message meant for the user,
// eg. the server's own error message.
type UserMessager interface {
	UserMessage() string
}

// FieldErrorer is implemented by errors carrying per-field messages.
type FieldErrorer interface {
	FieldErrors() map[string]string
}

type timeouter interface {
	Timeout() bool
}

// Report never fails: every Result maps to a Feedback with a message.
func Report(res Result) Feedback {
	if res.Err == nil {
		fb := Feedback{Level: LevelSuccess, Message: res.Message}
		if fb.Message == "" {
			fb.Message = MsgSaved
		}
		if res.Redirect {
			fb.RedirectAfter = RedirectDelay
		}
		return fb
	}

	msg := userMessage(res.Err)
	if msg == "" && IsTimeout(res.Err) {
		return Feedback{Level: LevelTimeout, Message: MsgTimedOut, Banner: MsgTimedOut}
	}

	fb := Feedback{Level: LevelError, FieldErrors: fieldErrors(res.Err)}
	fb.Message = msg
	if fb.Message == "" {
		if len(fb.FieldErrors) > 0 {
			fb.Message = MsgInvalid
		} else {
			fb.Message = MsgGeneric
		}
	}
	fb.Banner = fb.Message
	return fb
}

// IsTimeout reports whether err comes from a deadline.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t timeouter
	return errors.As(err, &t) && t.Timeout()
}

func userMessage(err error) string {
	var um UserMessager
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return ""
}

func fieldErrors(err error) map[string]string {
	var fe FieldErrorer
	if errors.As(err, &fe) {
		if flds := fe.FieldErrors(); len(flds) > 0 {
			return flds
		}
	}
	if vErr, ok := core.AsValidationError(err); ok {
		return vErr.FieldMap()
	}
	return nil
}
