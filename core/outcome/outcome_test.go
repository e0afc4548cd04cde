package outcome

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/trace/core"
)

type serverErr struct {
	msg    string
	fields map[string]string
}

func (e serverErr) Error() string                  { return "server: " + e.msg }
func (e serverErr) UserMessage() string            { return e.msg }
func (e serverErr) FieldErrors() map[string]string { return e.fields }

type netTimeout struct{}

func (netTimeout) Error() string { return "i/o timeout" }
func (netTimeout) Timeout() bool { return true }

func TestReport(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want Feedback
	}{
		{
			name: "success",
			res:  Success("", nil),
			want: Feedback{Level: LevelSuccess, Message: MsgSaved},
		},
		{
			name: "success with redirect",
			res:  Result{Message: "Registration successful!", Redirect: true},
			want: Feedback{Level: LevelSuccess, Message: "Registration successful!", RedirectAfter: RedirectDelay},
		},
		{
			name: "server message verbatim",
			res:  Failure(errors.Wrap(serverErr{msg: "GTS record not found"}, "saving section")),
			want: Feedback{Level: LevelError, Message: "GTS record not found", Banner: "GTS record not found"},
		},
		{
			name: "server field errors",
			res:  Failure(serverErr{fields: map[string]string{"username": "already taken"}}),
			want: Feedback{
				Level: LevelError, Message: MsgInvalid, Banner: MsgInvalid,
				FieldErrors: map[string]string{"username": "already taken"},
			},
		},
		{
			name: "local validation",
			res:  Failure(core.NewFieldsError(map[string]string{"year_graduated": "Year graduated must be between 1900 and 2100."})),
			want: Feedback{
				Level: LevelError, Message: MsgInvalid, Banner: MsgInvalid,
				FieldErrors: map[string]string{"year_graduated": "Year graduated must be between 1900 and 2100."},
			},
		},
		{
			name: "generic fallback",
			res:  Failure(errors.New("")),
			want: Feedback{Level: LevelError, Message: MsgGeneric, Banner: MsgGeneric},
		},
		{
			name: "deadline",
			res:  Failure(errors.Wrap(context.DeadlineExceeded, "saving section")),
			want: Feedback{Level: LevelTimeout, Message: MsgTimedOut, Banner: MsgTimedOut},
		},
		{
			name: "net timeout",
			res:  Failure(errors.WithStack(netTimeout{})),
			want: Feedback{Level: LevelTimeout, Message: MsgTimedOut, Banner: MsgTimedOut},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Report(tt.res)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, got.Message)
		})
	}
}
