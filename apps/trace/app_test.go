package main

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/trace/core/outcome"
)

func Test_cliApp_report_redirectDelay(t *testing.T) {
	tests := []struct {
		name      string
		delay     time.Duration
		res       outcome.Result
		wantSleep []time.Duration
		wantErr   error
	}{
		{
			name:      "redirect waits the configured delay",
			delay:     2 * time.Second,
			res:       outcome.Result{Message: "Registered.", Redirect: true},
			wantSleep: []time.Duration{2 * time.Second},
		},
		{
			name:  "zero delay skips the pause",
			res:   outcome.Result{Message: "Registered.", Redirect: true},
			delay: 0,
		},
		{
			name:  "no redirect",
			delay: 2 * time.Second,
			res:   outcome.Success("Saved.", nil),
		},
		{
			name:    "failure",
			delay:   2 * time.Second,
			res:     outcome.Failure(errors.New("boom")),
			wantErr: errReported,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var slept []time.Duration
			oldSleep := sleepFunc
			sleepFunc = func(d time.Duration) { slept = append(slept, d) }
			defer func() { sleepFunc = oldSleep }()

			ta := newTestApp(t, "http://127.0.0.1:1")
			ta.conf.RedirectDelay = tt.delay

			err := ta.report(tt.res)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.wantSleep, slept)
		})
	}
}
