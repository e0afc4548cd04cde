// Package availability debounces uniqueness lookups (username, email, phone) against
// the remote API and reports a tri-state result per field.
package availability

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/trace/core"
	"github.com/trezcool/trace/core/user"
)

// lookup kinds
const (
	Username = "username"
	Email    = "email"
	Phone    = "phone"
)

const (
	DefaultDebounce = 500 * time.Millisecond
	DefaultTimeout  = 10 * time.Second

	MsgFailed   = "Failed to check availability"
	MsgTimedOut = "Availability check timed out"
)

var minLengths = map[string]int{
	Username: 3,
	Phone:    10,
	Email:    0,
}

type State int

const (
	Unknown State = iota
	Available
	Taken
)

func (s State) String() string {
	switch s {
	case Available:
		return "available"
	case Taken:
		return "taken"
	default:
		return "unknown"
	}
}

// Result is the availability of one field value.
type Result struct {
	Key     string
	Value   string
	State   State
	Message string
}

// Lookup asks the remote API whether a value is still free.
type Lookup interface {
	CheckAvailability(ctx context.Context, kind, value string) (*user.Availability, error)
}

// Timer is the part of *time.Timer the Checker needs.
type Timer interface {
	Stop() bool
}

// Clock schedules debounced lookups.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Option configures a Checker.
type Option func(*Checker)

func WithClock(c Clock) Option { return func(ch *Checker) { ch.clock = c } }

func WithDebounce(d time.Duration) Option { return func(ch *Checker) { ch.debounce = d } }

func WithTimeout(d time.Duration) Option { return func(ch *Checker) { ch.timeout = d } }

func WithLogger(l core.Logger) Option { return func(ch *Checker) { ch.logger = l } }

type fieldState struct {
	gen   uint64
	timer Timer
}

// Checker is safe for concurrent use. Each Check on a field supersedes the previous
// one: its pending timer is stopped and any in-flight result is dropped.
type Checker struct {
	lookup   Lookup
	notify   func(Result)
	clock    Clock
	debounce time.Duration
	timeout  time.Duration
	logger   core.Logger

	mu     sync.Mutex
	fields map[string]*fieldState
	closed bool

	// deliverMu orders deliveries with the generation check that admits them.
	deliverMu sync.Mutex
}

// NewChecker delivers every applied result to notify, on the timer's goroutine, one at a
// time. notify must not call back into the Checker.
func NewChecker(lookup Lookup, notify func(Result), opts ...Option) *Checker {
	ch := &Checker{
		lookup:   lookup,
		notify:   notify,
		clock:    realClock{},
		debounce: DefaultDebounce,
		timeout:  DefaultTimeout,
		logger:   core.NopLogger{},
		fields:   make(map[string]*fieldState),
	}
	for _, opt := range opts {
		opt(ch)
	}
	return ch
}

// Eligible reports whether value is long enough (or well-formed enough) to be looked up.
func Eligible(kind, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	if kind == Email && !strings.Contains(value, "@") {
		return false
	}
	return len(value) >= minLengths[kind]
}

// Check schedules a lookup of value for the field key after the debounce delay.
// Values that are not Eligible reset the field to Unknown right away.
func (ch *Checker) Check(key, kind, value string) {
	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return
	}
	fs := ch.field(key)
	fs.gen++
	gen := fs.gen
	if fs.timer != nil {
		fs.timer.Stop()
		fs.timer = nil
	}
	if !Eligible(kind, value) {
		ch.mu.Unlock()
		ch.deliver(Result{Key: key, Value: value, State: Unknown}, gen)
		return
	}
	fs.timer = ch.clock.AfterFunc(ch.debounce, func() { ch.run(key, kind, value, gen) })
	ch.mu.Unlock()
}

// Reset forgets the field: pending & in-flight lookups are dropped.
func (ch *Checker) Reset(key string) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if fs, ok := ch.fields[key]; ok {
		fs.gen++
		if fs.timer != nil {
			fs.timer.Stop()
			fs.timer = nil
		}
	}
}

// Close stops all pending lookups. Results still in flight are dropped.
func (ch *Checker) Close() {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.closed = true
	for _, fs := range ch.fields {
		fs.gen++
		if fs.timer != nil {
			fs.timer.Stop()
			fs.timer = nil
		}
	}
}

func (ch *Checker) field(key string) *fieldState {
	fs, ok := ch.fields[key]
	if !ok {
		fs = &fieldState{}
		ch.fields[key] = fs
	}
	return fs
}

func (ch *Checker) current(key string, gen uint64) bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	fs, ok := ch.fields[key]
	return ok && !ch.closed && fs.gen == gen
}

func (ch *Checker) run(key, kind, value string, gen uint64) {
	if !ch.current(key, gen) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), ch.timeout)
	defer cancel()
	avail, err := ch.lookup.CheckAvailability(ctx, kind, strings.TrimSpace(value))

	if !ch.current(key, gen) {
		return // stale
	}
	res := Result{Key: key, Value: value}
	switch {
	case err != nil:
		res.State = Unknown
		res.Message = MsgFailed
		if errors.Cause(err) == context.DeadlineExceeded || ctx.Err() == context.DeadlineExceeded {
			res.Message = MsgTimedOut
		}
		ch.logger.Warn("availability check failed", err, map[string]interface{}{"kind": kind})
	case avail.Available:
		res.State = Available
		res.Message = avail.Message
	default:
		res.State = Taken
		res.Message = avail.Message
		if res.Message == "" {
			res.Message = takenMessage(kind)
		}
	}
	ch.deliver(res, gen)
}

// deliver hands res to notify unless a newer Check or Reset superseded gen.
func (ch *Checker) deliver(res Result, gen uint64) {
	ch.deliverMu.Lock()
	defer ch.deliverMu.Unlock()
	if !ch.current(res.Key, gen) {
		return // stale
	}
	if ch.notify != nil {
		ch.notify(res)
	}
}

func takenMessage(kind string) string {
	switch kind {
	case Username:
		return "Username is already taken"
	case Email:
		return "Email is already registered"
	case Phone:
		return "Phone number is already registered"
	default:
		return "Already taken"
	}
}
