// Package auth keeps the signed-in user's session: token, role, approval flag and
// cached profile. Consumers read it through Session and subscribe to changes
// instead of reading the underlying store.
package auth

import (
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/trace/core/user"
)

var (
	NowFunc = time.Now // mockable

	ErrNotAuthenticated = errors.New("not signed in")
	ErrNotApproved      = errors.New("your account is pending approval")
	ErrForbidden        = errors.New("permission denied")
)

// State is what gets persisted under the fixed keys token, role, is_approved & user.
type State struct {
	Token      string     `yaml:"token"`
	Role       string     `yaml:"role"`
	IsApproved bool       `yaml:"is_approved"`
	User       *user.User `yaml:"user,omitempty"`
}

func (s State) IsZero() bool {
	return s.Token == "" && s.Role == "" && !s.IsApproved && s.User == nil
}

// Store persists a State. Save & Clear must replace or drop all keys at once.
type Store interface {
	Load() (State, error)
	Save(State) error
	Clear() error
}

// Session is the process-wide auth state. It is safe for concurrent use: writes are
// applied one at a time, so the store and the in-memory state always agree.
// Subscribers must not call Set, SetUser or Clear.
type Session struct {
	store Store

	writeMu sync.Mutex // held from persisting to notifying

	mu     sync.RWMutex
	state  State
	subs   map[int]func(State)
	nextID int
}

func NewSession(store Store) *Session {
	return &Session{store: store, subs: make(map[int]func(State))}
}

// Init reads the persisted state once. An expired token is dropped.
func (s *Session) Init() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	st, err := s.store.Load()
	if err != nil {
		return errors.Wrap(err, "loading session")
	}
	if st.Token != "" && TokenExpired(st.Token) {
		if err := s.store.Clear(); err != nil {
			return errors.Wrap(err, "clearing expired session")
		}
		st = State{}
	}
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return nil
}

// Set persists st and notifies subscribers.
func (s *Session) Set(st State) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.set(st)
}

func (s *Session) set(st State) error {
	if err := s.store.Save(st); err != nil {
		return errors.Wrap(err, "saving session")
	}
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.notify(st)
	return nil
}

// SetUser refreshes the cached profile only.
func (s *Session) SetUser(usr user.User) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	st := s.Current()
	st.User = &usr
	st.IsApproved = usr.IsApproved
	if usr.Role != "" {
		st.Role = usr.Role
	}
	return s.set(st)
}

// Clear drops every key (logout) and notifies subscribers.
func (s *Session) Clear() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.store.Clear(); err != nil {
		return errors.Wrap(err, "clearing session")
	}
	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()
	s.notify(State{})
	return nil
}

func (s *Session) Current() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Token() string { return s.Current().Token }

func (s *Session) IsAuthenticated() bool {
	tok := s.Current().Token
	return tok != "" && !TokenExpired(tok)
}

// Subscribe registers fn to be called after every Set/Clear.
// The returned func unregisters it.
func (s *Session) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Session) notify(st State) {
	s.mu.RLock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(st)
	}
}

// Require checks that the session is signed in and, for alumni, approved.
// With roles, the session's role must be one of them.
func (s *Session) Require(roles ...string) error {
	if !s.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	st := s.Current()
	if len(roles) > 0 {
		var ok bool
		for _, r := range roles {
			if st.Role == r {
				ok = true
				break
			}
		}
		if !ok {
			return ErrForbidden
		}
	}
	if st.Role == user.RoleAlumni && !st.IsApproved {
		return ErrNotApproved
	}
	return nil
}

// TokenExpired reports whether the JWT's `exp` claim is in the past.
// The signature is not verified: only the backend can do that.
// Unparseable tokens count as expired; tokens without `exp` never expire.
func TokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, ok := claims["exp"]
	if !ok {
		return false
	}
	var expUnix int64
	switch v := exp.(type) {
	case float64:
		expUnix = int64(v)
	case int64:
		expUnix = v
	default:
		return true
	}
	return NowFunc().Unix() >= expUnix
}
