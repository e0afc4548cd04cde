package echoapi

import (
	"net/mail"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/trace/core"
	"github.com/trezcool/trace/core/event"
	"github.com/trezcool/trace/core/gts"
	"github.com/trezcool/trace/core/notification"
	"github.com/trezcool/trace/core/user"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrUsernameExists = errors.New("username already taken")
	ErrEmailExists    = errors.New("email already registered")
	ErrPhoneExists    = errors.New("contact number already registered")
	ErrRecordExists   = errors.New("GTS record already exists")
	ErrAlreadyIn      = errors.New("already checked in")
	ErrEventFull      = errors.New("event is full")
	ErrBadToken       = errors.New("invalid check-in code")

	nowFunc = time.Now // mockable
)

type account struct {
	user.User
	passwordHash []byte
}

func (a *account) setPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	a.passwordHash = hash
	return nil
}

func (a *account) checkPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.passwordHash, []byte(pwd))
}

// Store keeps everything the stub API serves in memory. It is safe for concurrent use.
type Store struct {
	mu            sync.RWMutex
	users         map[string]*account
	records       map[string]*gts.Record // by id
	recordByUser  map[string]string      // user id -> record id
	events        map[string]*event.Event
	attendance    map[string]map[string]event.Attendance // event id -> user id -> attendance
	notifications map[string]*notification.Notification
	mailer        core.EmailService // optional
}

// NotificationMail is the data of the "notification" email template.
type NotificationMail struct {
	Name    string
	Title   string
	Message string
}

func NewStore() *Store {
	return &Store{
		users:         make(map[string]*account),
		records:       make(map[string]*gts.Record),
		recordByUser:  make(map[string]string),
		events:        make(map[string]*event.Event),
		attendance:    make(map[string]map[string]event.Attendance),
		notifications: make(map[string]*notification.Notification),
	}
}

// SetMailer makes the store email every notification to its recipient.
func (s *Store) SetMailer(m core.EmailService) {
	s.mu.Lock()
	s.mailer = m
	s.mu.Unlock()
}

func newID() string { return uuid.New().String() }

// users

func (s *Store) findUser(fn func(u *account) bool) *account {
	for _, acc := range s.users {
		if fn(acc) {
			return acc
		}
	}
	return nil
}

// UsernameTaken, EmailTaken and PhoneTaken back the availability endpoints.
func (s *Store) UsernameTaken(username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	username = strings.ToLower(username)
	return s.findUser(func(u *account) bool { return u.Username == username }) != nil
}

func (s *Store) EmailTaken(email string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(email)
	return s.findUser(func(u *account) bool { return u.Email == email }) != nil
}

func (s *Store) PhoneTaken(phone string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	phone = user.NormalizePhone(phone)
	return s.findUser(func(u *account) bool { return u.ContactNumber == phone }) != nil
}

// CreateUser stores usr with a hash of pwd. Uniqueness is enforced on
// username, email and contact number.
func (s *Store) CreateUser(usr user.User, pwd string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acc := range s.users {
		switch {
		case acc.Username == usr.Username:
			return user.User{}, ErrUsernameExists
		case acc.Email == usr.Email:
			return user.User{}, ErrEmailExists
		case usr.ContactNumber != "" && acc.ContactNumber == usr.ContactNumber:
			return user.User{}, ErrPhoneExists
		}
	}

	usr.ID = newID()
	usr.CreatedAt = nowFunc().UTC()
	acc := &account{User: usr}
	if err := acc.setPassword(pwd); err != nil {
		return user.User{}, err
	}
	s.users[usr.ID] = acc
	return usr, nil
}

func (s *Store) GetUser(id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if acc, ok := s.users[id]; ok {
		return acc.User, nil
	}
	return user.User{}, ErrNotFound
}

// Authenticate finds the user by username or email and checks pwd.
func (s *Store) Authenticate(identifier, pwd string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identifier = strings.ToLower(identifier)
	acc := s.findUser(func(u *account) bool { return u.Username == identifier || u.Email == identifier })
	if acc == nil {
		return user.User{}, ErrNotFound
	}
	if err := acc.checkPassword(pwd); err != nil {
		return user.User{}, ErrNotFound
	}
	return acc.User, nil
}

func (s *Store) ChangePassword(id, current, pwd string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	if err := acc.checkPassword(current); err != nil {
		return ErrNotFound
	}
	return acc.setPassword(pwd)
}

// PendingAlumni lists unapproved alumni, oldest first.
func (s *Store) PendingAlumni() []user.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	usrs := make([]user.User, 0)
	for _, acc := range s.users {
		if acc.IsAlumni() && !acc.IsApproved {
			usrs = append(usrs, acc.User)
		}
	}
	sort.Slice(usrs, func(i, j int) bool { return usrs[i].CreatedAt.Before(usrs[j].CreatedAt) })
	return usrs
}

// Approve flags the user as approved and notifies them.
func (s *Store) Approve(id string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.users[id]
	if !ok {
		return user.User{}, ErrNotFound
	}
	if !acc.IsApproved {
		acc.IsApproved = true
		s.notify(id, "Account approved", "Your alumni account has been approved. Welcome to TRACE!")
	}
	return acc.User, nil
}

// GTS records

func (s *Store) CreateRecord(userID string, vals map[string]interface{}) (gts.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return gts.Record{}, ErrNotFound
	}
	if _, ok := s.recordByUser[userID]; ok {
		return gts.Record{}, ErrRecordExists
	}
	rec, err := gts.Record{}.Merge(vals)
	if err != nil {
		return gts.Record{}, errors.Wrap(err, "merging GTS values")
	}
	rec.ID = newID()
	rec.UserID = userID
	s.records[rec.ID] = &rec
	s.recordByUser[userID] = rec.ID
	return rec, nil
}

func (s *Store) RecordByUser(userID string) (gts.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.recordByUser[userID]; ok {
		return *s.records[id], nil
	}
	return gts.Record{}, ErrNotFound
}

func (s *Store) GetRecord(id string) (gts.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[id]; ok {
		return *rec, nil
	}
	return gts.Record{}, ErrNotFound
}

// UpdateRecord merges vals into the record. The ids cannot be changed.
func (s *Store) UpdateRecord(id string, vals map[string]interface{}) (gts.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.records[id]
	if !ok {
		return gts.Record{}, ErrNotFound
	}
	rec, err := cur.Merge(vals)
	if err != nil {
		return gts.Record{}, errors.Wrap(err, "merging GTS values")
	}
	rec.ID, rec.UserID = cur.ID, cur.UserID
	s.records[id] = &rec
	return rec, nil
}

// events

// QueryEvents lists events by date, filtered by a case-insensitive search on
// title, venue and description.
func (s *Store) QueryEvents(search string) []event.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	search = strings.ToLower(strings.TrimSpace(search))
	evts := make([]event.Event, 0, len(s.events))
	for _, evt := range s.events {
		if search != "" &&
			!strings.Contains(strings.ToLower(evt.Title), search) &&
			!strings.Contains(strings.ToLower(evt.Venue), search) &&
			!strings.Contains(strings.ToLower(evt.Description), search) {
			continue
		}
		evts = append(evts, *evt)
	}
	sort.Slice(evts, func(i, j int) bool {
		if evts[i].Date == evts[j].Date {
			return evts[i].Title < evts[j].Title
		}
		return evts[i].Date < evts[j].Date
	})
	return evts
}

func (s *Store) GetEvent(id string) (event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if evt, ok := s.events[id]; ok {
		return *evt, nil
	}
	return event.Event{}, ErrNotFound
}

// CreateEvent stores the event with a fresh check-in token and notifies approved alumni.
func (s *Store) CreateEvent(ne event.NewEvent, createdBy string) event.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	evt := event.Event{
		ID:           newID(),
		Title:        ne.Title,
		Description:  ne.Description,
		Venue:        ne.Venue,
		Date:         ne.Date,
		Capacity:     ne.Capacity,
		CreatedBy:    createdBy,
		CreatedAt:    nowFunc().UTC(),
		CheckinToken: event.NewCheckinToken(),
	}
	s.events[evt.ID] = &evt
	for _, acc := range s.users {
		if acc.IsAlumni() && acc.IsApproved {
			s.notify(acc.ID, "New event: "+evt.Title, evt.Date+" at "+evt.Venue)
		}
	}
	return evt
}

func (s *Store) UpdateEvent(id string, ne event.NewEvent) (event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	evt, ok := s.events[id]
	if !ok {
		return event.Event{}, ErrNotFound
	}
	evt.Title = ne.Title
	evt.Description = ne.Description
	evt.Venue = ne.Venue
	evt.Date = ne.Date
	evt.Capacity = ne.Capacity
	return *evt, nil
}

func (s *Store) DeleteEvent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return ErrNotFound
	}
	delete(s.events, id)
	delete(s.attendance, id)
	return nil
}

// CheckIn records the attendance of userID if token matches the event's.
func (s *Store) CheckIn(eventID, userID, token string) (event.Attendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	evt, ok := s.events[eventID]
	if !ok {
		return event.Attendance{}, ErrNotFound
	}
	if token != evt.CheckinToken {
		return event.Attendance{}, ErrBadToken
	}
	if _, ok := s.attendance[eventID][userID]; ok {
		return event.Attendance{}, ErrAlreadyIn
	}
	if evt.IsFull() {
		return event.Attendance{}, ErrEventFull
	}
	att := event.Attendance{EventID: eventID, UserID: userID, CheckedInAt: nowFunc().UTC()}
	if s.attendance[eventID] == nil {
		s.attendance[eventID] = make(map[string]event.Attendance)
	}
	s.attendance[eventID][userID] = att
	evt.Attendees++
	return att, nil
}

// notifications

// notify must be called with the lock held.
func (s *Store) notify(userID, title, msg string) {
	ntf := notification.Notification{
		ID:        newID(),
		UserID:    userID,
		Title:     title,
		Message:   msg,
		CreatedAt: nowFunc().UTC(),
	}
	s.notifications[ntf.ID] = &ntf

	acc, ok := s.users[userID]
	if s.mailer == nil || !ok || acc.Email == "" {
		return
	}
	s.mailer.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: acc.FullName(), Address: acc.Email}},
		Subject:      title,
		TemplateName: "notification",
		TemplateData: NotificationMail{Name: acc.FirstName, Title: title, Message: msg},
	})
}

// Notifications lists the user's notifications, newest first.
func (s *Store) Notifications(userID string) []notification.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ntfs := make([]notification.Notification, 0)
	for _, ntf := range s.notifications {
		if ntf.UserID == userID {
			ntfs = append(ntfs, *ntf)
		}
	}
	sort.Slice(ntfs, func(i, j int) bool { return ntfs[i].CreatedAt.After(ntfs[j].CreatedAt) })
	return ntfs
}

func (s *Store) MarkRead(id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ntf, ok := s.notifications[id]
	if !ok || ntf.UserID != userID {
		return ErrNotFound
	}
	ntf.IsRead = true
	return nil
}
