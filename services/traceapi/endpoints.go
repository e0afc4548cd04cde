package traceapi

import (
	"context"
	"net/url"

	"github.com/sendgrid/rest"

	"github.com/trezcool/trace/core"
	"github.com/trezcool/trace/core/availability"
	"github.com/trezcool/trace/core/event"
	"github.com/trezcool/trace/core/form"
	"github.com/trezcool/trace/core/gts"
	"github.com/trezcool/trace/core/notification"
	"github.com/trezcool/trace/core/user"
)

func esc(s string) string { return url.PathEscape(s) }

// users

func (c *Client) RegisterAlumni(ctx context.Context, na user.NewAlumni) (*user.User, error) {
	var usr user.User
	if err := c.do(ctx, rest.Post, "/users/register/alumni", nil, na, &usr); err != nil {
		return nil, err
	}
	return &usr, nil
}

func (c *Client) Login(ctx context.Context, lr user.LoginRequest) (*user.LoginResponse, error) {
	var res user.LoginResponse
	if err := c.do(ctx, rest.Post, "/users/login", nil, lr, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Me(ctx context.Context) (*user.User, error) {
	var usr user.User
	if err := c.do(ctx, rest.Get, "/users/me", nil, nil, &usr); err != nil {
		return nil, err
	}
	return &usr, nil
}

func (c *Client) ChangePassword(ctx context.Context, cp user.ChangePassword) error {
	return c.do(ctx, rest.Put, "/users/me/password", nil, cp, nil)
}

var availabilityEndpoints = map[string]struct{ path, key string }{
	availability.Username: {"/users/check-username", "username"},
	availability.Email:    {"/users/check-email", "email"},
	availability.Phone:    {"/users/check-phone", "contact_number"},
}

// CheckAvailability implements availability.Lookup.
func (c *Client) CheckAvailability(ctx context.Context, kind, value string) (*user.Availability, error) {
	ep, ok := availabilityEndpoints[kind]
	if !ok {
		return nil, core.NewArgumentError("unknown availability kind: " + kind)
	}
	var res user.Availability
	if err := c.do(ctx, rest.Post, ep.path, nil, map[string]string{ep.key: value}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GTS

func (c *Client) CreateGTSRecord(ctx context.Context, userID string, payload form.Values) (*gts.Record, error) {
	var rec gts.Record
	if err := c.do(ctx, rest.Post, "/gts_responses/register/alumni/"+esc(userID), nil, payload, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) GetGTSRecord(ctx context.Context, userID string) (*gts.Record, error) {
	var rec gts.Record
	if err := c.do(ctx, rest.Get, "/gts_responses/user/"+esc(userID), nil, nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) UpdateGTSSection(ctx context.Context, gtsID, section string, payload form.Values) (*gts.Record, error) {
	var rec gts.Record
	if err := c.do(ctx, rest.Put, "/gts_responses/"+esc(gtsID)+"/"+esc(section), nil, payload, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// events

func (c *Client) ListEvents(ctx context.Context, search string) ([]event.Event, error) {
	var query map[string]string
	if search != "" {
		query = map[string]string{"search": search}
	}
	evts := make([]event.Event, 0)
	if err := c.do(ctx, rest.Get, "/events", query, nil, &evts); err != nil {
		return nil, err
	}
	return evts, nil
}

func (c *Client) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	var evt event.Event
	if err := c.do(ctx, rest.Get, "/events/"+esc(id), nil, nil, &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}

func (c *Client) CreateEvent(ctx context.Context, ne event.NewEvent) (*event.Event, error) {
	var evt event.Event
	if err := c.do(ctx, rest.Post, "/events", nil, ne, &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}

func (c *Client) UpdateEvent(ctx context.Context, id string, ne event.NewEvent) (*event.Event, error) {
	var evt event.Event
	if err := c.do(ctx, rest.Put, "/events/"+esc(id), nil, ne, &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, rest.Delete, "/events/"+esc(id), nil, nil, nil)
}

func (c *Client) CheckIn(ctx context.Context, eventID, token string) (*event.Attendance, error) {
	var att event.Attendance
	body := event.CheckinRequest{Token: token}
	if err := c.do(ctx, rest.Post, "/events/"+esc(eventID)+"/attendance", nil, body, &att); err != nil {
		return nil, err
	}
	return &att, nil
}

// notifications

func (c *Client) ListNotifications(ctx context.Context) ([]notification.Notification, error) {
	ntfs := make([]notification.Notification, 0)
	if err := c.do(ctx, rest.Get, "/notifications", nil, nil, &ntfs); err != nil {
		return nil, err
	}
	return ntfs, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, rest.Put, "/notifications/"+esc(id)+"/read", nil, nil, nil)
}

// admin

func (c *Client) PendingAlumni(ctx context.Context) ([]user.User, error) {
	usrs := make([]user.User, 0)
	if err := c.do(ctx, rest.Get, "/admin/pending", nil, nil, &usrs); err != nil {
		return nil, err
	}
	return usrs, nil
}

func (c *Client) ApproveUser(ctx context.Context, id string) (*user.User, error) {
	var usr user.User
	if err := c.do(ctx, rest.Put, "/admin/users/"+esc(id)+"/approve", nil, nil, &usr); err != nil {
		return nil, err
	}
	return &usr, nil
}
