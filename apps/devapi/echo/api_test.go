package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/trace/core/event"
	"github.com/trezcool/trace/core/gts"
	"github.com/trezcool/trace/core/notification"
	"github.com/trezcool/trace/core/user"
	"github.com/trezcool/trace/services/email"
)

func Test_gtsApi(t *testing.T) {
	app, store := setup(t)
	alumni := createUser(t, store, "maria", user.RoleAlumni, true)
	other := createUser(t, store, "pedro", user.RoleAlumni, true)
	admin := createUser(t, store, "admin", user.RoleAdmin, true)

	// registration: unknown keys are dropped
	body := []byte(`{"employment_now": "No", "non_employed_reasons": ["Lack of work experience"], "hack": 1}`)
	req, rec := newRequest(http.MethodPost, "/gts_responses/register/alumni/"+alumni.ID, body)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var rec0 gts.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rec0))
	assert.NotEmpty(t, rec0.ID)
	assert.Equal(t, alumni.ID, rec0.UserID)
	assert.Equal(t, "No", rec0.EmploymentNow)
	assert.Equal(t, []string{"Lack of work experience"}, rec0.NonEmployedReasons)

	updated := rec0
	updated.Name = "Maria Clara"
	updated.CivilStatus = "Single"

	tests := []httpTest{
		{
			name: "record exists", method: http.MethodPost, path: "/gts_responses/register/alumni/" + alumni.ID,
			body: []byte(`{}`), wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: ErrRecordExists.Error()}),
		},
		{
			name: "unknown user", method: http.MethodPost, path: "/gts_responses/register/alumni/nobody",
			body: []byte(`{}`), wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "get: auth required", path: "/gts_responses/user/" + alumni.ID,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "get: owner", path: "/gts_responses/user/" + alumni.ID, token: getToken(t, alumni),
			wantCode: http.StatusOK, wantData: marchallObj(t, rec0),
		},
		{
			name: "get: admin", path: "/gts_responses/user/" + alumni.ID, token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallObj(t, rec0),
		},
		{
			name: "get: someone else", path: "/gts_responses/user/" + alumni.ID, token: getToken(t, other),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "get: no record", path: "/gts_responses/user/" + other.ID, token: getToken(t, other),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "update: unknown section", method: http.MethodPut, path: "/gts_responses/" + rec0.ID + "/nope",
			token: getToken(t, alumni), body: []byte(`{}`),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "update: someone else", method: http.MethodPut, path: "/gts_responses/" + rec0.ID + "/" + gts.SectionGeneral,
			token: getToken(t, other), body: []byte(`{"name": "Hacked"}`),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			// fields of other sections are ignored
			name: "update: section only", method: http.MethodPut, path: "/gts_responses/" + rec0.ID + "/" + gts.SectionGeneral,
			token: getToken(t, alumni), body: []byte(`{"name": "Maria Clara", "civil_status": "Single", "employment_now": "Yes"}`),
			wantCode: http.StatusOK, wantData: marchallObj(t, updated),
		},
	}
	runHTTPTests(t, app, tests)
}

func Test_eventApi(t *testing.T) {
	app, store := setup(t)
	pending := createUser(t, store, "pending", user.RoleAlumni, false)
	alumni := createUser(t, store, "maria", user.RoleAlumni, true)
	admin := createUser(t, store, "admin", user.RoleAdmin, true)
	adminToken := getToken(t, admin)
	alumniToken := getToken(t, alumni)

	ne := event.NewEvent{Title: " Homecoming ", Venue: "Gym", Date: "2026-12-01", Capacity: 1}
	req, rec := newAuthRequest(http.MethodPost, "/events", adminToken, marchallObj(t, ne))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var evt event.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &evt))
	assert.Equal(t, "Homecoming", evt.Title)
	assert.Equal(t, admin.ID, evt.CreatedBy)
	assert.NotEmpty(t, evt.CheckinToken)

	public := evt
	public.CheckinToken = ""
	full := public
	full.Attendees = 1

	tests := []httpTest{
		{name: "Auth required", path: "/events", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Approval required", path: "/events", token: getToken(t, pending),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "your account is pending approval"}),
		},
		{name: "List (admin)", path: "/events", token: adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, []event.Event{evt})},
		{name: "List (alumni) hides token", path: "/events", token: alumniToken, wantCode: http.StatusOK, wantData: marchallObj(t, []event.Event{public})},
		{name: "Search", path: "/events?search=GYM", token: alumniToken, wantCode: http.StatusOK, wantData: marchallObj(t, []event.Event{public})},
		{name: "Search (no match)", path: "/events?search=pool", token: alumniToken, wantCode: http.StatusOK, wantData: []byte(`[]`)},
		{name: "Get", path: "/events/" + evt.ID, token: alumniToken, wantCode: http.StatusOK, wantData: marchallObj(t, public)},
		{name: "Get (unknown)", path: "/events/nope", token: alumniToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
		{
			name: "Create: admin required", method: http.MethodPost, path: "/events", token: alumniToken, body: marchallObj(t, ne),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Create: invalid", method: http.MethodPost, path: "/events", token: adminToken,
			body:     marchallObj(t, event.NewEvent{Title: "Reunion", Venue: "Hall", Date: "2026-12-01", Capacity: -1}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"capacity": "capacity must be 0 or greater"}),
		},
		{
			name: "Check in: wrong token", method: http.MethodPost, path: "/events/" + evt.ID + "/attendance", token: alumniToken,
			body:     marchallObj(t, event.CheckinRequest{Token: "forged"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: ErrBadToken.Error()}),
		},
		{
			name: "Check in: token required", method: http.MethodPost, path: "/events/" + evt.ID + "/attendance", token: alumniToken,
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"token": "this field is required"}),
		},
	}
	runHTTPTests(t, app, tests)

	// check in
	req, rec = newAuthRequest(http.MethodPost, "/events/"+evt.ID+"/attendance", alumniToken, marchallObj(t, event.CheckinRequest{Token: evt.CheckinToken}))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var att event.Attendance
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &att))
	assert.Equal(t, evt.ID, att.EventID)
	assert.Equal(t, alumni.ID, att.UserID)

	tests = []httpTest{
		{
			name: "Check in: twice", method: http.MethodPost, path: "/events/" + evt.ID + "/attendance", token: alumniToken,
			body:     marchallObj(t, event.CheckinRequest{Token: evt.CheckinToken}),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: ErrAlreadyIn.Error()}),
		},
		{
			name: "Check in: full", method: http.MethodPost, path: "/events/" + evt.ID + "/attendance", token: adminToken,
			body:     marchallObj(t, event.CheckinRequest{Token: evt.CheckinToken}),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: ErrEventFull.Error()}),
		},
		{name: "Attendees counted", path: "/events/" + evt.ID, token: alumniToken, wantCode: http.StatusOK, wantData: marchallObj(t, full)},
		{
			name: "Delete: admin required", method: http.MethodDelete, path: "/events/" + evt.ID, token: alumniToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "Delete", method: http.MethodDelete, path: "/events/" + evt.ID, token: adminToken, wantCode: http.StatusNoContent},
		{name: "Deleted", path: "/events/" + evt.ID, token: adminToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
	}
	runHTTPTests(t, app, tests)
}

func Test_eventApi_update(t *testing.T) {
	app, store := setup(t)
	admin := createUser(t, store, "admin", user.RoleAdmin, true)
	evt := store.CreateEvent(event.NewEvent{Title: "Homecoming", Venue: "Gym", Date: "2026-12-01"}, admin.ID)

	want := evt
	want.Venue = "Covered Court"
	want.Capacity = 300

	tests := []httpTest{
		{
			name: "Update", method: http.MethodPut, path: "/events/" + evt.ID, token: getToken(t, admin),
			body:     marchallObj(t, event.NewEvent{Title: "Homecoming", Venue: "Covered Court ", Date: "2026-12-01", Capacity: 300}),
			wantCode: http.StatusOK, wantData: marchallObj(t, want),
		},
		{
			name: "Update (unknown)", method: http.MethodPut, path: "/events/nope", token: getToken(t, admin),
			body:     marchallObj(t, event.NewEvent{Title: "Homecoming", Venue: "Gym", Date: "2026-12-01"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	runHTTPTests(t, app, tests)
}

func Test_adminApi_and_notifications(t *testing.T) {
	app, store := setup(t)
	pending := createUser(t, store, "pending", user.RoleAlumni, false)
	approved := createUser(t, store, "maria", user.RoleAlumni, true)
	admin := createUser(t, store, "admin", user.RoleAdmin, true)
	adminToken := getToken(t, admin)

	nowApproved := pending
	nowApproved.IsApproved = true

	tests := []httpTest{
		{
			name: "Admin required", path: "/admin/pending", token: getToken(t, approved),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "Pending", path: "/admin/pending", token: adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, []user.User{pending})},
		{
			name: "Approve", method: http.MethodPut, path: "/admin/users/" + pending.ID + "/approve", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, nowApproved),
		},
		{
			name: "Approve (unknown)", method: http.MethodPut, path: "/admin/users/nope/approve", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{name: "None pending", path: "/admin/pending", token: adminToken, wantCode: http.StatusOK, wantData: []byte(`[]`)},
		// the old token still carries is_approved=false: approval is read from the store
		{name: "Approved user reaches events", path: "/events", token: getToken(t, pending), wantCode: http.StatusOK, wantData: []byte(`[]`)},
	}
	runHTTPTests(t, app, tests)

	ntfs := store.Notifications(pending.ID)
	require.Len(t, ntfs, 1)
	assert.Equal(t, "Account approved", ntfs[0].Title)
	assert.False(t, ntfs[0].IsRead)

	read := ntfs[0]
	read.IsRead = true

	tests = []httpTest{
		{name: "Auth required", path: "/notifications", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "List", path: "/notifications", token: getToken(t, pending), wantCode: http.StatusOK, wantData: marchallObj(t, ntfs)},
		{name: "Others see none", path: "/notifications", token: getToken(t, approved), wantCode: http.StatusOK, wantData: []byte(`[]`)},
		{
			name: "Mark read (not owner)", method: http.MethodPut, path: "/notifications/" + ntfs[0].ID + "/read", token: getToken(t, approved),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{name: "Mark read", method: http.MethodPut, path: "/notifications/" + ntfs[0].ID + "/read", token: getToken(t, pending), wantCode: http.StatusNoContent},
		{name: "Read", path: "/notifications", token: getToken(t, pending), wantCode: http.StatusOK, wantData: marchallObj(t, []notification.Notification{read})},
	}
	runHTTPTests(t, app, tests)

	// approved alumni hear about new events
	store.CreateEvent(event.NewEvent{Title: "Homecoming", Venue: "Gym", Date: "2026-12-01"}, admin.ID)
	assert.Len(t, store.Notifications(approved.ID), 1)
	assert.Len(t, store.Notifications(pending.ID), 2)
	assert.Empty(t, store.Notifications(admin.ID))
}

func Test_notificationsAreEmailed(t *testing.T) {
	emailsvc.ClearSentMessages()
	defer emailsvc.ClearSentMessages()

	store := NewStore()
	app := NewServer(&Options{
		Conf:           testConf,
		Store:          store,
		Mailer:         emailsvc.NewConsoleServiceMock(testConf),
		DisableReqLogs: true,
	})
	pending := createUser(t, store, "pending", user.RoleAlumni, false)
	admin := createUser(t, store, "admin", user.RoleAdmin, true)

	req, rec := newAuthRequest(http.MethodPut, "/admin/users/"+pending.ID+"/approve", getToken(t, admin))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	store.CreateEvent(event.NewEvent{Title: "Homecoming", Venue: "Gym", Date: "2026-12-01"}, admin.ID)

	require.Len(t, emailsvc.SentMessages, 2)
	for _, msg := range emailsvc.SentMessages {
		assert.Equal(t, "pending@test.ph", msg.To[0].Address)
	}
	assert.Equal(t, "Account approved", emailsvc.SentMessages[0].Subject)
	assert.Contains(t, emailsvc.SentMessages[0].TextContent, "Hello Test,")
	assert.Equal(t, "New event: Homecoming", emailsvc.SentMessages[1].Subject)
	assert.Contains(t, emailsvc.SentMessages[1].HTMLContent, "2026-12-01 at Gym")
}
