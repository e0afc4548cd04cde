package emailsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/trace/core"
)

var testConf = &core.Config{
	AppName:          "TRACE",
	APITimeout:       time.Second,
	DefaultFromEmail: mail.Address{Name: "TRACE", Address: "noreply@trace.local"},
	SendgridAPIKey:   "sg-test-key",
}

type mailData struct {
	Name, Title, Message string
}

func newMessage() *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: "Juan Cruz", Address: "juan@example.com"}},
		Subject:      "Account approved",
		TemplateName: "notification",
		TemplateData: mailData{Name: "Juan", Title: "Account approved", Message: "Welcome!"},
	}
}

func Test_consoleServiceMock(t *testing.T) {
	ClearSentMessages()
	defer ClearSentMessages()

	svc := NewConsoleServiceMock(testConf)
	svc.SendMessages(newMessage(), &core.EmailMessage{BodyStr: "nobody to send to"})

	require.Len(t, SentMessages, 1)
	assert.Equal(t, "juan@example.com", SentMessages[0].To[0].Address)
	assert.Contains(t, SentMessages[0].TextContent, "Welcome!")
}

func Test_consoleService_send(t *testing.T) {
	var out bytes.Buffer
	svc := &consoleService{
		appName:          "TRACE",
		defaultFromEmail: testConf.DefaultFromEmail,
		subjPrefix:       "[TRACE] ",
		out:              &out,
		logger:           core.NopLogger{},
	}
	msg := newMessage()
	require.NoError(t, msg.Render("TRACE"))
	svc.send(*msg)

	s := out.String()
	assert.Contains(t, s, `From: "TRACE" <noreply@trace.local>`)
	assert.Contains(t, s, "Subject: [TRACE] Account approved")
	assert.Contains(t, s, `To: "Juan Cruz" <juan@example.com>`)
	assert.Contains(t, s, "Content-Type: multipart/alternative; boundary=")
	assert.Contains(t, s, "text/html; charset=utf-8")
}

func Test_sendgridService_send(t *testing.T) {
	var (
		gotAuth string
		gotBody map[string]interface{}
	)
	code := http.StatusAccepted
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, endpoint, r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.WriteHeader(code)
	}))
	defer srv.Close()

	oldHost := host
	host = srv.URL
	defer func() { host = oldHost }()

	svc := NewSendgridService(testConf, core.NopLogger{})
	msg := newMessage()
	require.NoError(t, msg.Render("TRACE"))

	require.NoError(t, svc.send(context.Background(), *msg))
	assert.Equal(t, "Bearer sg-test-key", gotAuth)
	assert.Equal(t, map[string]interface{}{"name": "TRACE", "email": "noreply@trace.local"}, gotBody["from"])
	pers, _ := gotBody["personalizations"].([]interface{})
	require.Len(t, pers, 1)
	assert.Equal(t, "[TRACE] Account approved", pers[0].(map[string]interface{})["subject"])
	content, _ := gotBody["content"].([]interface{})
	assert.Len(t, content, 2)

	code = http.StatusUnauthorized
	assert.Error(t, svc.send(context.Background(), *msg))
}
