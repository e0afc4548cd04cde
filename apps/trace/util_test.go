package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trezcool/trace/apps/devapi/echo"
	"github.com/trezcool/trace/core"
	"github.com/trezcool/trace/core/auth"
	"github.com/trezcool/trace/core/user"
)

const (
	testPassword  = "Str0ng!Pass"
	adminPassword = "Adm1n!Pass"
)

func init() {
	sleepFunc = func(time.Duration) {}
}

// stubDriver answers prompts from scripted slices, in order.
type stubDriver struct {
	inputs    []string
	passwords []string
	confirms  []bool
	selects   []int
	multis    [][]int

	asked []string
	infos []string
	out   io.Writer
}

func (d *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	d.asked = append(d.asked, cfg.Message)
	if len(d.inputs) == 0 {
		return "", fmt.Errorf("no scripted input for %q", cfg.Message)
	}
	v := d.inputs[0]
	d.inputs = d.inputs[1:]
	return v, nil
}

func (d *stubDriver) Password(_ context.Context, cfg InputConfig) (string, error) {
	d.asked = append(d.asked, cfg.Message)
	if len(d.passwords) == 0 {
		return "", fmt.Errorf("no scripted password for %q", cfg.Message)
	}
	v := d.passwords[0]
	d.passwords = d.passwords[1:]
	return v, nil
}

func (d *stubDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	d.asked = append(d.asked, cfg.Message)
	if len(d.confirms) == 0 {
		return false, fmt.Errorf("no scripted confirm for %q", cfg.Message)
	}
	v := d.confirms[0]
	d.confirms = d.confirms[1:]
	return v, nil
}

func (d *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	d.asked = append(d.asked, cfg.Message)
	if len(d.selects) == 0 {
		return 0, fmt.Errorf("no scripted select for %q", cfg.Message)
	}
	v := d.selects[0]
	d.selects = d.selects[1:]
	return v, nil
}

func (d *stubDriver) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	d.asked = append(d.asked, cfg.Message)
	if len(d.multis) == 0 {
		return nil, fmt.Errorf("no scripted multi-select for %q", cfg.Message)
	}
	v := d.multis[0]
	d.multis = d.multis[1:]
	return v, nil
}

func (d *stubDriver) Info(_ context.Context, msg string) error {
	d.infos = append(d.infos, msg)
	if d.out != nil {
		fmt.Fprintln(d.out, msg)
	}
	return nil
}

// startAPI serves an in-memory API with an approved admin account.
func startAPI(t *testing.T) (*httptest.Server, *echoapi.Store) {
	t.Helper()
	store := echoapi.NewStore()
	_, err := store.CreateUser(user.User{
		Username: "admin", Email: "admin@trace.local", FirstName: "Trace", LastName: "Admin",
		Role: user.RoleAdmin, IsApproved: true,
	}, adminPassword)
	require.NoError(t, err)

	srv := httptest.NewServer(echoapi.NewServer(&echoapi.Options{
		Conf: &core.Config{
			AppName:            "TRACE",
			TestMode:           true,
			SecretKey:          "test-secret",
			JWTExpirationDelta: time.Hour,
		},
		Store:          store,
		DisableReqLogs: true,
	}))
	t.Cleanup(srv.Close)
	return srv, store
}

type testApp struct {
	*cliApp
	prompt *stubDriver
	buf    *bytes.Buffer
}

func newTestApp(t *testing.T, baseURL string) *testApp {
	t.Helper()
	buf := new(bytes.Buffer)
	prompt := &stubDriver{out: buf}
	conf := &core.Config{
		APIBaseURL: baseURL,
		APITimeout: 5 * time.Second,
		TestMode:   true,
	}
	app := newApp(conf, core.NopLogger{}, auth.NewSession(auth.NewMemoryStore()), prompt, buf)
	app.hlPre, app.hlPost = "<", ">"
	return &testApp{cliApp: app, prompt: prompt, buf: buf}
}

// run executes the command line args and returns what it printed.
func (ta *testApp) run(args ...string) (string, error) {
	ta.buf.Reset()
	cmd := newRootCmd(ta.cliApp)
	cmd.SetArgs(args)
	cmd.SetOut(ta.buf)
	cmd.SetErr(ta.buf)
	err := cmd.Execute()
	return ta.buf.String(), err
}

// login signs the app in, typing pwd at the password prompt.
func (ta *testApp) login(t *testing.T, identifier, pwd string) {
	t.Helper()
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	out, err := ta.run("login", "-u", identifier)
	require.NoError(t, err, out)
}

// registerAlumni creates an alumni account straight through the API store.
func registerAlumni(t *testing.T, store *echoapi.Store, username string, approved bool) user.User {
	t.Helper()
	usr, err := store.CreateUser(user.User{
		Username:      username,
		Email:         username + "@example.com",
		FirstName:     "Maria",
		LastName:      "Clara",
		ContactNumber: "",
		Course:        "BSED",
		BatchYear:     2021,
		Role:          user.RoleAlumni,
		IsApproved:    approved,
	}, testPassword)
	require.NoError(t, err)
	_, err = store.CreateRecord(usr.ID, map[string]interface{}{"employment_now": "No"})
	require.NoError(t, err)
	return usr
}
