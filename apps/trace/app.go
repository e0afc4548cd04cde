package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/trace/core"
	"github.com/trezcool/trace/core/auth"
	"github.com/trezcool/trace/core/outcome"
	"github.com/trezcool/trace/services/traceapi"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	sleepFunc        = time.Sleep        // mockable

	// errReported is returned once the failure was already shown to the user.
	errReported = errors.New("reported")
)

// cliApp holds what every command needs. Commands run one at a time.
type cliApp struct {
	conf    *core.Config
	logger  core.Logger
	session *auth.Session
	api     *traceapi.Client
	prompt  PromptDriver
	out     io.Writer

	// highlight markers of search matches
	hlPre, hlPost string
}

func newApp(conf *core.Config, logger core.Logger, sess *auth.Session, prompt PromptDriver, out io.Writer) *cliApp {
	app := &cliApp{
		conf:    conf,
		logger:  logger,
		session: sess,
		prompt:  prompt,
		out:     out,
		hlPre:   "\x1b[1;33m",
		hlPost:  "\x1b[0m",
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		app.hlPre, app.hlPost = "", ""
	}
	app.api = traceapi.New(
		conf.APIBaseURL,
		traceapi.WithTimeout(conf.APITimeout),
		traceapi.WithToken(sess.Token),
		traceapi.WithLogger(logger),
	)
	return app
}

func (app *cliApp) printf(format string, args ...interface{}) {
	fmt.Fprintf(app.out, format, args...)
}

// report shows the feedback of res. Failures come back as errReported.
func (app *cliApp) report(res outcome.Result) error {
	fb := outcome.Report(res)
	if fb.Level == outcome.LevelSuccess {
		app.printf("✔ %s\n", fb.Message)
		// the configured redirectDelay replaces the default pause; 0 skips it
		if fb.RedirectAfter > 0 && app.conf.RedirectDelay > 0 {
			sleepFunc(app.conf.RedirectDelay)
		}
		return nil
	}

	app.printf("✘ %s\n", fb.Message)
	keys := make([]string, 0, len(fb.FieldErrors))
	for k := range fb.FieldErrors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		app.printf("  - %s: %s\n", k, fb.FieldErrors[k])
	}
	return errReported
}

// require gates a command on the session's role & approval. An alumni whose
// approval is not cached yet gets a fresh profile before being turned down.
func (app *cliApp) require(ctx context.Context, roles ...string) error {
	err := app.session.Require(roles...)
	if err != auth.ErrNotApproved {
		return err
	}
	me, merr := app.api.Me(ctx)
	if merr != nil {
		app.logger.Warn("refreshing profile failed", merr)
		return err
	}
	if serr := app.session.SetUser(*me); serr != nil {
		return serr
	}
	return app.session.Require(roles...)
}

// userID is the signed-in user's id, fetched once when not cached.
func (app *cliApp) userID(ctx context.Context) (string, error) {
	if usr := app.session.Current().User; usr != nil && usr.ID != "" {
		return usr.ID, nil
	}
	me, err := app.api.Me(ctx)
	if err != nil {
		return "", err
	}
	if err := app.session.SetUser(*me); err != nil {
		return "", err
	}
	return me.ID, nil
}
