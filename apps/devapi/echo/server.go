// Package echoapi is an in-memory rendition of the TRACE REST API, for local
// development of the client and for its tests.
package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/trace/core"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		Store          *Store
		Mailer         core.EmailService // optional, see Store.SetMailer
		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
		auth *Auth
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	if opts.Logger == nil {
		opts.Logger = core.NopLogger{}
	}
	if opts.Store == nil {
		opts.Store = NewStore()
	}
	if opts.Mailer != nil {
		opts.Store.SetMailer(opts.Mailer)
	}
	s := &server{
		opts: opts,
		app:  echo.New(),
		auth: NewAuth(opts.Conf),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	debug := s.opts.Conf.Debug

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || s.opts.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if debug {
		s.app.Logger.SetLevel(log.DEBUG)
	} else {
		s.app.Logger.SetLevel(log.WARN)
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger)
	s.app.Debug = debug

	s.app.GET("/", home)

	jwt := s.auth.Middleware()
	store := s.opts.Store

	registerUserAPI(s.app.Group(""), jwt, s.auth, store)
	registerGTSAPI(s.app.Group("/gts_responses"), jwt, store)
	registerEventAPI(s.app.Group("/events", jwt), store)
	registerNotificationAPI(s.app.Group("/notifications", jwt), store)
	registerAdminAPI(s.app.Group("/admin", jwt, adminMiddleware()), store)
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Conf.StubAddress)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the TRACE dev API!")
}
