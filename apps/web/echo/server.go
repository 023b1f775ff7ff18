// Package echoui serves the two browser surfaces of the DLPL enrollment
// system: the public enrollment wizard and the administrative console. It is
// a presentation layer only; every decision is delegated to the services in
// core/ and, through them, to the external DLPL API.
package echoui

import (
	"context"
	"net/http"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/NercinoN21/dlpl-frontend/core"
	"github.com/NercinoN21/dlpl-frontend/core/admin"
	"github.com/NercinoN21/dlpl-frontend/core/enrollment"
	"github.com/NercinoN21/dlpl-frontend/core/session"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool
		Logger         core.Logger
		Sessions       *session.Store
		EnrollmentSvc  *enrollment.Service
		AdminSvc       *admin.Service
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	debug := core.Conf.GetBool("debug")

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || core.Conf.GetBool("testMode")) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger)
	s.app.Renderer = newRenderer()
	s.app.Debug = debug

	validate := validator.New()
	translator, _ := ut.New(en.New(), en.New()).GetTranslator("en")
	core.InitValidators(validate, translator)

	sessions := sessionMiddleware(s.opts.Sessions)

	registerEnrollmentUI(s.app, sessions, s.opts.EnrollmentSvc, validate, translator)
	registerAdminUI(s.app, sessions, s.opts.AdminSvc, validate, translator)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}
