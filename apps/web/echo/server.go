package echoweb

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/edubanco/recursos/core"
	"github.com/edubanco/recursos/core/activity"
	"github.com/edubanco/recursos/core/material"
	"github.com/edubanco/recursos/core/session"
	"github.com/edubanco/recursos/core/upload"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool

		SessionSvc  session.ServiceInterface
		MaterialSvc material.ServiceInterface
		UploadSvc   upload.ServiceInterface
		ActivitySvc activity.ServiceInterface
		Validate    *validator.Validate
		Translator  ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
		// Shutdown fires when the error handler caught an integrity error.
		Shutdown() <-chan struct{}
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		shutdown chan struct{}
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		shutdown: make(chan struct{}, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	// every mutation comes from our own forms; the token rides a readable
	// cookie and comes back in a header or form field
	if !conf.TestMode {
		s.app.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
			TokenLookup:    "header:X-CSRF-Token",
			CookieName:     "recursos_csrf",
			CookiePath:     "/",
			CookieSecure:   !conf.Debug,
			CookieHTTPOnly: false,
		}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	sess := sessionMiddleware(s.opts.Conf, s.opts.SessionSvc)

	registerAuthWeb(s.app, sess, s.opts)
	registerMaterialWeb(s.app, sess, s.opts)
	registerUploadWeb(s.app, sess, s.opts)
	registerActivityWeb(s.app, sess, s.opts)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Conf.Server.Addr()))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

// Shutdown signals a non-recoverable integrity error.
func (s *server) Shutdown() <-chan struct{} { return s.shutdown }

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- struct{}{}:
	default:
	}
}

func home(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"app": "Banco Colaborativo de Recursos Didáticos"})
}
