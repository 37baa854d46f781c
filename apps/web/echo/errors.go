package echoweb

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edubanco/recursos/core"
	"github.com/edubanco/recursos/core/activity"
	"github.com/edubanco/recursos/core/material"
	"github.com/edubanco/recursos/core/session"
	"github.com/edubanco/recursos/core/upload"
	"github.com/edubanco/recursos/services/bancoapi"
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how
// to handle our errors. Auth failures carry a redirect hint so the frontend
// always lands on /login; backend business errors pass through verbatim.
// A backend 401 additionally tears down the local session right here, so no
// stale user survives past the response that reported it.
// signalShutdown is called whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(opts *Options, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(opts.Translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *bancoapi.APIError:
			code = origErr.StatusCode
			message = origErr.Message
			if code < 400 {
				code = http.StatusBadGateway
			}
		default:
			switch cause {
			case core.ErrSessionExpired:
				// the backend rejected the stored credential: drop the
				// server-side session and the cookie so the very next request
				// is anonymous, not just this response
				if sess, ok := getContextSession(ctx); ok {
					if rErr := opts.SessionSvc.Reset(ctx.Request().Context(), sess.ID); rErr != nil {
						opts.Logger.Error("resetting expired session", rErr, sess.User)
					}
				}
				clearSessionCookie(ctx, opts.Conf)
				code = http.StatusUnauthorized
				message = echo.Map{"error": cause.Error(), "redirect": "/login"}
			case core.ErrNotAuthenticated:
				code = http.StatusUnauthorized
				message = echo.Map{"error": cause.Error(), "redirect": "/login"}
			case material.ErrNotFound, activity.ErrNoGeneration:
				code = http.StatusNotFound
				message = cause.Error()
			case upload.ErrUploadInProgress:
				code = http.StatusConflict
				message = cause.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := "erro interno do servidor"
				message = msg

				var usr session.User
				if sess, ok := getContextSession(ctx); ok {
					usr = sess.User
				}
				opts.Logger.Error(msg, errors.Wrap(err, msg), usr)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
