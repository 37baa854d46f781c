package echoweb

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edubanco/recursos/core"
	"github.com/edubanco/recursos/core/session"
)

var contextSessionKey = "session"

// The browser only ever holds an opaque session id, HMAC-signed so a
// tampered cookie is rejected before any store lookup. The backend bearer
// token stays server-side.

func signCookieValue(id string, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(id))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return id + "." + sig
}

func parseCookieValue(val string, key []byte) (string, bool) {
	i := strings.LastIndex(val, ".")
	if i < 0 {
		return "", false
	}
	id, sig := val[:i], val[i+1:]
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(id))
	want := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(sig), []byte(want)) {
		return "", false
	}
	return id, true
}

func setSessionCookie(ctx echo.Context, conf *core.Config, sess session.Session) {
	ctx.SetCookie(&http.Cookie{
		Name:     conf.Server.SessionCookie,
		Value:    signCookieValue(sess.ID, conf.SecretKey),
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   !conf.Debug,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(ctx echo.Context, conf *core.Config) {
	ctx.SetCookie(&http.Cookie{
		Name:     conf.Server.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !conf.Debug,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionID(ctx echo.Context, conf *core.Config) (string, bool) {
	cookie, err := ctx.Cookie(conf.Server.SessionCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return parseCookieValue(cookie.Value, conf.SecretKey)
}

// sessionMiddleware resolves the cookie into a live session and stashes it in
// the request context. Requests without a valid session pass through
// unauthenticated; individual routes decide whether that is acceptable.
func sessionMiddleware(conf *core.Config, svc session.ServiceInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, ok := sessionID(ctx, conf)
			if !ok {
				return next(ctx)
			}
			sess, err := svc.Current(ctx.Request().Context(), id)
			if err != nil {
				if errors.Cause(err) == core.ErrNotAuthenticated {
					clearSessionCookie(ctx, conf)
					return next(ctx)
				}
				return errors.Wrap(err, "resolving session")
			}
			ctx.Set(contextSessionKey, sess)
			return next(ctx)
		}
	}
}

// requireSession rejects unauthenticated requests up front, before any
// backend call is attempted.
func requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if _, ok := getContextSession(ctx); !ok {
			return core.ErrNotAuthenticated
		}
		return next(ctx)
	}
}

func getContextSession(ctx echo.Context) (session.Session, bool) {
	sess, ok := ctx.Get(contextSessionKey).(session.Session)
	return sess, ok
}

// mustContextSession is only called behind requireSession.
func mustContextSession(ctx echo.Context) session.Session {
	sess, _ := getContextSession(ctx)
	return sess
}

type authWeb struct {
	opts *Options
}

func registerAuthWeb(app *echo.Echo, sess echo.MiddlewareFunc, opts *Options) {
	web := authWeb{opts: opts}

	g := app.Group("/auth", sess)
	g.POST("/login", web.login)
	g.POST("/register", web.register)
	g.POST("/logout", web.logout)
	g.GET("/session", web.session)
	g.POST("/session/restore", web.restore)

	mg := app.Group("/me", sess, requireSession)
	mg.GET("", web.profile)
	mg.PUT("", web.updateProfile)
	mg.POST("/password", web.changePassword)
}

// Handlers

func (web *authWeb) login(ctx echo.Context) error {
	var data session.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	if err := data.Validate(web.opts.Validate); err != nil {
		return err
	}

	sess, err := web.opts.SessionSvc.Login(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	setSessionCookie(ctx, web.opts.Conf, sess)
	return ctx.JSON(http.StatusOK, sessionResponse(sess))
}

func (web *authWeb) register(ctx echo.Context) error {
	var data session.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}
	if err := data.Validate(web.opts.Validate); err != nil {
		return err
	}

	sess, err := web.opts.SessionSvc.Register(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	setSessionCookie(ctx, web.opts.Conf, sess)
	return ctx.JSON(http.StatusCreated, sessionResponse(sess))
}

// logout always clears local state, even when no session is left.
func (web *authWeb) logout(ctx echo.Context) error {
	if sess, ok := getContextSession(ctx); ok {
		if err := web.opts.SessionSvc.Logout(ctx.Request().Context(), sess.ID); err != nil {
			return errors.Wrap(err, "logging out")
		}
	}
	clearSessionCookie(ctx, web.opts.Conf)
	return ctx.JSON(http.StatusOK, echo.Map{"authenticated": false})
}

// session reports the current auth state without a backend round trip.
func (web *authWeb) session(ctx echo.Context) error {
	sess, ok := getContextSession(ctx)
	if !ok {
		return ctx.JSON(http.StatusOK, echo.Map{"authenticated": false})
	}
	return ctx.JSON(http.StatusOK, sessionResponse(sess))
}

// restore re-verifies the stored credential against the backend; an expired
// one deterministically lands back on unauthenticated.
func (web *authWeb) restore(ctx echo.Context) error {
	sess, ok := getContextSession(ctx)
	if !ok {
		return ctx.JSON(http.StatusOK, echo.Map{"authenticated": false})
	}

	sess, err := web.opts.SessionSvc.Restore(ctx.Request().Context(), sess.ID)
	if err != nil {
		cause := errors.Cause(err)
		if cause == core.ErrSessionExpired || cause == core.ErrNotAuthenticated {
			clearSessionCookie(ctx, web.opts.Conf)
			return ctx.JSON(http.StatusOK, echo.Map{"authenticated": false})
		}
		return errors.Wrap(err, "restoring session")
	}
	setSessionCookie(ctx, web.opts.Conf, sess)
	return ctx.JSON(http.StatusOK, sessionResponse(sess))
}

func (web *authWeb) profile(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, mustContextSession(ctx).User)
}

func (web *authWeb) updateProfile(ctx echo.Context) error {
	var data session.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err := data.Validate(web.opts.Validate); err != nil {
		return err
	}

	sess, err := web.opts.SessionSvc.UpdateProfile(ctx.Request().Context(), mustContextSession(ctx).ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess.User)
}

func (web *authWeb) changePassword(ctx echo.Context) error {
	var data session.ChangePassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePassword")
	}
	if err := data.Validate(web.opts.Validate); err != nil {
		return err
	}

	if err := web.opts.SessionSvc.ChangePassword(ctx.Request().Context(), mustContextSession(ctx).ID, data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": "senha alterada com sucesso"})
}

type SessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          session.User `json:"user"`
	ExpiresAt     time.Time    `json:"expiresAt"`
}

func sessionResponse(sess session.Session) SessionResponse {
	return SessionResponse{
		Authenticated: true,
		User:          sess.User,
		ExpiresAt:     sess.ExpiresAt,
	}
}
