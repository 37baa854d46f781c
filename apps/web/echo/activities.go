package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type activityWeb struct {
	opts *Options
}

func registerActivityWeb(app *echo.Echo, sess echo.MiddlewareFunc, opts *Options) {
	web := activityWeb{opts: opts}

	g := app.Group("/materials/:id/activities", sess, requireSession)
	g.POST("", web.generate)
	g.GET("", web.latest)
}

// Handlers

// generate runs one AI generation round trip; the result replaces whatever
// was generated before for this material.
func (web *activityWeb) generate(ctx echo.Context) error {
	gen, err := web.opts.ActivitySvc.Generate(ctx.Request().Context(), mustContextSession(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, gen)
}

// latest returns the last generation without re-triggering the AI; 404 when
// nothing has been generated yet.
func (web *activityWeb) latest(ctx echo.Context) error {
	gen, err := web.opts.ActivitySvc.Latest(ctx.Request().Context(), mustContextSession(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, gen)
}
