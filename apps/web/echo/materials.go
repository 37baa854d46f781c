package echoweb

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edubanco/recursos/core"
	"github.com/edubanco/recursos/core/material"
)

type materialWeb struct {
	opts *Options
}

func registerMaterialWeb(app *echo.Echo, sess echo.MiddlewareFunc, opts *Options) {
	web := materialWeb{opts: opts}

	g := app.Group("/materials", sess)

	// public endpoints
	g.GET("", web.list)
	g.GET("/stats", web.stats)
	g.GET("/options", web.options)
	g.GET("/:id", web.retrieve)
	g.GET("/:id/similar", web.similar)

	// authed endpoints; requireSession rides per route so the public routes
	// above keep their handlers (a same-prefix subgroup would re-register the
	// group root and shadow them)
	g.GET("/:id/download", web.download) // guards itself: wants a redirect, not a 401
	g.PUT("/:id", web.update, requireSession)
	g.DELETE("/:id", web.destroy, requireSession)
	g.POST("/:id/rate", web.rate, requireSession)
	g.POST("/:id/share", web.share, requireSession)

	app.GET("/me/materials", web.myMaterials, sess, requireSession)
}

// Handlers

// list serves one page, or with accumulate=true the whole window up to the
// requested page so "load more" survives a reload without duplicate cards.
func (web *materialWeb) list(ctx echo.Context) error {
	filter, page, err := bindListQuery(ctx)
	if err != nil {
		return err
	}

	if ctx.QueryParam("accumulate") == "true" && page.Page > 1 {
		return web.listAccumulated(ctx, filter, page)
	}

	res, err := web.opts.MaterialSvc.Query(ctx.Request().Context(), filter, page)
	if err != nil {
		return errors.Wrap(err, "querying materials")
	}
	return ctx.JSON(http.StatusOK, listResponse(res.Materials, res.Pagination, res.Stats))
}

func (web *materialWeb) listAccumulated(ctx echo.Context, filter material.QueryFilter, page material.Page) error {
	view := material.NewListView()
	for p := 1; p <= page.Page; p++ {
		res, err := web.opts.MaterialSvc.Query(ctx.Request().Context(), filter, material.Page{Page: p, Limit: page.Limit})
		if err != nil {
			return errors.Wrap(err, "querying materials")
		}
		if p == 1 {
			view.Refresh(res)
		} else {
			view.Append(res)
		}
		if !view.HasNext() {
			break
		}
	}
	return ctx.JSON(http.StatusOK, listResponse(view.Materials, view.Pagination, view.Stats))
}

func (web *materialWeb) retrieve(ctx echo.Context) error {
	mat, err := web.opts.MaterialSvc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mat)
}

func (web *materialWeb) similar(ctx echo.Context) error {
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	mats, err := web.opts.MaterialSvc.Similar(ctx.Request().Context(), ctx.Param("id"), limit)
	if err != nil {
		return errors.Wrap(err, "querying similar materials")
	}
	if mats == nil {
		mats = []material.Material{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"similar": mats})
}

// download sends the browser to the CDN. An anonymous visitor goes to /login
// instead; no backend call is made for them.
func (web *materialWeb) download(ctx echo.Context) error {
	sess, ok := getContextSession(ctx)
	if !ok {
		if wantsHTML(ctx) {
			return ctx.Redirect(http.StatusSeeOther, "/login")
		}
		return core.ErrNotAuthenticated
	}

	info, err := web.opts.MaterialSvc.Download(ctx.Request().Context(), sess, ctx.Param("id"))
	if err != nil {
		return err
	}
	if wantsHTML(ctx) {
		return ctx.Redirect(http.StatusSeeOther, info.DownloadURL)
	}
	return ctx.JSON(http.StatusOK, info)
}

func (web *materialWeb) update(ctx echo.Context) error {
	var data material.UpdateMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMaterial")
	}
	if err := data.Validate(web.opts.Validate); err != nil {
		return err
	}

	mat, err := web.opts.MaterialSvc.Update(ctx.Request().Context(), mustContextSession(ctx), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mat)
}

func (web *materialWeb) destroy(ctx echo.Context) error {
	if err := web.opts.MaterialSvc.Delete(ctx.Request().Context(), mustContextSession(ctx), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// rate returns the re-fetched material so the caller can repaint the numbers
// without reloading the page.
func (web *materialWeb) rate(ctx echo.Context) error {
	var data material.NewRating
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRating")
	}
	if err := data.Validate(web.opts.Validate); err != nil {
		return err
	}

	mat, err := web.opts.MaterialSvc.Rate(ctx.Request().Context(), mustContextSession(ctx), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mat)
}

func (web *materialWeb) share(ctx echo.Context) error {
	var data material.ShareRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ShareRequest")
	}
	if err := data.Validate(web.opts.Validate); err != nil {
		return err
	}

	web.opts.MaterialSvc.Share(ctx.Request().Context(), mustContextSession(ctx), ctx.Param("id"), data)
	return ctx.JSON(http.StatusOK, echo.Map{"success": "material compartilhado por email"})
}

func (web *materialWeb) myMaterials(ctx echo.Context) error {
	var page material.Page
	if err := ctx.Bind(&page); err != nil {
		return errors.Wrap(err, "binding to Page")
	}
	page.Clean()

	res, err := web.opts.MaterialSvc.MyMaterials(ctx.Request().Context(), mustContextSession(ctx), page)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, listResponse(res.Materials, res.Pagination, res.Stats))
}

func (web *materialWeb) stats(ctx echo.Context) error {
	stats, err := web.opts.MaterialSvc.GlobalStats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

// options serves the form option lists so the frontend never hardcodes the
// enum vocabulary.
func (web *materialWeb) options(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"materialTypes":    material.TypeLabels,
		"difficulties":     material.DifficultyLabels,
		"subjects":         material.Subjects,
		"gradeLevels":      material.GradeLevels,
		"sortKeys":         material.SortKeys,
		"maxFileSizeBytes": material.MaxFileSize,
	})
}

type ListResponse struct {
	Materials  []material.Material `json:"materials"`
	Pagination material.Pagination `json:"pagination"`
	Stats      material.Stats      `json:"stats"`
}

func listResponse(mats []material.Material, p material.Pagination, st material.Stats) ListResponse {
	if mats == nil {
		mats = []material.Material{}
	}
	return ListResponse{Materials: mats, Pagination: p, Stats: st}
}

func wantsHTML(ctx echo.Context) bool {
	return strings.Contains(ctx.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}
