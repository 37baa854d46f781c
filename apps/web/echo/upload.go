package echoweb

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edubanco/recursos/core/material"
)

type uploadWeb struct {
	opts *Options
}

func registerUploadWeb(app *echo.Echo, sess echo.MiddlewareFunc, opts *Options) {
	web := uploadWeb{opts: opts}

	// registered on the bare router: a guarded group at /materials would
	// shadow the public listing route
	app.POST("/materials", web.upload, sess, requireSession)

	ug := app.Group("/upload", sess, requireSession)
	ug.GET("/status", web.status)
	ug.POST("/reset", web.reset)
}

// Handlers

// upload validates the whole form before a single byte goes to the backend;
// a second submission while one is pending gets a 409 from the tracker.
func (web *uploadWeb) upload(ctx echo.Context) error {
	nm, err := bindNewMaterial(ctx)
	if err != nil {
		return err
	}
	if err := nm.Validate(web.opts.Validate); err != nil {
		return err
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return errors.Wrap(err, "reading form file")
	}
	file, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening form file")
	}
	defer file.Close()

	state, err := web.opts.UploadSvc.Upload(ctx.Request().Context(), mustContextSession(ctx), nm, file)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, state)
}

func (web *uploadWeb) status(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, web.opts.UploadSvc.Status(mustContextSession(ctx)))
}

func (web *uploadWeb) reset(ctx echo.Context) error {
	web.opts.UploadSvc.Reset(mustContextSession(ctx))
	return ctx.JSON(http.StatusOK, web.opts.UploadSvc.Status(mustContextSession(ctx)))
}

// bindNewMaterial reads the multipart form by hand: the file part must not be
// bound as a field, and tags arrive either repeated or comma-separated.
func bindNewMaterial(ctx echo.Context) (material.NewMaterial, error) {
	var nm material.NewMaterial
	if err := ctx.Bind(&nm); err != nil {
		return material.NewMaterial{}, errors.Wrap(err, "binding to NewMaterial")
	}

	if form, err := ctx.MultipartForm(); err == nil {
		if tags, ok := form.Value["tags"]; ok {
			nm.Tags = splitTags(tags)
		}
		if dur, ok := form.Value["estimatedDuration"]; ok && len(dur) > 0 && nm.EstimatedDuration == 0 {
			nm.EstimatedDuration, _ = strconv.Atoi(dur[0])
		}
	}

	fh, err := ctx.FormFile("file")
	if err == nil {
		nm.File = material.FileInfo{
			Name:        fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get(echo.HeaderContentType),
		}
	}
	return nm, nil
}

func splitTags(vals []string) []string {
	var tags []string
	for _, v := range vals {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}
