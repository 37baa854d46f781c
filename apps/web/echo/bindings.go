package echoweb

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edubanco/recursos/core/material"
)

// bindListQuery binds the listing filters and pagination window from query
// params. Unknown sort keys and out-of-range limits are normalized away by
// Clean, never rejected.
func bindListQuery(ctx echo.Context) (material.QueryFilter, material.Page, error) {
	var filter material.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return material.QueryFilter{}, material.Page{}, errors.Wrap(err, "binding to QueryFilter")
	}
	var page material.Page
	if err := ctx.Bind(&page); err != nil {
		return material.QueryFilter{}, material.Page{}, errors.Wrap(err, "binding to Page")
	}
	filter.Clean()
	page.Clean()
	return filter, page, nil
}
