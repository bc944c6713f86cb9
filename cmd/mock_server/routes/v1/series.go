package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ListSeries lists series
//
//	@Summary		List Series
//	@Description	lists series matching the query filters, paginated
//	@Tags			series
//	@Produce		json
//
//	@Security		BasicAuth
//
//	@Param			project		query		string	false	"Project slug"
//	@Param			q			query		string	false	"Name search"
//	@Param			page		query		int		false	"Page number"
//	@Param			per_page	query		int		false	"Page size"
//
//	@Success		200			{array}		types.Series
//
//	@Failure		401			{object}	types.Error
//
//	@Router			/api/1.2/series/ [get]
func (h *Handler) ListSeries(c echo.Context) error {
	return listResponse(c, h.store.AllSeries(c.QueryParam("project"), c.QueryParam("q")))
}

// GetSeries gets one series
//
//	@Summary		Get Series
//	@Description	gets one series with its ordered member patches
//	@Tags			series
//	@Produce		json
//
//	@Security		BasicAuth
//
//	@Param			id	path		int	true	"Series ID"
//
//	@Success		200	{object}	types.Series
//
//	@Failure		400	{object}	types.Error
//	@Failure		401	{object}	types.Error
//	@Failure		404	{object}	types.Error
//
//	@Router			/api/1.2/series/{id}/ [get]
func (h *Handler) GetSeries(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	series, ok := h.store.Series(id)
	if !ok {
		return notFound("series")
	}

	return c.JSON(http.StatusOK, series)
}
