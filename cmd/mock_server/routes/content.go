// Package routes serves the non-API content routes: raw mbox downloads
// for patches, series and bundles.
package routes

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/patchtrack/git-ptk/cmd/mock_server/store"
	"github.com/patchtrack/git-ptk/internal/types"
)

type Handler struct {
	store *store.Store
}

func New(s *store.Store) *Handler {
	return &Handler{store: s}
}

// Register mounts the content routes. They sit outside /api because the
// records carry them as plain absolute URLs, matching the real server.
func (h *Handler) Register(e *echo.Echo, auth echo.MiddlewareFunc) {
	e.GET("/patch/:id/mbox/", h.PatchMbox, auth)
	e.GET("/series/:id/mbox/", h.SeriesMbox, auth)
	e.GET("/bundle/:id/mbox/", h.BundleMbox, auth)
}

// PatchMbox downloads a patch message
//
//	@Summary		Download Patch Mbox
//	@Description	downloads the raw message of one patch
//	@Tags			content
//	@Produce		plain
//
//	@Security		BasicAuth
//
//	@Param			id	path	int	true	"Patch ID"
//
//	@Success		200	{string}	string
//
//	@Failure		400	{object}	types.Error
//	@Failure		401	{object}	types.Error
//	@Failure		404	{object}	types.Error
//
//	@Router			/patch/{id}/mbox/ [get]
func (h *Handler) PatchMbox(c echo.Context) error {
	return h.serve(c, h.store.Mbox)
}

// SeriesMbox downloads a whole series
//
//	@Summary		Download Series Mbox
//	@Description	downloads the member messages of a series, concatenated in order
//	@Tags			content
//	@Produce		plain
//
//	@Security		BasicAuth
//
//	@Param			id	path	int	true	"Series ID"
//
//	@Success		200	{string}	string
//
//	@Failure		400	{object}	types.Error
//	@Failure		401	{object}	types.Error
//	@Failure		404	{object}	types.Error
//
//	@Router			/series/{id}/mbox/ [get]
func (h *Handler) SeriesMbox(c echo.Context) error {
	return h.serve(c, h.store.SeriesMbox)
}

// BundleMbox downloads a whole bundle
//
//	@Summary		Download Bundle Mbox
//	@Description	downloads the member messages of a bundle, concatenated in order
//	@Tags			content
//	@Produce		plain
//
//	@Security		BasicAuth
//
//	@Param			id	path	int	true	"Bundle ID"
//
//	@Success		200	{string}	string
//
//	@Failure		400	{object}	types.Error
//	@Failure		401	{object}	types.Error
//	@Failure		404	{object}	types.Error
//
//	@Router			/bundle/{id}/mbox/ [get]
func (h *Handler) BundleMbox(c echo.Context) error {
	return h.serve(c, h.store.BundleMbox)
}

func (h *Handler) serve(c echo.Context, lookup func(int) ([]byte, string, bool)) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(
			http.StatusBadRequest,
			types.StringError("id must be numeric"),
		)
	}

	content, filename, ok := lookup(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, types.StringError("content not found"))
	}

	c.Response().Header().Set(
		"Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"`, filename),
	)
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", content)
}
