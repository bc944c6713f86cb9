// Package v1 serves the resource collections of the mock Patchtrack API.
// Handlers bind to an in-memory store seeded from the fixture file.
package v1

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

// Register mounts the resource routes on the API group.
func (h *Handler) Register(g *echo.Group) {
	g.GET("/patches/", h.ListPatches)
	g.GET("/patches/:id/", h.GetPatch)
	g.PATCH("/patches/:id/", h.UpdatePatch)
	g.GET("/patches/:id/checks/", h.ListChecks)

	g.GET("/series/", h.ListSeries)
	g.GET("/series/:id/", h.GetSeries)

	g.GET("/bundles/", h.ListBundles)
	g.GET("/bundles/:id/", h.GetBundle)
	g.POST("/bundles/", h.CreateBundle)
	g.PATCH("/bundles/:id/", h.UpdateBundle)
	g.DELETE("/bundles/:id/", h.DeleteBundle)

	g.GET("/people/", h.ListPeople)
	g.GET("/users/", h.ListUsers)
	g.GET("/projects/:slug/", h.GetProject)
}

const defaultPerPage = 30

// paginate slices one page out of the full result set and builds the
// rel="next" link the client walks. The last page carries no link.
func paginate[T any](c echo.Context, items []T) ([]T, string) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))
	if perPage < 1 {
		perPage = defaultPerPage
	}

	start := (page - 1) * perPage
	if start >= len(items) {
		return []T{}, ""
	}

	end := start + perPage
	if end > len(items) {
		end = len(items)
	}

	link := ""
	if end < len(items) {
		next := *c.Request().URL
		query := next.Query()
		query.Set("page", strconv.Itoa(page+1))
		query.Set("per_page", strconv.Itoa(perPage))
		next.RawQuery = query.Encode()

		scheme := c.Scheme()
		link = fmt.Sprintf(`<%s://%s%s>; rel="next"`, scheme, c.Request().Host, next.String())
	}

	return items[start:end], link
}

func listResponse[T any](c echo.Context, items []T) error {
	pageItems, link := paginate(c, items)
	if link != "" {
		c.Response().Header().Set("Link", link)
	}

	return c.JSON(http.StatusOK, pageItems)
}

func pathID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, echo.NewHTTPError(
			http.StatusBadRequest,
			types.StringError("id must be numeric"),
		)
	}

	return id, nil
}

func notFound(resource string) error {
	return echo.NewHTTPError(
		http.StatusNotFound,
		types.StringError(resource+" not found"),
	)
}
