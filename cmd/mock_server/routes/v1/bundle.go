package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/patchtrack/git-ptk/cmd/mock_server/store"
	"github.com/patchtrack/git-ptk/internal/types"
)

// ListBundles lists bundles
//
//	@Summary		List Bundles
//	@Description	lists bundles matching the query filters, paginated
//	@Tags			bundles
//	@Produce		json
//
//	@Security		BasicAuth
//
//	@Param			project		query		string	false	"Project slug"
//	@Param			q			query		string	false	"Name search"
//	@Param			page		query		int		false	"Page number"
//	@Param			per_page	query		int		false	"Page size"
//
//	@Success		200			{array}		types.Bundle
//
//	@Failure		401			{object}	types.Error
//
//	@Router			/api/1.2/bundles/ [get]
func (h *Handler) ListBundles(c echo.Context) error {
	return listResponse(c, h.store.Bundles(c.QueryParam("project"), c.QueryParam("q")))
}

// GetBundle gets one bundle
//
//	@Summary		Get Bundle
//	@Description	gets one bundle with its ordered member patches
//	@Tags			bundles
//	@Produce		json
//
//	@Security		BasicAuth
//
//	@Param			id	path		int	true	"Bundle ID"
//
//	@Success		200	{object}	types.Bundle
//
//	@Failure		400	{object}	types.Error
//	@Failure		401	{object}	types.Error
//	@Failure		404	{object}	types.Error
//
//	@Router			/api/1.2/bundles/{id}/ [get]
func (h *Handler) GetBundle(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	bundle, ok := h.store.Bundle(id)
	if !ok {
		return notFound("bundle")
	}

	return c.JSON(http.StatusOK, bundle)
}

// CreateBundle creates a bundle
//
//	@Summary		Create Bundle
//	@Description	creates a bundle from form fields
//	@Tags			bundles
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//
//	@Security		BasicAuth
//
//	@Param			name	formData	string	true	"Bundle name"
//	@Param			patches	formData	[]int	false	"Member patch IDs, ordered"
//	@Param			public	formData	bool	false	"Public visibility"
//
//	@Success		201		{object}	types.Bundle
//
//	@Failure		400		{object}	types.Error
//	@Failure		401		{object}	types.Error
//
//	@Router			/api/1.2/bundles/ [post]
func (h *Handler) CreateBundle(c echo.Context) error {
	if err := c.Request().ParseForm(); err != nil {
		return echo.NewHTTPError(
			http.StatusBadRequest,
			types.StringError("failed parsing request data"),
		)
	}
	form := c.Request().PostForm

	name := form.Get("name")
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, types.StringError("name is required"))
	}

	patchIDs, err := formPatchIDs(form["patches"])
	if err != nil {
		return err
	}

	public := false
	if raw := form.Get("public"); raw != "" {
		if public, err = strconv.ParseBool(raw); err != nil {
			return echo.NewHTTPError(
				http.StatusBadRequest,
				types.StringError("public must be a boolean"),
			)
		}
	}

	bundle, err := h.store.CreateBundle(name, patchIDs, public)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, types.StringError(err.Error()))
	}

	return c.JSON(http.StatusCreated, bundle)
}

// UpdateBundle updates a bundle
//
//	@Summary		Update Bundle
//	@Description	partially updates a bundle from form fields; patches replaces the membership
//	@Tags			bundles
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//
//	@Security		BasicAuth
//
//	@Param			id		path		int		true	"Bundle ID"
//	@Param			name	formData	string	false	"New name"
//	@Param			patches	formData	[]int	false	"Member patch IDs, ordered"
//	@Param			public	formData	bool	false	"Public visibility"
//
//	@Success		200		{object}	types.Bundle
//
//	@Failure		400		{object}	types.Error
//	@Failure		401		{object}	types.Error
//	@Failure		404		{object}	types.Error
//
//	@Router			/api/1.2/bundles/{id}/ [patch]
func (h *Handler) UpdateBundle(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := c.Request().ParseForm(); err != nil {
		return echo.NewHTTPError(
			http.StatusBadRequest,
			types.StringError("failed parsing request data"),
		)
	}
	form := c.Request().PostForm

	changes := store.BundleChanges{}
	if values, ok := form["name"]; ok {
		changes.Name = &values[0]
	}
	if values, ok := form["public"]; ok {
		public, err := strconv.ParseBool(values[0])
		if err != nil {
			return echo.NewHTTPError(
				http.StatusBadRequest,
				types.StringError("public must be a boolean"),
			)
		}
		changes.Public = &public
	}
	if values, ok := form["patches"]; ok {
		patchIDs, err := formPatchIDs(values)
		if err != nil {
			return err
		}
		changes.Patches = &patchIDs
	}

	bundle, found, err := h.store.UpdateBundle(id, changes)
	if !found {
		return notFound("bundle")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, types.StringError(err.Error()))
	}

	return c.JSON(http.StatusOK, bundle)
}

// DeleteBundle deletes a bundle
//
//	@Summary		Delete Bundle
//	@Description	deletes a bundle
//	@Tags			bundles
//	@Produce		json
//
//	@Security		BasicAuth
//
//	@Param			id	path	int	true	"Bundle ID"
//
//	@Success		204
//
//	@Failure		400	{object}	types.Error
//	@Failure		401	{object}	types.Error
//	@Failure		404	{object}	types.Error
//
//	@Router			/api/1.2/bundles/{id}/ [delete]
func (h *Handler) DeleteBundle(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if !h.store.DeleteBundle(id) {
		return notFound("bundle")
	}

	return c.NoContent(http.StatusNoContent)
}

func formPatchIDs(values []string) ([]int, error) {
	ids := make([]int, 0, len(values))
	for _, value := range values {
		id, err := strconv.Atoi(value)
		if err != nil {
			return nil, echo.NewHTTPError(
				http.StatusBadRequest,
				types.StringError("patches must be numeric IDs"),
			)
		}
		ids = append(ids, id)
	}

	return ids, nil
}
