package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/patchtrack/git-ptk/cmd/mock_server/store"
	"github.com/patchtrack/git-ptk/internal/types"
)

// ListPatches lists patches
//
//	@Summary		List Patches
//	@Description	lists patches matching the query filters, paginated
//	@Tags			patches
//	@Produce		json
//
//	@Security		BasicAuth
//
//	@Param			project		query		string	false	"Project slug"
//	@Param			state		query		[]string	false	"Patch state, repeatable"
//	@Param			submitter	query		int		false	"Submitter ID"
//	@Param			delegate	query		int		false	"Delegate ID"
//	@Param			series		query		int		false	"Series ID"
//	@Param			archived	query		bool	false	"Archived flag"
//	@Param			since		query		string	false	"Only patches updated since, RFC 3339"
//	@Param			before		query		string	false	"Only patches updated before, RFC 3339"
//	@Param			q			query		string	false	"Name search"
//	@Param			order		query		string	false	"Sort field, - prefix for descending"
//	@Param			page		query		int		false	"Page number"
//	@Param			per_page	query		int		false	"Page size"
//
//	@Success		200			{array}		types.Patch
//
//	@Failure		400			{object}	types.Error
//	@Failure		401			{object}	types.Error
//
//	@Router			/api/1.2/patches/ [get]
func (h *Handler) ListPatches(c echo.Context) error {
	filter, err := patchFilter(c)
	if err != nil {
		return err
	}

	return listResponse(c, h.store.Patches(*filter, c.QueryParam("order")))
}

func patchFilter(c echo.Context) (*store.PatchFilter, error) {
	filter := store.PatchFilter{
		Project: c.QueryParam("project"),
		States:  c.QueryParams()["state"],
		Hash:    c.QueryParam("hash"),
		MsgID:   c.QueryParam("msgid"),
		Search:  c.QueryParam("q"),
	}

	var err error
	if filter.Submitter, err = intParam(c, "submitter"); err != nil {
		return nil, err
	}
	if filter.Delegate, err = intParam(c, "delegate"); err != nil {
		return nil, err
	}
	if filter.SeriesID, err = intParam(c, "series"); err != nil {
		return nil, err
	}

	if raw := c.QueryParam("archived"); raw != "" {
		archived, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, echo.NewHTTPError(
				http.StatusBadRequest,
				types.StringError("archived must be a boolean"),
			)
		}
		filter.Archived = &archived
	}

	if filter.Since, err = timeParam(c, "since"); err != nil {
		return nil, err
	}
	if filter.Before, err = timeParam(c, "before"); err != nil {
		return nil, err
	}

	return &filter, nil
}

func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(
			http.StatusBadRequest,
			types.StringError(name+" must be numeric"),
		)
	}

	return value, nil
}

func timeParam(c echo.Context, name string) (time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return time.Time{}, nil
	}

	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(
			http.StatusBadRequest,
			types.StringError(name+" must be RFC 3339"),
		)
	}

	return ts.UTC(), nil
}

// GetPatch gets one patch
//
//	@Summary		Get Patch
//	@Description	gets one patch with its inline diff
//	@Tags			patches
//	@Produce		json
//
//	@Security		BasicAuth
//
//	@Param			id	path		int	true	"Patch ID"
//
//	@Success		200	{object}	types.Patch
//
//	@Failure		400	{object}	types.Error
//	@Failure		401	{object}	types.Error
//	@Failure		404	{object}	types.Error
//
//	@Router			/api/1.2/patches/{id}/ [get]
func (h *Handler) GetPatch(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	patch, ok := h.store.Patch(id)
	if !ok {
		return notFound("patch")
	}

	return c.JSON(http.StatusOK, patch)
}

// UpdatePatch updates patch metadata
//
//	@Summary		Update Patch
//	@Description	partially updates a patch from form fields
//	@Tags			patches
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//
//	@Security		BasicAuth
//
//	@Param			id			path		int		true	"Patch ID"
//	@Param			state		formData	string	false	"New state"
//	@Param			archived	formData	bool	false	"Archived flag"
//	@Param			delegate	formData	int		false	"Delegate user ID"
//	@Param			commit_ref	formData	string	false	"Commit the patch landed as"
//
//	@Success		200			{object}	types.Patch
//
//	@Failure		400			{object}	types.Error
//	@Failure		401			{object}	types.Error
//	@Failure		404			{object}	types.Error
//
//	@Router			/api/1.2/patches/{id}/ [patch]
func (h *Handler) UpdatePatch(c echo.Context) error {
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

	changes := store.PatchChanges{}
	if values, ok := form["state"]; ok {
		changes.State = &values[0]
	}
	if values, ok := form["commit_ref"]; ok {
		changes.CommitRef = &values[0]
	}
	if values, ok := form["archived"]; ok {
		archived, err := strconv.ParseBool(values[0])
		if err != nil {
			return echo.NewHTTPError(
				http.StatusBadRequest,
				types.StringError("archived must be a boolean"),
			)
		}
		changes.Archived = &archived
	}
	if values, ok := form["delegate"]; ok {
		delegate, err := strconv.Atoi(values[0])
		if err != nil {
			return echo.NewHTTPError(
				http.StatusBadRequest,
				types.StringError("delegate must be numeric"),
			)
		}
		changes.Delegate = &delegate
	}

	patch, found, err := h.store.UpdatePatch(id, changes)
	if !found {
		return notFound("patch")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, types.StringError(err.Error()))
	}

	return c.JSON(http.StatusOK, patch)
}

// ListChecks lists the CI checks on a patch
//
//	@Summary		List Checks
//	@Description	lists the CI checks reported for one patch
//	@Tags			patches
//	@Produce		json
//
//	@Security		BasicAuth
//
//	@Param			id	path		int	true	"Patch ID"
//
//	@Success		200	{array}		types.Check
//
//	@Failure		400	{object}	types.Error
//	@Failure		401	{object}	types.Error
//	@Failure		404	{object}	types.Error
//
//	@Router			/api/1.2/patches/{id}/checks/ [get]
func (h *Handler) ListChecks(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	checks, ok := h.store.Checks(id)
	if !ok {
		return notFound("patch")
	}

	return listResponse(c, checks)
}
