package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ListPeople lists submitter identities
//
//	@Summary		List People
//	@Description	lists submitter identities, q searches name and email
//	@Tags			people
//	@Produce		json
//
//	@Security		BasicAuth
//
//	@Param			q			query		string	false	"Name or email search"
//	@Param			page		query		int		false	"Page number"
//	@Param			per_page	query		int		false	"Page size"
//
//	@Success		200			{array}		types.Person
//
//	@Failure		401			{object}	types.Error
//
//	@Router			/api/1.2/people/ [get]
func (h *Handler) ListPeople(c echo.Context) error {
	return listResponse(c, h.store.People(c.QueryParam("q")))
}

// ListUsers lists registered accounts
//
//	@Summary		List Users
//	@Description	lists registered accounts, q searches username and email
//	@Tags			users
//	@Produce		json
//
//	@Security		BasicAuth
//
//	@Param			q			query		string	false	"Username or email search"
//	@Param			page		query		int		false	"Page number"
//	@Param			per_page	query		int		false	"Page size"
//
//	@Success		200			{array}		types.User
//
//	@Failure		401			{object}	types.Error
//
//	@Router			/api/1.2/users/ [get]
func (h *Handler) ListUsers(c echo.Context) error {
	return listResponse(c, h.store.Users(c.QueryParam("q")))
}

// GetProject gets the project by slug
//
//	@Summary		Get Project
//	@Description	gets the configured project by its link name
//	@Tags			projects
//	@Produce		json
//
//	@Security		BasicAuth
//
//	@Param			slug	path		string	true	"Project link name"
//
//	@Success		200		{object}	types.Project
//
//	@Failure		401		{object}	types.Error
//	@Failure		404		{object}	types.Error
//
//	@Router			/api/1.2/projects/{slug}/ [get]
func (h *Handler) GetProject(c echo.Context) error {
	project, ok := h.store.Project(c.Param("slug"))
	if !ok {
		return notFound("project")
	}

	return c.JSON(http.StatusOK, project)
}
