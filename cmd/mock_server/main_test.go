package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestAuthMiddleware(t *testing.T) {
	e := echo.New()
	e.GET("/ping/", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, Auth("secret"))

	do := func(configure func(*http.Request)) int {
		req := httptest.NewRequest(http.MethodGet, "/ping/", nil)
		configure(req)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("ValidToken", func(t *testing.T) {
		code := do(func(req *http.Request) {
			req.Header.Set(echo.HeaderAuthorization, "Token secret")
		})
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("WrongToken", func(t *testing.T) {
		code := do(func(req *http.Request) {
			req.Header.Set(echo.HeaderAuthorization, "Token guess")
		})
		assert.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("ValidBasic", func(t *testing.T) {
		code := do(func(req *http.Request) {
			req.SetBasicAuth("mock_user", "mock_password")
		})
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("WrongBasic", func(t *testing.T) {
		code := do(func(req *http.Request) {
			req.SetBasicAuth("mock_user", "guess")
		})
		assert.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("NoCredentials", func(t *testing.T) {
		code := do(func(_ *http.Request) {})
		assert.Equal(t, http.StatusUnauthorized, code)
	})
}
