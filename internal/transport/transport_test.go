package transport_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchtrack/git-ptk/internal/transport"
	"github.com/patchtrack/git-ptk/internal/types"
)

func newClient() *http.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.Logger = nil
	return client.StandardClient()
}

func TestNew(t *testing.T) {
	t.Run("AppendsAPISuffix", func(t *testing.T) {
		tr, err := transport.New(newClient(), transport.Config{
			Server: "https://pt.example.com",
		})
		require.NoError(t, err)

		major, minor := tr.APIVersion()
		assert.Equal(t, 1, major)
		assert.Equal(t, 0, minor)
	})

	t.Run("ParsesPinnedVersion", func(t *testing.T) {
		tr, err := transport.New(newClient(), transport.Config{
			Server: "https://pt.example.com/api/1.2",
		})
		require.NoError(t, err)

		major, minor := tr.APIVersion()
		assert.Equal(t, 1, major)
		assert.Equal(t, 2, minor)
	})

	t.Run("RejectsNonHTTPSchemes", func(t *testing.T) {
		_, err := transport.New(newClient(), transport.Config{Server: "ftp://pt.example.com"})
		require.Error(t, err, "expected scheme rejection")
	})

	t.Run("RejectsEmptyServer", func(t *testing.T) {
		_, err := transport.New(newClient(), transport.Config{})
		require.Error(t, err, "expected unconfigured server rejection")
	})
}

func TestDo(t *testing.T) {
	ctx := context.Background()

	var sawAuth string
	e := echo.New()
	e.GET("/api/patches/", func(c echo.Context) error {
		sawAuth = c.Request().Header.Get("Authorization")
		return c.JSON(http.StatusOK, []map[string]any{{"id": 1}})
	})
	e.GET("/api/patches/999/", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, types.StringError("Not found."))
	})
	e.GET("/api/bundles/", func(c echo.Context) error {
		return c.JSON(http.StatusUnauthorized, types.StringError("Invalid token."))
	})
	e.GET("/api/series/", func(c echo.Context) error {
		return c.JSON(http.StatusInternalServerError, types.StringError("database on fire"))
	})
	e.POST("/api/bundles/", func(c echo.Context) error {
		name := c.FormValue("name")
		return c.JSON(http.StatusCreated, map[string]any{"id": 7, "name": name})
	})

	server := httptest.NewServer(e)
	defer server.Close()

	t.Run("TokenAuthHeader", func(t *testing.T) {
		tr, err := transport.New(newClient(), transport.Config{
			Server: server.URL,
			Token:  "sekrit",
			// Token outranks basic credentials when both are set.
			Username: "alice",
			Password: "hunter2",
		})
		require.NoError(t, err)

		resp, err := tr.Do(ctx, http.MethodGet, "patches", nil, nil)
		require.NoError(t, err, "failed to list")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Token sekrit", sawAuth, "token scheme should win")
	})

	t.Run("BasicAuthFallback", func(t *testing.T) {
		tr, err := transport.New(newClient(), transport.Config{
			Server:   server.URL,
			Username: "alice",
			Password: "hunter2",
		})
		require.NoError(t, err)

		_, err = tr.Do(ctx, http.MethodGet, "patches", nil, nil)
		require.NoError(t, err, "failed to list")
		assert.Contains(t, sawAuth, "Basic ", "expected basic credentials")
	})

	t.Run("NoCredentialsNoHeader", func(t *testing.T) {
		tr, err := transport.New(newClient(), transport.Config{Server: server.URL})
		require.NoError(t, err)

		_, err = tr.Do(ctx, http.MethodGet, "patches", nil, nil)
		require.NoError(t, err, "failed to list")
		assert.Empty(t, sawAuth, "anonymous requests must not carry credentials")
	})

	t.Run("NotFound", func(t *testing.T) {
		tr, err := transport.New(newClient(), transport.Config{Server: server.URL})
		require.NoError(t, err)

		_, err = tr.Do(ctx, http.MethodGet, "patches/999", nil, nil)

		var nfe *types.NotFoundError
		require.ErrorAs(t, err, &nfe, "404 should map to NotFoundError")
		assert.Equal(t, "patches", nfe.Resource)
		assert.Equal(t, "999", nfe.ID)
	})

	t.Run("AuthRejection", func(t *testing.T) {
		tr, err := transport.New(newClient(), transport.Config{
			Server: server.URL,
			Token:  "expired",
		})
		require.NoError(t, err)

		_, err = tr.Do(ctx, http.MethodGet, "bundles", nil, nil)

		var ae *types.AuthError
		require.ErrorAs(t, err, &ae, "401 should map to AuthError")
		assert.Equal(t, http.StatusUnauthorized, ae.StatusCode)
		assert.Contains(t, ae.Message, "Invalid token")
	})

	t.Run("ServerErrorCarriesDetail", func(t *testing.T) {
		tr, err := transport.New(newClient(), transport.Config{Server: server.URL})
		require.NoError(t, err)

		_, err = tr.Do(ctx, http.MethodGet, "series", nil, nil)

		var te *types.TransportError
		require.ErrorAs(t, err, &te, "5xx should map to TransportError")
		assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
		assert.Contains(t, te.Message, "database on fire")
	})

	t.Run("ConnectionFailure", func(t *testing.T) {
		tr, err := transport.New(newClient(), transport.Config{
			Server: "http://127.0.0.1:1",
		})
		require.NoError(t, err)

		_, err = tr.Do(ctx, http.MethodGet, "patches", nil, nil)

		var te *types.TransportError
		require.ErrorAs(t, err, &te, "network failure should map to TransportError")
		assert.Zero(t, te.StatusCode, "no HTTP status on connection failures")
	})

	t.Run("FormBody", func(t *testing.T) {
		tr, err := transport.New(newClient(), transport.Config{Server: server.URL})
		require.NoError(t, err)

		form := url.Values{"name": {"odd fixes"}}
		resp, err := tr.Do(ctx, http.MethodPost, "bundles", nil, form)
		require.NoError(t, err, "failed to create")
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Contains(t, string(resp.Body), "odd fixes")
	})
}

func TestStream(t *testing.T) {
	ctx := context.Background()

	mbox := "From nobody Mon Sep 17 00:00:00 2001\nSubject: [PATCH] mm: fix\n\n---\n"
	e := echo.New()
	e.GET("/api/patches/42/mbox/", func(c echo.Context) error {
		c.Response().
			Header().
			Set(echo.HeaderContentDisposition, `attachment; filename="42-mm-fix.mbox"`)
		return c.String(http.StatusOK, mbox)
	})

	server := httptest.NewServer(e)
	defer server.Close()

	tr, err := transport.New(newClient(), transport.Config{Server: server.URL})
	require.NoError(t, err)

	t.Run("BodyAndFilename", func(t *testing.T) {
		body, filename, err := tr.Stream(
			ctx,
			fmt.Sprintf("%s/api/patches/42/mbox/", server.URL),
		)
		require.NoError(t, err, "failed to stream")
		defer body.Close()

		content, err := io.ReadAll(body)
		require.NoError(t, err, "failed to read stream")
		assert.Equal(t, mbox, string(content))
		assert.Equal(t, "42-mm-fix.mbox", filename)
	})

	t.Run("MissingContent", func(t *testing.T) {
		_, _, err := tr.Stream(
			ctx,
			fmt.Sprintf("%s/api/patches/43/mbox/", server.URL),
		)
		require.Error(t, err, "expected missing content to fail")
	})
}
