package fetch_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchtrack/git-ptk/internal/fetch"
	"github.com/patchtrack/git-ptk/internal/transport"
)

func TestTransportFetcher(t *testing.T) {
	ctx := context.Background()

	mboxContent := "From nobody Mon Sep 17 00:00:00 2001\nSubject: [PATCH] ptk: fix\n"
	var sawAuth string
	e := echo.New()
	e.GET("/api/patches/12/mbox/", func(c echo.Context) error {
		sawAuth = c.Request().Header.Get("Authorization")
		return c.String(http.StatusOK, mboxContent)
	})

	server := httptest.NewServer(e)
	defer server.Close()

	newFetcher := func(token string) *fetch.TransportFetcher {
		httpClient := retryablehttp.NewClient()
		httpClient.RetryMax = 0
		httpClient.Logger = nil

		tr, err := transport.New(httpClient.StandardClient(), transport.Config{
			Server: server.URL,
			Token:  token,
		})
		require.NoError(t, err, "failed to build transport")
		return fetch.NewTransportFetcher(tr)
	}

	t.Run("ValidPath", func(t *testing.T) {
		fetcher := newFetcher("sekrit")
		body, err := fetcher.Fetch(ctx, fmt.Sprintf("%s/api/patches/12/mbox/", server.URL))
		require.NoError(t, err, "failed to fetch")
		defer body.Close()

		actual, err := io.ReadAll(body)
		require.NoError(t, err, "failed to read content")

		assert.Equal(t, mboxContent, string(actual), "wrong body fetched")
		assert.Equal(t, "Token sekrit", sawAuth, "content fetches must carry credentials")
	})

	t.Run("InvalidPath", func(t *testing.T) {
		fetcher := newFetcher("")
		_, err := fetcher.Fetch(ctx, fmt.Sprintf("%s/api/patches/13/mbox/", server.URL))
		require.Error(t, err, "expected to fail")
	})
}
