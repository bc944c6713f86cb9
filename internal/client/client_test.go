package client_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchtrack/git-ptk/internal/client"
	"github.com/patchtrack/git-ptk/internal/transport"
	"github.com/patchtrack/git-ptk/internal/types"
)

func newTransport(t *testing.T, server string) *transport.Transport {
	t.Helper()

	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 0
	httpClient.Logger = nil

	tr, err := transport.New(httpClient.StandardClient(), transport.Config{Server: server})
	require.NoError(t, err, "failed to build transport")
	return tr
}

// pagedPatches serves count patches in pages of perPage with Link headers.
func pagedPatches(requests *atomic.Int32, count, perPage int) *echo.Echo {
	e := echo.New()
	e.GET("/api/patches/", func(c echo.Context) error {
		requests.Add(1)

		pageNum := 1
		if raw := c.QueryParam("page"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "bad page")
			}
			pageNum = parsed
		}

		start := (pageNum - 1) * perPage
		items := []map[string]any{}
		for i := start; i < start+perPage && i < count; i++ {
			items = append(items, map[string]any{
				"id":   i + 1,
				"name": fmt.Sprintf("patch %d", i+1),
			})
		}

		if start+perPage < count {
			next := fmt.Sprintf(
				"http://%s/api/patches/?page=%d",
				c.Request().Host,
				pageNum+1,
			)
			c.Response().Header().Set("Link", fmt.Sprintf(`<%s>; rel="next"`, next))
		}

		return c.JSON(http.StatusOK, items)
	})

	return e
}

func collectIDs(ctx context.Context, t *testing.T, it *client.Iter[types.Patch]) []int {
	t.Helper()

	ids := []int{}
	for it.Next(ctx) {
		ids = append(ids, it.Record().ID)
	}
	require.NoError(t, it.Err(), "iteration failed")
	return ids
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()

	t.Run("WalksAllPagesInOrder", func(t *testing.T) {
		var requests atomic.Int32
		server := httptest.NewServer(pagedPatches(&requests, 5, 2))
		defer server.Close()

		c := client.New(newTransport(t, server.URL), "")
		it, err := c.ListPatches(ctx, nil)
		require.NoError(t, err)

		assert.Equal(t, int32(0), requests.Load(), "no request before first Next")

		ids := collectIDs(ctx, t, it)
		assert.Equal(t, []int{1, 2, 3, 4, 5}, ids, "order must match the server")
		assert.Equal(t, int32(3), requests.Load(), "one request per page")
	})

	t.Run("PageFetchedOnDemand", func(t *testing.T) {
		var requests atomic.Int32
		server := httptest.NewServer(pagedPatches(&requests, 5, 2))
		defer server.Close()

		c := client.New(newTransport(t, server.URL), "")
		it, err := c.ListPatches(ctx, nil)
		require.NoError(t, err)

		require.True(t, it.Next(ctx))
		require.True(t, it.Next(ctx))
		assert.Equal(t, int32(1), requests.Load(), "page two should not be fetched yet")

		require.True(t, it.Next(ctx))
		assert.Equal(t, int32(2), requests.Load(), "crossing the boundary fetches one page")
	})

	t.Run("NotRestartable", func(t *testing.T) {
		var requests atomic.Int32
		server := httptest.NewServer(pagedPatches(&requests, 2, 2))
		defer server.Close()

		c := client.New(newTransport(t, server.URL), "")
		it, err := c.ListPatches(ctx, nil)
		require.NoError(t, err)

		_ = collectIDs(ctx, t, it)
		assert.False(t, it.Next(ctx), "an exhausted iterator stays exhausted")
	})

	t.Run("NextTargetMayContainCommas", func(t *testing.T) {
		// Patchwork-style servers echo multi-value filters back into the
		// next link without encoding the commas, alongside other rels.
		e := echo.New()
		e.GET("/api/patches/", func(c echo.Context) error {
			if c.QueryParam("page") == "2" {
				require.Equal(t, "1,2", c.QueryParam("submitter"),
					"filter must survive the link round-trip")
				return c.JSON(http.StatusOK, []map[string]any{{"id": 2, "name": "second"}})
			}

			base := fmt.Sprintf("http://%s/api/patches/?submitter=1,2", c.Request().Host)
			c.Response().Header().Set("Link", fmt.Sprintf(
				`<%s&page=1>; rel="prev", <%s&page=2>; rel="next"`, base, base,
			))
			return c.JSON(http.StatusOK, []map[string]any{{"id": 1, "name": "first"}})
		})
		server := httptest.NewServer(e)
		defer server.Close()

		c := client.New(newTransport(t, server.URL), "")
		it, err := c.ListPatches(ctx, nil)
		require.NoError(t, err)

		ids := collectIDs(ctx, t, it)
		assert.Equal(t, []int{1, 2}, ids, "both pages must be walked")
	})

	t.Run("EmptyCollection", func(t *testing.T) {
		var requests atomic.Int32
		server := httptest.NewServer(pagedPatches(&requests, 0, 2))
		defer server.Close()

		c := client.New(newTransport(t, server.URL), "")
		it, err := c.ListPatches(ctx, nil)
		require.NoError(t, err)

		assert.Empty(t, collectIDs(ctx, t, it))
	})

	t.Run("LookaheadDeliversSameSequence", func(t *testing.T) {
		var requests atomic.Int32
		server := httptest.NewServer(pagedPatches(&requests, 7, 2))
		defer server.Close()

		c := client.New(newTransport(t, server.URL), "", client.WithPageLookahead(2))
		it, err := c.ListPatches(ctx, nil)
		require.NoError(t, err)
		defer it.Stop()

		ids := collectIDs(ctx, t, it)
		assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, ids, "look-ahead must not reorder")
	})

	t.Run("ErrorSurfacesThroughErr", func(t *testing.T) {
		e := echo.New()
		e.GET("/api/patches/", func(c echo.Context) error {
			return c.JSON(http.StatusInternalServerError, types.StringError("boom"))
		})
		server := httptest.NewServer(e)
		defer server.Close()

		c := client.New(newTransport(t, server.URL), "")
		it, err := c.ListPatches(ctx, nil)
		require.NoError(t, err, "listing itself does not hit the network")

		assert.False(t, it.Next(ctx))

		var te *types.TransportError
		require.ErrorAs(t, it.Err(), &te, "page failure should surface on Err")
	})
}

func TestFilterValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("UnknownFieldRejectedBeforeNetwork", func(t *testing.T) {
		var requests atomic.Int32
		server := httptest.NewServer(pagedPatches(&requests, 2, 2))
		defer server.Close()

		c := client.New(newTransport(t, server.URL), "")
		_, err := c.ListPatches(ctx, client.NewFilters().Set("stae", "new"))

		var ife *types.InvalidFilterError
		require.ErrorAs(t, err, &ife, "unknown filter should be InvalidFilterError")
		assert.Equal(t, "stae", ife.Field)
		assert.Equal(t, int32(0), requests.Load(), "validation must not issue requests")
	})

	t.Run("RepeatedKeysAllowed", func(t *testing.T) {
		var sawStates []string
		e := echo.New()
		e.GET("/api/patches/", func(c echo.Context) error {
			sawStates = c.QueryParams()["state"]
			return c.JSON(http.StatusOK, []map[string]any{})
		})
		server := httptest.NewServer(e)
		defer server.Close()

		c := client.New(newTransport(t, server.URL), "")
		f := client.NewFilters().Add("state", "new").Add("state", "under-review")
		it, err := c.ListPatches(ctx, f)
		require.NoError(t, err)

		_ = collectIDs(ctx, t, it)
		assert.Equal(t, []string{"new", "under-review"}, sawStates, "both values should be sent")
	})
}

func TestProjectScoping(t *testing.T) {
	ctx := context.Background()

	newProjectRecorder := func(sawProject *string) *httptest.Server {
		e := echo.New()
		e.GET("/api/patches/", func(c echo.Context) error {
			*sawProject = c.QueryParam("project")
			return c.JSON(http.StatusOK, []map[string]any{})
		})
		return httptest.NewServer(e)
	}

	t.Run("ConfiguredProjectInjected", func(t *testing.T) {
		var sawProject string
		server := newProjectRecorder(&sawProject)
		defer server.Close()

		c := client.New(newTransport(t, server.URL), "ptk-core")
		it, err := c.ListPatches(ctx, nil)
		require.NoError(t, err)

		_ = collectIDs(ctx, t, it)
		assert.Equal(t, "ptk-core", sawProject)
	})

	t.Run("WildcardDisablesScoping", func(t *testing.T) {
		var sawProject string
		server := newProjectRecorder(&sawProject)
		defer server.Close()

		c := client.New(newTransport(t, server.URL), "*")
		it, err := c.ListPatches(ctx, nil)
		require.NoError(t, err)

		_ = collectIDs(ctx, t, it)
		assert.Empty(t, sawProject, "wildcard project must not scope")
	})

	t.Run("ExplicitFilterWins", func(t *testing.T) {
		var sawProject string
		server := newProjectRecorder(&sawProject)
		defer server.Close()

		c := client.New(newTransport(t, server.URL), "ptk-core")
		it, err := c.ListPatches(ctx, client.NewFilters().Set("project", "other"))
		require.NoError(t, err)

		_ = collectIDs(ctx, t, it)
		assert.Equal(t, "other", sawProject)
	})
}

func TestGetPatch(t *testing.T) {
	ctx := context.Background()

	e := echo.New()
	e.GET("/api/patches/37/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"id":    37,
			"name":  "ptk: avoid double close",
			"state": "accepted",
			"hash":  "0d8c0accf8f9e15ec1de5d5a7e3478c4c287cdef9e1a9f681a3e1a9f681a3e1f",
		})
	})
	e.GET("/api/patches/38/", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, types.StringError("Not found."))
	})

	server := httptest.NewServer(e)
	defer server.Close()

	c := client.New(newTransport(t, server.URL), "")

	t.Run("DecodesDetail", func(t *testing.T) {
		patch, err := c.GetPatch(ctx, 37)
		require.NoError(t, err, "failed to get patch")
		assert.Equal(t, 37, patch.ID)
		assert.Equal(t, "accepted", patch.State)
		assert.NotEmpty(t, patch.Raw, "raw payload should be retained")
	})

	t.Run("MissingIsNotFound", func(t *testing.T) {
		_, err := c.GetPatch(ctx, 38)

		var nfe *types.NotFoundError
		require.ErrorAs(t, err, &nfe)
		assert.Equal(t, "patches", nfe.Resource)
	})
}

func TestBundleMutations(t *testing.T) {
	ctx := context.Background()

	// Minimal stateful bundle so add/remove can run their read then write
	// cycle against something real.
	membership := []int{10, 11}
	e := echo.New()
	e.GET("/api/bundles/3/", func(c echo.Context) error {
		patches := []map[string]any{}
		for _, id := range membership {
			patches = append(patches, map[string]any{"id": id})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"id":      3,
			"name":    "odd fixes",
			"patches": patches,
		})
	})
	e.PATCH("/api/bundles/3/", func(c echo.Context) error {
		params, err := c.FormParams()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "bad form")
		}

		membership = []int{}
		for _, raw := range params["patches"] {
			id, err := strconv.Atoi(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "bad patch id")
			}
			membership = append(membership, id)
		}

		patches := []map[string]any{}
		for _, id := range membership {
			patches = append(patches, map[string]any{"id": id})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"id":      3,
			"name":    "odd fixes",
			"patches": patches,
		})
	})

	server := httptest.NewServer(e)
	defer server.Close()

	c := client.New(newTransport(t, server.URL), "")

	t.Run("AddMergesWithoutDuplicates", func(t *testing.T) {
		bundle, err := c.AddToBundle(ctx, 3, []int{11, 12})
		require.NoError(t, err, "failed to add")
		assert.Equal(t, []int{10, 11, 12}, bundle.PatchIDs())
	})

	t.Run("RemoveDropsListed", func(t *testing.T) {
		bundle, err := c.RemoveFromBundle(ctx, 3, []int{10})
		require.NoError(t, err, "failed to remove")
		assert.Equal(t, []int{11, 12}, bundle.PatchIDs())
	})
}
