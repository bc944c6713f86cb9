package v1

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchtrack/git-ptk/internal/types"
)

func TestListPatches(t *testing.T) {
	h := testHandler(t)

	t.Run("AllInIDOrder", func(t *testing.T) {
		rec := request(t, h.ListPatches, http.MethodGet, "/api/1.2/patches/", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var patches []types.Patch
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &patches))
		require.Len(t, patches, 3)
		assert.Equal(t, 101, patches[0].ID)
		assert.Equal(t, 103, patches[2].ID)
		assert.Empty(t, rec.Header().Get("Link"), "a single page has no next link")
	})

	t.Run("PaginationEmitsNextLink", func(t *testing.T) {
		rec := request(t, h.ListPatches, http.MethodGet, "/api/1.2/patches/?per_page=2", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var patches []types.Patch
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &patches))
		require.Len(t, patches, 2)

		link := rec.Header().Get("Link")
		assert.Contains(t, link, `rel="next"`)
		assert.Contains(t, link, "page=2")
	})

	t.Run("LastPageHasNoLink", func(t *testing.T) {
		rec := request(t,
			h.ListPatches, http.MethodGet, "/api/1.2/patches/?per_page=2&page=2", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var patches []types.Patch
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &patches))
		require.Len(t, patches, 1)
		assert.Equal(t, 103, patches[0].ID)
		assert.Empty(t, rec.Header().Get("Link"))
	})

	t.Run("StateFilter", func(t *testing.T) {
		rec := request(t,
			h.ListPatches, http.MethodGet, "/api/1.2/patches/?state=accepted", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var patches []types.Patch
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &patches))
		require.Len(t, patches, 1)
		assert.Equal(t, 101, patches[0].ID)
	})

	t.Run("BadNumericFilter", func(t *testing.T) {
		rec := request(t,
			h.ListPatches, http.MethodGet, "/api/1.2/patches/?submitter=dana", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("BadTimeFilter", func(t *testing.T) {
		rec := request(t,
			h.ListPatches, http.MethodGet, "/api/1.2/patches/?since=yesterday", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetPatch(t *testing.T) {
	h := testHandler(t)

	t.Run("Found", func(t *testing.T) {
		rec := request(t, h.GetPatch, http.MethodGet, "/api/1.2/patches/101/", nil,
			map[string]string{"id": "101"})
		require.Equal(t, http.StatusOK, rec.Code)

		var patch types.Patch
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &patch))
		assert.Equal(t, "one", patch.Name)
		assert.NotEmpty(t, patch.Hash, "served patches carry a content hash")
		require.Len(t, patch.Series, 1)
		assert.Equal(t, 301, patch.Series[0].ID)
	})

	t.Run("Missing", func(t *testing.T) {
		rec := request(t, h.GetPatch, http.MethodGet, "/api/1.2/patches/999/", nil,
			map[string]string{"id": "999"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("NonNumericID", func(t *testing.T) {
		rec := request(t, h.GetPatch, http.MethodGet, "/api/1.2/patches/abc/", nil,
			map[string]string{"id": "abc"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUpdatePatch(t *testing.T) {
	h := testHandler(t)

	t.Run("StateAndDelegate", func(t *testing.T) {
		body := formBody(map[string][]string{
			"state":    {"superseded"},
			"delegate": {"20"},
		})
		rec := request(t, h.UpdatePatch, http.MethodPatch, "/api/1.2/patches/102/", body,
			map[string]string{"id": "102"})
		require.Equal(t, http.StatusOK, rec.Code)

		var patch types.Patch
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &patch))
		assert.Equal(t, "superseded", patch.State)
		require.NotNil(t, patch.Delegate)
		assert.Equal(t, "maintainer", patch.Delegate.Username)
	})

	t.Run("UnknownDelegate", func(t *testing.T) {
		body := formBody(map[string][]string{"delegate": {"999"}})
		rec := request(t, h.UpdatePatch, http.MethodPatch, "/api/1.2/patches/102/", body,
			map[string]string{"id": "102"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("MissingPatch", func(t *testing.T) {
		body := formBody(map[string][]string{"state": {"new"}})
		rec := request(t, h.UpdatePatch, http.MethodPatch, "/api/1.2/patches/999/", body,
			map[string]string{"id": "999"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListChecks(t *testing.T) {
	h := testHandler(t)

	t.Run("EmptyButPresent", func(t *testing.T) {
		rec := request(t, h.ListChecks, http.MethodGet, "/api/1.2/patches/101/checks/", nil,
			map[string]string{"id": "101"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("MissingPatch", func(t *testing.T) {
		rec := request(t, h.ListChecks, http.MethodGet, "/api/1.2/patches/999/checks/", nil,
			map[string]string{"id": "999"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetSeries(t *testing.T) {
	h := testHandler(t)

	rec := request(t, h.GetSeries, http.MethodGet, "/api/1.2/series/301/", nil,
		map[string]string{"id": "301"})
	require.Equal(t, http.StatusOK, rec.Code)

	var series types.Series
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))
	require.Len(t, series.Patches, 2)
	assert.Equal(t, 101, series.Patches[0].ID, "member order is fixture order")
	assert.True(t, series.ReceivedAll)
}
