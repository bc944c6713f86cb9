package types_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchtrack/git-ptk/internal/types"
)

func TestEventTime(t *testing.T) {
	t.Run("ParsesServerFormat", func(t *testing.T) {
		var ts types.EventTime
		err := json.Unmarshal([]byte(`"2026-03-01T12:30:45"`), &ts)
		require.NoError(t, err, "should parse a bare server timestamp")
		assert.Equal(t, time.Date(2026, 3, 1, 12, 30, 45, 0, time.UTC), ts.Time)
	})

	t.Run("ParsesRFC3339", func(t *testing.T) {
		var ts types.EventTime
		err := json.Unmarshal([]byte(`"2026-03-01T12:30:45+02:00"`), &ts)
		require.NoError(t, err, "should parse an offset timestamp")
		assert.Equal(t, time.Date(2026, 3, 1, 10, 30, 45, 0, time.UTC), ts.Time)
	})

	t.Run("NullIsZero", func(t *testing.T) {
		var ts types.EventTime
		err := json.Unmarshal([]byte(`null`), &ts)
		require.NoError(t, err)
		assert.True(t, ts.IsZero(), "null should decode to the zero time")
	})

	t.Run("RejectsGarbage", func(t *testing.T) {
		var ts types.EventTime
		err := json.Unmarshal([]byte(`"yesterday"`), &ts)
		require.Error(t, err, "should reject non timestamp input")
	})
}

func TestPatchRetainsRawPayload(t *testing.T) {
	payload := []byte(`{"id": 7, "name": "mm: fix overflow", "state": "under-review", "tags": {"Reviewed-by": 2}}`)

	var patch types.Patch
	require.NoError(t, json.Unmarshal(payload, &patch))

	assert.Equal(t, 7, patch.ID)
	assert.Equal(t, "under-review", patch.State)
	assert.JSONEq(
		t,
		string(payload),
		string(patch.Raw),
		"unmodeled fields should survive on the raw payload",
	)
}

func TestErrorTaxonomy(t *testing.T) {
	t.Run("TransportErrorUnwraps", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := types.TransportErrorWrap("GET", "https://pt.example.com/api/patches/", cause)

		var te *types.TransportError
		require.ErrorAs(t, err, &te)
		assert.ErrorIs(t, err, cause, "wrapped cause should stay reachable")
		assert.Contains(t, te.Error(), "connection refused")
	})

	t.Run("IncompleteSeriesReportsProgress", func(t *testing.T) {
		err := fmt.Errorf(
			"resolving: %w",
			&types.IncompleteSeriesError{SeriesID: 31, Received: 2, Total: 5},
		)

		var ise *types.IncompleteSeriesError
		require.ErrorAs(t, err, &ise)
		assert.Equal(t, "series 31 is incomplete (2 of 5 patches received)", ise.Error())
	})

	t.Run("InvalidFilterNamesAlternatives", func(t *testing.T) {
		err := &types.InvalidFilterError{
			Resource: "patches",
			Field:    "stste",
			Allowed:  []string{"state", "submitter"},
		}
		assert.Contains(t, err.Error(), `"stste"`)
		assert.Contains(t, err.Error(), "state, submitter")
	})
}
