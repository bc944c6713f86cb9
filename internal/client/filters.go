package client

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/patchtrack/git-ptk/internal/logger"
	"github.com/patchtrack/git-ptk/internal/types"
)

// Server-supported query fields per resource. Validation happens here so a
// typoed field fails before any request goes out instead of being silently
// ignored server-side.
var allowedFilters = map[string][]string{
	"patches": {
		"project", "series", "submitter", "delegate", "state", "archived",
		"hash", "msgid", "since", "before", "order", "page", "per_page", "q",
	},
	"series": {
		"project", "submitter", "since", "before", "order", "page",
		"per_page", "q",
	},
	"bundles": {
		"project", "owner", "public", "order", "page", "per_page", "q",
	},
	"checks": {
		"user", "state", "context", "order", "page", "per_page",
	},
	"people":   {"order", "page", "per_page", "q"},
	"users":    {"order", "page", "per_page", "q"},
	"projects": {"order", "page", "per_page", "q"},
}

type filterPair struct {
	key   string
	value string
}

// Filters is an ordered set of query constraints. Repeated keys are OR
// semantics server-side.
type Filters struct {
	pairs []filterPair
}

func NewFilters() *Filters {
	return &Filters{}
}

// Set replaces any existing values for key.
func (f *Filters) Set(key, value string) *Filters {
	kept := f.pairs[:0]
	for _, pair := range f.pairs {
		if pair.key != key {
			kept = append(kept, pair)
		}
	}
	f.pairs = append(kept, filterPair{key: key, value: value})

	return f
}

// Add appends a value for key, keeping earlier ones.
func (f *Filters) Add(key, value string) *Filters {
	f.pairs = append(f.pairs, filterPair{key: key, value: value})
	return f
}

func (f *Filters) Since(ts time.Time) *Filters {
	return f.Set("since", ts.UTC().Format(time.RFC3339))
}

func (f *Filters) Before(ts time.Time) *Filters {
	return f.Set("before", ts.UTC().Format(time.RFC3339))
}

func (f *Filters) Page(n int) *Filters {
	return f.Set("page", strconv.Itoa(n))
}

func (f *Filters) PerPage(n int) *Filters {
	return f.Set("per_page", strconv.Itoa(n))
}

func (f *Filters) Order(field string) *Filters {
	return f.Set("order", field)
}

func (f *Filters) has(key string) bool {
	for _, pair := range f.pairs {
		if pair.key == key {
			return true
		}
	}

	return false
}

func (f *Filters) values() url.Values {
	values := url.Values{}
	for _, pair := range f.pairs {
		values.Add(pair.key, pair.value)
	}

	return values
}

// validate rejects unknown fields for the resource. Servers below API 1.1
// only honor the last value of a repeated key, so multi-value filters get a
// warning there instead of silently narrowing.
func (f *Filters) validate(ctx context.Context, resource string, major, minor int) error {
	allowed, ok := allowedFilters[resource]
	if !ok {
		return &types.InvalidFilterError{Resource: resource, Field: "", Allowed: nil}
	}

	seen := map[string]int{}
	for _, pair := range f.pairs {
		found := false
		for _, candidate := range allowed {
			if pair.key == candidate {
				found = true
				break
			}
		}
		if !found {
			return &types.InvalidFilterError{
				Resource: resource,
				Field:    pair.key,
				Allowed:  allowed,
			}
		}

		seen[pair.key]++
	}

	if major == 1 && minor < 1 {
		for key, count := range seen {
			if count > 1 {
				logger.Logger.WarnContext(ctx, "multiple values for a filter "+
					"are only supported from API 1.1; the server will use the last one",
					"filter", key,
					"count", count,
				)
			}
		}
	}

	return nil
}
