package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/patchtrack/git-ptk/internal/transport"
	"github.com/patchtrack/git-ptk/internal/types"
)

var tracer = otel.Tracer("github.com/patchtrack/git-ptk/internal/client")

// Client exposes the server's resource collections. Listings are lazy and
// paginated behind Iter; detail lookups are single requests.
type Client struct {
	transport *transport.Transport
	project   string
	lookahead int
}

type Option func(*Client)

// WithPageLookahead keeps up to n pages in flight ahead of the consumer on
// listings. Latency optimization only; delivery order is unchanged.
func WithPageLookahead(n int) Option {
	return func(c *Client) {
		c.lookahead = n
	}
}

// New builds a client scoped to project. An empty slug or "*" disables
// project scoping on listings.
func New(t *transport.Transport, project string, opts ...Option) *Client {
	c := &Client{
		transport: t,
		project:   project,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIVersion is the server API version the client talks to.
func (c *Client) APIVersion() (int, int) {
	return c.transport.APIVersion()
}

func (c *Client) ListPatches(ctx context.Context, f *Filters) (*Iter[types.Patch], error) {
	return listResource[types.Patch](ctx, c, "patches", "patches", f)
}

func (c *Client) ListSeries(ctx context.Context, f *Filters) (*Iter[types.Series], error) {
	return listResource[types.Series](ctx, c, "series", "series", f)
}

func (c *Client) ListBundles(ctx context.Context, f *Filters) (*Iter[types.Bundle], error) {
	return listResource[types.Bundle](ctx, c, "bundles", "bundles", f)
}

func (c *Client) ListPeople(ctx context.Context, f *Filters) (*Iter[types.Person], error) {
	return listResource[types.Person](ctx, c, "people", "people", f)
}

func (c *Client) ListUsers(ctx context.Context, f *Filters) (*Iter[types.User], error) {
	return listResource[types.User](ctx, c, "users", "users", f)
}

func (c *Client) ListChecks(
	ctx context.Context,
	patchID int,
	f *Filters,
) (*Iter[types.Check], error) {
	path := fmt.Sprintf("patches/%d/checks", patchID)
	return listResource[types.Check](ctx, c, "checks", path, f)
}

func (c *Client) GetPatch(ctx context.Context, id int) (*types.Patch, error) {
	return getResource[types.Patch](ctx, c, "Client.GetPatch", fmt.Sprintf("patches/%d", id))
}

func (c *Client) GetSeries(ctx context.Context, id int) (*types.Series, error) {
	return getResource[types.Series](ctx, c, "Client.GetSeries", fmt.Sprintf("series/%d", id))
}

func (c *Client) GetBundle(ctx context.Context, id int) (*types.Bundle, error) {
	return getResource[types.Bundle](ctx, c, "Client.GetBundle", fmt.Sprintf("bundles/%d", id))
}

func (c *Client) GetProject(ctx context.Context, slug string) (*types.Project, error) {
	return getResource[types.Project](
		ctx,
		c,
		"Client.GetProject",
		fmt.Sprintf("projects/%s", url.PathEscape(slug)),
	)
}

// UpdatePatch sends a partial mutation. Undefined fields are left alone
// server-side.
func (c *Client) UpdatePatch(
	ctx context.Context,
	id int,
	update types.PatchUpdate,
) (*types.Patch, error) {
	form := url.Values{}
	setFormValue(form, "state", update.State, renderString)
	setFormValue(form, "archived", update.Archived, renderBool)
	setFormValue(form, "delegate", update.Delegate, renderInt)
	setFormValue(form, "commit_ref", update.CommitRef, renderString)

	return mutateResource[types.Patch](
		ctx,
		c,
		"Client.UpdatePatch",
		http.MethodPatch,
		fmt.Sprintf("patches/%d", id),
		form,
	)
}

func (c *Client) CreateBundle(
	ctx context.Context,
	name string,
	patchIDs []int,
	public bool,
) (*types.Bundle, error) {
	form := url.Values{}
	form.Set("name", name)
	for _, id := range patchIDs {
		form.Add("patches", strconv.Itoa(id))
	}
	if public {
		form.Set("public", "true")
	}

	return mutateResource[types.Bundle](
		ctx,
		c,
		"Client.CreateBundle",
		http.MethodPost,
		"bundles",
		form,
	)
}

func (c *Client) UpdateBundle(
	ctx context.Context,
	id int,
	update types.BundleUpdate,
) (*types.Bundle, error) {
	form := url.Values{}
	setFormValue(form, "name", update.Name, renderString)
	setFormValue(form, "public", update.Public, renderBool)
	if update.Patches.Defined && update.Patches.Value != nil {
		for _, patchID := range *update.Patches.Value {
			form.Add("patches", strconv.Itoa(patchID))
		}
	}

	return mutateResource[types.Bundle](
		ctx,
		c,
		"Client.UpdateBundle",
		http.MethodPatch,
		fmt.Sprintf("bundles/%d", id),
		form,
	)
}

func (c *Client) DeleteBundle(ctx context.Context, id int) error {
	ctx, span := tracer.Start(ctx, "Client.DeleteBundle", trace.WithAttributes(
		attribute.Int("id", id),
	))
	defer span.End()

	_, err := c.transport.Do(ctx, http.MethodDelete, fmt.Sprintf("bundles/%d", id), nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete bundle")
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "deleted bundle")
	return nil
}

// AddToBundle grows the membership. The server takes whole membership
// lists, so this reads then writes; last writer wins on concurrent edits.
func (c *Client) AddToBundle(ctx context.Context, id int, patchIDs []int) (*types.Bundle, error) {
	bundle, err := c.GetBundle(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := bundle.PatchIDs()
	for _, candidate := range patchIDs {
		present := false
		for _, existing := range merged {
			if existing == candidate {
				present = true
				break
			}
		}
		if !present {
			merged = append(merged, candidate)
		}
	}

	return c.UpdateBundle(ctx, id, types.BundleUpdate{
		Patches: types.NewFromVal(merged),
	})
}

// RemoveFromBundle shrinks the membership with the same read then write
// cycle as AddToBundle.
func (c *Client) RemoveFromBundle(
	ctx context.Context,
	id int,
	patchIDs []int,
) (*types.Bundle, error) {
	bundle, err := c.GetBundle(ctx, id)
	if err != nil {
		return nil, err
	}

	kept := []int{}
	for _, existing := range bundle.PatchIDs() {
		drop := false
		for _, candidate := range patchIDs {
			if existing == candidate {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, existing)
		}
	}

	return c.UpdateBundle(ctx, id, types.BundleUpdate{
		Patches: types.NewFromVal(kept),
	})
}

// Download opens an authenticated stream of a content URL, such as a mbox
// link. The second return is the server-suggested filename.
func (c *Client) Download(ctx context.Context, rawURL string) (io.ReadCloser, string, error) {
	return c.transport.Stream(ctx, rawURL)
}

func listResource[T any](
	ctx context.Context,
	c *Client,
	resource string,
	path string,
	f *Filters,
) (*Iter[T], error) {
	if f == nil {
		f = NewFilters()
	}

	major, minor := c.transport.APIVersion()
	if err := f.validate(ctx, resource, major, minor); err != nil {
		return nil, err
	}

	query := f.values()
	if c.project != "" && c.project != "*" && query.Get("project") == "" {
		if supportsFilter(resource, "project") {
			query.Set("project", c.project)
		}
	}

	fetch := func(ctx context.Context, ref string) (*page[T], error) {
		ctx, span := tracer.Start(ctx, "Client.ListPage", trace.WithAttributes(
			attribute.String("resource", resource),
		))
		defer span.End()

		var resp *transport.Response
		var err error
		if ref == "" {
			resp, err = c.transport.Do(ctx, http.MethodGet, path, query, nil)
		} else {
			resp, err = c.transport.Do(ctx, http.MethodGet, ref, nil, nil)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch page")
			return nil, err
		}

		var items []T
		if err := json.Unmarshal(resp.Body, &items); err != nil {
			err = fmt.Errorf("failed to decode %s page: %w", resource, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to decode page")
			return nil, err
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "fetched page")
		return &page[T]{
			items: items,
			next:  parseNextLink(resp.Header.Get("Link")),
		}, nil
	}

	return newIter(fetch, c.lookahead), nil
}

func getResource[T any](ctx context.Context, c *Client, spanName, path string) (*T, error) {
	ctx, span := tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("path", path),
	))
	defer span.End()

	resp, err := c.transport.Do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch resource")
		return nil, err
	}

	var decoded T
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		err = fmt.Errorf("failed to decode %s: %w", path, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode resource")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "fetched resource")
	return &decoded, nil
}

func mutateResource[T any](
	ctx context.Context,
	c *Client,
	spanName string,
	method string,
	path string,
	form url.Values,
) (*T, error) {
	ctx, span := tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("path", path),
	))
	defer span.End()

	resp, err := c.transport.Do(ctx, method, path, nil, form)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mutation rejected")
		return nil, err
	}

	var decoded T
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		err = fmt.Errorf("failed to decode %s: %w", path, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode mutation response")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "mutated resource")
	return &decoded, nil
}

func supportsFilter(resource, field string) bool {
	for _, candidate := range allowedFilters[resource] {
		if candidate == field {
			return true
		}
	}

	return false
}

func setFormValue[T any](
	form url.Values,
	key string,
	o types.Optional[T],
	render func(*T) string,
) {
	if !o.Defined {
		return
	}

	form.Set(key, render(o.Value))
}

func renderString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func renderBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

func renderInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
