package selector

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/patchtrack/git-ptk/internal/client"
	"github.com/patchtrack/git-ptk/internal/logger"
	"github.com/patchtrack/git-ptk/internal/types"
)

var tracer = otel.Tracer("github.com/patchtrack/git-ptk/internal/selector")

// Name searches hit the server's q parameter; shorter needles match half
// the directory.
const minSearchLength = 3

// Filter narrows patches by server-side fields. Submitter and Delegate
// take a numeric ID or a name fragment resolved through the directory.
type Filter struct {
	States    []string
	Submitter string
	Delegate  string
	Since     time.Time
	Before    time.Time
}

// Criteria names the patches to act on. Exactly one of PatchIDs, SeriesID,
// Bundle or Filter must be set.
type Criteria struct {
	PatchIDs []int

	SeriesID int
	// SeriesVersion pins a specific revision of the series. Zero resolves
	// to the newest one.
	SeriesVersion int
	// AllowIncomplete lets a series through even while the server has not
	// received all of its members.
	AllowIncomplete bool

	// Bundle is a numeric ID or a bundle name unique within the project.
	Bundle string

	Filter *Filter
}

// Selection is an ordered set of fully resolved patches. Dependent is true
// when the order encodes a dependency chain, which it does for series.
type Selection struct {
	Patches   []types.Patch
	Dependent bool
}

// Selector turns criteria into the ordered patches an apply run consumes.
type Selector struct {
	client *client.Client
}

func New(c *client.Client) *Selector {
	return &Selector{client: c}
}

// Resolve fetches and orders the patches criteria names. Member order comes
// verbatim from the server; nothing is re-sorted here.
func (s *Selector) Resolve(ctx context.Context, criteria Criteria) (*Selection, error) {
	ctx, span := tracer.Start(ctx, "Selector.Resolve")
	defer span.End()

	modes := 0
	if len(criteria.PatchIDs) > 0 {
		modes++
	}
	if criteria.SeriesID != 0 {
		modes++
	}
	if criteria.Bundle != "" {
		modes++
	}
	if criteria.Filter != nil {
		modes++
	}
	if modes != 1 {
		err := fmt.Errorf(
			"exactly one of patch IDs, a series, a bundle or a filter must be given, got %d",
			modes,
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "ambiguous criteria")
		return nil, err
	}

	var selection *Selection
	var err error
	switch {
	case len(criteria.PatchIDs) > 0:
		span.SetAttributes(attribute.String("mode", "patches"))
		selection, err = s.resolvePatches(ctx, criteria.PatchIDs)
	case criteria.SeriesID != 0:
		span.SetAttributes(attribute.String("mode", "series"))
		selection, err = s.resolveSeries(ctx, criteria)
	case criteria.Bundle != "":
		span.SetAttributes(attribute.String("mode", "bundle"))
		selection, err = s.resolveBundle(ctx, criteria.Bundle)
	default:
		span.SetAttributes(attribute.String("mode", "filter"))
		selection, err = s.resolveFilter(ctx, criteria.Filter)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve criteria")
		return nil, err
	}

	span.SetAttributes(attribute.Int("patches", len(selection.Patches)))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "resolved criteria")
	return selection, nil
}

func (s *Selector) resolvePatches(ctx context.Context, ids []int) (*Selection, error) {
	patches, err := s.fetchMembers(ctx, ids)
	if err != nil {
		return nil, err
	}

	return &Selection{Patches: patches}, nil
}

func (s *Selector) resolveSeries(ctx context.Context, criteria Criteria) (*Selection, error) {
	series, err := s.client.GetSeries(ctx, criteria.SeriesID)
	if err != nil {
		return nil, err
	}

	series, err = s.pickVersion(ctx, series, criteria.SeriesVersion)
	if err != nil {
		return nil, err
	}

	if !series.ReceivedAll && !criteria.AllowIncomplete {
		return nil, &types.IncompleteSeriesError{
			SeriesID: series.ID,
			Received: series.Received,
			Total:    series.Total,
		}
	}

	ids := make([]int, 0, len(series.Patches))
	for _, ref := range series.Patches {
		ids = append(ids, ref.ID)
	}

	patches, err := s.fetchMembers(ctx, ids)
	if err != nil {
		return nil, err
	}

	return &Selection{Patches: patches, Dependent: true}, nil
}

// pickVersion resolves which revision of a series is actionable. Without a
// pin that is the newest revision the submitter posted under the same name,
// which may not be the one the ID pointed at.
func (s *Selector) pickVersion(
	ctx context.Context,
	series *types.Series,
	version int,
) (*types.Series, error) {
	if version == series.Version {
		return series, nil
	}
	if series.Submitter.ID == 0 {
		// Cannot enumerate revisions without a submitter to query by.
		if version != 0 {
			return nil, fmt.Errorf(
				"series %d is version %d and its revisions cannot be searched",
				series.ID, series.Version,
			)
		}
		return series, nil
	}

	revisions, err := s.seriesRevisions(ctx, series)
	if err != nil {
		return nil, err
	}

	if version != 0 {
		for i := range revisions {
			if revisions[i].Version == version {
				return &revisions[i], nil
			}
		}
		return nil, fmt.Errorf("series %q has no version %d", series.Name, version)
	}

	newest := series
	for i := range revisions {
		if revisions[i].Version > newest.Version {
			newest = &revisions[i]
		}
	}
	if newest.ID != series.ID {
		logger.Logger.WarnContext(ctx, "series is superseded, resolving to the newest revision",
			"requested", series.ID,
			"requestedVersion", series.Version,
			"resolved", newest.ID,
			"resolvedVersion", newest.Version,
		)
	}

	return newest, nil
}

// seriesRevisions lists the same-named series posted by the same submitter.
func (s *Selector) seriesRevisions(
	ctx context.Context,
	series *types.Series,
) ([]types.Series, error) {
	filters := client.NewFilters().
		Set("submitter", strconv.Itoa(series.Submitter.ID))
	it, err := s.client.ListSeries(ctx, filters)
	if err != nil {
		return nil, err
	}

	var revisions []types.Series
	for it.Next(ctx) {
		candidate := it.Record()
		if candidate.Name == series.Name {
			revisions = append(revisions, candidate)
		}
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("failed to enumerate series revisions: %w", err)
	}

	return revisions, nil
}

func (s *Selector) resolveBundle(ctx context.Context, ref string) (*Selection, error) {
	bundle, err := s.Bundle(ctx, ref)
	if err != nil {
		return nil, err
	}

	patches, err := s.fetchMembers(ctx, bundle.PatchIDs())
	if err != nil {
		return nil, err
	}

	return &Selection{Patches: patches}, nil
}

// Bundle resolves a bundle reference, a numeric ID or a name unique within
// the project.
func (s *Selector) Bundle(ctx context.Context, ref string) (*types.Bundle, error) {
	if id, err := strconv.Atoi(ref); err == nil {
		return s.client.GetBundle(ctx, id)
	}

	return s.bundleByName(ctx, ref)
}

func (s *Selector) bundleByName(ctx context.Context, name string) (*types.Bundle, error) {
	it, err := s.client.ListBundles(ctx, client.NewFilters().Set("q", name))
	if err != nil {
		return nil, err
	}

	var matches []types.Bundle
	for it.Next(ctx) {
		candidate := it.Record()
		if candidate.Name == name {
			matches = append(matches, candidate)
		}
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("failed to search bundles: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, &types.NotFoundError{Resource: "bundles", ID: name}
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("bundle name %q matches %d bundles, use a numeric ID", name, len(matches))
	}
}

func (s *Selector) resolveFilter(ctx context.Context, filter *Filter) (*Selection, error) {
	filters := client.NewFilters()
	for _, state := range filter.States {
		filters.Add("state", state)
	}
	if filter.Submitter != "" {
		id, err := s.PersonID(ctx, filter.Submitter)
		if err != nil {
			return nil, err
		}
		filters.Set("submitter", strconv.Itoa(id))
	}
	if filter.Delegate != "" {
		id, err := s.UserID(ctx, filter.Delegate)
		if err != nil {
			return nil, err
		}
		filters.Set("delegate", strconv.Itoa(id))
	}
	if !filter.Since.IsZero() {
		filters.Since(filter.Since)
	}
	if !filter.Before.IsZero() {
		filters.Before(filter.Before)
	}

	it, err := s.client.ListPatches(ctx, filters)
	if err != nil {
		return nil, err
	}

	var patches []types.Patch
	for it.Next(ctx) {
		patches = append(patches, it.Record())
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("failed to list patches: %w", err)
	}

	return &Selection{Patches: patches}, nil
}

// PersonID resolves a submitter reference, numeric or by directory search.
// A name fragment must match exactly one person.
func (s *Selector) PersonID(ctx context.Context, ref string) (int, error) {
	if id, err := strconv.Atoi(ref); err == nil {
		return id, nil
	}
	if len(ref) < minSearchLength {
		return 0, fmt.Errorf("name search %q needs at least %d characters", ref, minSearchLength)
	}

	it, err := s.client.ListPeople(ctx, client.NewFilters().Set("q", ref))
	if err != nil {
		return 0, err
	}

	var matches []types.Person
	for it.Next(ctx) {
		matches = append(matches, it.Record())
	}
	if err := it.Err(); err != nil {
		return 0, fmt.Errorf("failed to search people: %w", err)
	}

	switch len(matches) {
	case 0:
		return 0, &types.NotFoundError{Resource: "people", ID: ref}
	case 1:
		return matches[0].ID, nil
	default:
		return 0, fmt.Errorf("%q matches %d people, use a numeric ID", ref, len(matches))
	}
}

// UserID resolves a delegate reference the same way PersonID does.
func (s *Selector) UserID(ctx context.Context, ref string) (int, error) {
	if id, err := strconv.Atoi(ref); err == nil {
		return id, nil
	}
	if len(ref) < minSearchLength {
		return 0, fmt.Errorf("name search %q needs at least %d characters", ref, minSearchLength)
	}

	it, err := s.client.ListUsers(ctx, client.NewFilters().Set("q", ref))
	if err != nil {
		return 0, err
	}

	var matches []types.User
	for it.Next(ctx) {
		matches = append(matches, it.Record())
	}
	if err := it.Err(); err != nil {
		return 0, fmt.Errorf("failed to search users: %w", err)
	}

	switch len(matches) {
	case 0:
		return 0, &types.NotFoundError{Resource: "users", ID: ref}
	case 1:
		return matches[0].ID, nil
	default:
		return 0, fmt.Errorf("%q matches %d users, use a numeric ID", ref, len(matches))
	}
}

// fetchMembers turns IDs into full patch records, one detail call each, in
// the given order.
func (s *Selector) fetchMembers(ctx context.Context, ids []int) ([]types.Patch, error) {
	patches := make([]types.Patch, 0, len(ids))
	for _, id := range ids {
		patch, err := s.client.GetPatch(ctx, id)
		if err != nil {
			return nil, err
		}
		patches = append(patches, *patch)
	}

	return patches, nil
}
