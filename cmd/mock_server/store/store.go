// Package store holds the mock server's in-memory state. One fixture file
// seeds it at startup; bundle mutations change it for the lifetime of the
// process and nothing is persisted.
package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/patchtrack/git-ptk/internal/types"
)

type Store struct {
	mu sync.RWMutex

	baseURL string

	project types.Project
	people  map[int]types.Person
	users   map[int]types.User
	patches map[int]*types.Patch
	series  map[int]*types.Series
	bundles map[int]*types.Bundle
	checks  map[int][]types.Check
	// mboxes keyed by patch ID, the raw message bytes served on the
	// content routes. Hashes on the patch records digest these.
	mboxes map[int][]byte

	nextBundleID int
}

// PatchFilter is the server-side half of the patch listing query. Zero
// values mean unconstrained.
type PatchFilter struct {
	Project   string
	States    []string
	Submitter int
	Delegate  int
	SeriesID  int
	Archived  *bool
	Hash      string
	MsgID     string
	Since     time.Time
	Before    time.Time
	Search    string
}

func (s *Store) Project(slug string) (types.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if slug != s.project.LinkName {
		return types.Project{}, false
	}

	return s.project, true
}

func (s *Store) Patch(id int) (types.Patch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	patch, ok := s.patches[id]
	if !ok {
		return types.Patch{}, false
	}

	return *patch, true
}

// Patches returns matching records ordered by order, default ascending ID.
// Order values mirror the real server: a field name, - prefix for
// descending.
func (s *Store) Patches(filter PatchFilter, order string) []types.Patch {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []types.Patch{}
	for _, patch := range s.patches {
		if s.matches(patch, filter) {
			matched = append(matched, *patch)
		}
	}

	sortPatches(matched, order)
	return matched
}

func (s *Store) matches(patch *types.Patch, filter PatchFilter) bool {
	if filter.Project != "" && patch.Project.LinkName != filter.Project {
		return false
	}
	if len(filter.States) > 0 {
		found := false
		for _, state := range filter.States {
			if patch.State == state {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Submitter != 0 && patch.Submitter.ID != filter.Submitter {
		return false
	}
	if filter.Delegate != 0 && (patch.Delegate == nil || patch.Delegate.ID != filter.Delegate) {
		return false
	}
	if filter.SeriesID != 0 {
		found := false
		for _, ref := range patch.Series {
			if ref.ID == filter.SeriesID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Archived != nil && patch.Archived != *filter.Archived {
		return false
	}
	if filter.Hash != "" && patch.Hash != filter.Hash {
		return false
	}
	if filter.MsgID != "" && patch.MsgID != filter.MsgID {
		return false
	}
	if !filter.Since.IsZero() && patch.Date.Before(filter.Since) {
		return false
	}
	if !filter.Before.IsZero() && !patch.Date.Before(filter.Before) {
		return false
	}
	if filter.Search != "" &&
		!strings.Contains(strings.ToLower(patch.Name), strings.ToLower(filter.Search)) {
		return false
	}

	return true
}

func sortPatches(patches []types.Patch, order string) {
	field := strings.TrimPrefix(order, "-")
	descending := strings.HasPrefix(order, "-")

	sort.SliceStable(patches, func(i, j int) bool {
		var less bool
		switch field {
		case "date":
			less = patches[i].Date.Before(patches[j].Date.Time)
		case "name":
			less = patches[i].Name < patches[j].Name
		default:
			less = patches[i].ID < patches[j].ID
		}
		if descending {
			return !less
		}
		return less
	})
}

// PatchChanges is a partial mutation. Nil fields stay untouched.
type PatchChanges struct {
	State     *string
	Archived  *bool
	Delegate  *int
	CommitRef *string
}

// ErrUnknownReference rejects mutations that point at records the fixture
// does not contain.
type ErrUnknownReference struct {
	Resource string
	ID       int
}

func (e *ErrUnknownReference) Error() string {
	return fmt.Sprintf("unknown %s %d", e.Resource, e.ID)
}

func (s *Store) UpdatePatch(id int, changes PatchChanges) (types.Patch, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	patch, ok := s.patches[id]
	if !ok {
		return types.Patch{}, false, nil
	}

	if changes.Delegate != nil {
		user, known := s.users[*changes.Delegate]
		if !known {
			return types.Patch{}, true, &ErrUnknownReference{Resource: "user", ID: *changes.Delegate}
		}
		patch.Delegate = &user
	}
	if changes.State != nil {
		patch.State = *changes.State
	}
	if changes.Archived != nil {
		patch.Archived = *changes.Archived
	}
	if changes.CommitRef != nil {
		patch.CommitRef = *changes.CommitRef
	}

	return *patch, true, nil
}

func (s *Store) Checks(patchID int) ([]types.Check, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.patches[patchID]; !ok {
		return nil, false
	}

	return append([]types.Check(nil), s.checks[patchID]...), true
}

func (s *Store) Series(id int) (types.Series, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series, ok := s.series[id]
	if !ok {
		return types.Series{}, false
	}

	return *series, true
}

func (s *Store) AllSeries(project, search string) []types.Series {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []types.Series{}
	for _, series := range s.series {
		if project != "" && series.Project.LinkName != project {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(series.Name), strings.ToLower(search)) {
			continue
		}
		matched = append(matched, *series)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched
}

func (s *Store) Bundle(id int) (types.Bundle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bundle, ok := s.bundles[id]
	if !ok {
		return types.Bundle{}, false
	}

	return *bundle, true
}

func (s *Store) Bundles(project, search string) []types.Bundle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []types.Bundle{}
	for _, bundle := range s.bundles {
		if project != "" && bundle.Project.LinkName != project {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(bundle.Name), strings.ToLower(search)) {
			continue
		}
		matched = append(matched, *bundle)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched
}

func (s *Store) CreateBundle(name string, patchIDs []int, public bool) (types.Bundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	refs, err := s.patchRefs(patchIDs)
	if err != nil {
		return types.Bundle{}, err
	}

	id := s.nextBundleID
	s.nextBundleID++

	owner := types.User{}
	for _, user := range s.users {
		if owner.ID == 0 || user.ID < owner.ID {
			owner = user
		}
	}

	bundle := &types.Bundle{
		ID:      id,
		URL:     fmt.Sprintf("%s/api/1.2/bundles/%d/", s.baseURL, id),
		WebURL:  fmt.Sprintf("%s/bundle/%d/", s.baseURL, id),
		Project: s.project,
		Name:    name,
		Owner:   owner,
		Public:  public,
		MboxURL: fmt.Sprintf("%s/bundle/%d/mbox/", s.baseURL, id),
		Patches: refs,
	}
	s.bundles[id] = bundle

	return *bundle, nil
}

// BundleChanges is a partial mutation. A non-nil Patches replaces the
// membership outright.
type BundleChanges struct {
	Name    *string
	Public  *bool
	Patches *[]int
}

func (s *Store) UpdateBundle(id int, changes BundleChanges) (types.Bundle, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bundle, ok := s.bundles[id]
	if !ok {
		return types.Bundle{}, false, nil
	}

	if changes.Patches != nil {
		refs, err := s.patchRefs(*changes.Patches)
		if err != nil {
			return types.Bundle{}, true, err
		}
		bundle.Patches = refs
	}
	if changes.Name != nil {
		bundle.Name = *changes.Name
	}
	if changes.Public != nil {
		bundle.Public = *changes.Public
	}

	return *bundle, true, nil
}

func (s *Store) DeleteBundle(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bundles[id]; !ok {
		return false
	}

	delete(s.bundles, id)
	return true
}

func (s *Store) patchRefs(ids []int) ([]types.PatchRef, error) {
	refs := make([]types.PatchRef, 0, len(ids))
	for _, id := range ids {
		patch, ok := s.patches[id]
		if !ok {
			return nil, &ErrUnknownReference{Resource: "patch", ID: id}
		}
		refs = append(refs, patch.Ref())
	}

	return refs, nil
}

func (s *Store) People(search string) []types.Person {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []types.Person{}
	for _, person := range s.people {
		if search != "" && !personMatches(person, search) {
			continue
		}
		matched = append(matched, person)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched
}

func personMatches(person types.Person, search string) bool {
	search = strings.ToLower(search)
	return strings.Contains(strings.ToLower(person.Name), search) ||
		strings.Contains(strings.ToLower(person.Email), search)
}

func (s *Store) Users(search string) []types.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []types.User{}
	for _, user := range s.users {
		if search != "" && !userMatches(user, search) {
			continue
		}
		matched = append(matched, user)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched
}

func userMatches(user types.User, search string) bool {
	search = strings.ToLower(search)
	return strings.Contains(strings.ToLower(user.Username), search) ||
		strings.Contains(strings.ToLower(user.Email), search)
}

// Mbox hands out the raw message for one patch plus the download filename.
func (s *Store) Mbox(patchID int) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content, ok := s.mboxes[patchID]
	if !ok {
		return nil, "", false
	}

	patch := s.patches[patchID]
	return append([]byte(nil), content...), mboxFilename(patch.ID, patch.Name), true
}

// SeriesMbox concatenates the member messages in series order.
func (s *Store) SeriesMbox(id int) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series, ok := s.series[id]
	if !ok {
		return nil, "", false
	}

	var merged []byte
	for _, ref := range series.Patches {
		merged = append(merged, s.mboxes[ref.ID]...)
	}

	return merged, mboxFilename(series.ID, series.Name), true
}

// BundleMbox concatenates the member messages in bundle order.
func (s *Store) BundleMbox(id int) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bundle, ok := s.bundles[id]
	if !ok {
		return nil, "", false
	}

	var merged []byte
	for _, ref := range bundle.Patches {
		merged = append(merged, s.mboxes[ref.ID]...)
	}

	return merged, mboxFilename(bundle.ID, bundle.Name), true
}

func mboxFilename(id int, name string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, name)

	return fmt.Sprintf("%d-%s.mbox", id, strings.Trim(slug, "-"))
}
