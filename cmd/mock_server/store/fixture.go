package store

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/patchtrack/git-ptk/internal/hash"
	"github.com/patchtrack/git-ptk/internal/types"
	"github.com/patchtrack/git-ptk/internal/validator"
)

// The fixture file is the whole server state. Cross references go by ID;
// member order in the series and bundle patch lists is the order the
// server reports, which clients apply in.
type fixture struct {
	Project projectFixture  `yaml:"project"`
	People  []personFixture `yaml:"people"`
	Users   []userFixture   `yaml:"users"`
	Series  []seriesFixture `yaml:"series"`
	Patches []patchFixture  `yaml:"patches"`
	Bundles []bundleFixture `yaml:"bundles"`
}

type projectFixture struct {
	ID       int    `yaml:"id"`
	Name     string `yaml:"name"`
	LinkName string `yaml:"link_name"`
	ListID   string `yaml:"list_id"`
	SCMURL   string `yaml:"scm_url"`
}

type personFixture struct {
	ID    int    `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

type userFixture struct {
	ID        int    `yaml:"id"`
	Username  string `yaml:"username"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Email     string `yaml:"email"`
}

type seriesFixture struct {
	ID        int    `yaml:"id"`
	Name      string `yaml:"name"`
	Version   int    `yaml:"version"`
	Date      string `yaml:"date"`
	Submitter int    `yaml:"submitter"`
	// Total above the number of member patches marks the series
	// incomplete, the way a dropped mail does on the real server.
	Total int `yaml:"total"`
}

type patchFixture struct {
	ID        int            `yaml:"id"`
	Name      string         `yaml:"name"`
	State     string         `yaml:"state"`
	Archived  bool           `yaml:"archived"`
	MsgID     string         `yaml:"msgid"`
	Date      string         `yaml:"date"`
	Submitter int            `yaml:"submitter"`
	Delegate  int            `yaml:"delegate"`
	CommitRef string         `yaml:"commit_ref"`
	Series    int            `yaml:"series"`
	Mbox      string         `yaml:"mbox"`
	Diff      string         `yaml:"diff"`
	Checks    []checkFixture `yaml:"checks"`
	// Hash overrides the digest of the mbox bytes. Fixtures use it to
	// stage hash-mismatch scenarios; normally it stays empty.
	Hash string `yaml:"hash"`
}

type checkFixture struct {
	ID          int    `yaml:"id"`
	State       string `yaml:"state"`
	Context     string `yaml:"context"`
	User        int    `yaml:"user"`
	Date        string `yaml:"date"`
	TargetURL   string `yaml:"target_url"`
	Description string `yaml:"description"`
}

type bundleFixture struct {
	ID      int    `yaml:"id"`
	Name    string `yaml:"name"`
	Owner   int    `yaml:"owner"`
	Public  bool   `yaml:"public"`
	Patches []int  `yaml:"patches"`
}

// Load seeds a store from a fixture file. baseURL is the address clients
// reach this server under; every URL on the served records points back at
// it.
func Load(path, baseURL string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	var fix fixture
	if err := yaml.UnmarshalStrict(raw, &fix); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}

	return build(&fix, strings.TrimRight(baseURL, "/"))
}

func build(fix *fixture, baseURL string) (*Store, error) {
	s := &Store{
		baseURL:      baseURL,
		people:       map[int]types.Person{},
		users:        map[int]types.User{},
		patches:      map[int]*types.Patch{},
		series:       map[int]*types.Series{},
		bundles:      map[int]*types.Bundle{},
		checks:       map[int][]types.Check{},
		mboxes:       map[int][]byte{},
		nextBundleID: 1,
	}

	s.project = types.Project{
		ID:       fix.Project.ID,
		URL:      fmt.Sprintf("%s/api/1.2/projects/%s/", baseURL, fix.Project.LinkName),
		Name:     fix.Project.Name,
		LinkName: fix.Project.LinkName,
		ListID:   fix.Project.ListID,
		SCMURL:   fix.Project.SCMURL,
	}
	if s.project.LinkName == "" {
		return nil, fmt.Errorf("fixture project needs a link_name")
	}

	for _, p := range fix.People {
		s.people[p.ID] = types.Person{
			ID:    p.ID,
			URL:   fmt.Sprintf("%s/api/1.2/people/%d/", baseURL, p.ID),
			Name:  p.Name,
			Email: p.Email,
		}
	}
	for _, u := range fix.Users {
		s.users[u.ID] = types.User{
			ID:        u.ID,
			URL:       fmt.Sprintf("%s/api/1.2/users/%d/", baseURL, u.ID),
			Username:  u.Username,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
		}
	}

	for _, sf := range fix.Series {
		date, err := parseFixtureTime(sf.Date)
		if err != nil {
			return nil, fmt.Errorf("series %d: %w", sf.ID, err)
		}
		submitter, ok := s.people[sf.Submitter]
		if !ok {
			return nil, fmt.Errorf("series %d: unknown submitter %d", sf.ID, sf.Submitter)
		}

		version := sf.Version
		if version == 0 {
			version = 1
		}

		s.series[sf.ID] = &types.Series{
			ID:        sf.ID,
			URL:       fmt.Sprintf("%s/api/1.2/series/%d/", baseURL, sf.ID),
			WebURL:    fmt.Sprintf("%s/series/%d/", baseURL, sf.ID),
			Project:   s.project,
			Date:      types.EventTime{Time: date},
			Name:      sf.Name,
			Version:   version,
			Total:     sf.Total,
			Submitter: submitter,
			MboxURL:   fmt.Sprintf("%s/series/%d/mbox/", baseURL, sf.ID),
		}
	}

	for _, pf := range fix.Patches {
		patch, err := s.buildPatch(&pf)
		if err != nil {
			return nil, err
		}
		s.patches[pf.ID] = patch

		if pf.Series != 0 {
			series, ok := s.series[pf.Series]
			if !ok {
				return nil, fmt.Errorf("patch %d: unknown series %d", pf.ID, pf.Series)
			}
			// Fixture file order within a series is application order.
			series.Patches = append(series.Patches, patch.Ref())
			patch.Series = []types.SeriesRef{{
				ID:      series.ID,
				URL:     series.URL,
				WebURL:  series.WebURL,
				Date:    series.Date,
				Name:    series.Name,
				Version: series.Version,
				MboxURL: series.MboxURL,
			}}
		}
	}

	for _, series := range s.series {
		series.Received = len(series.Patches)
		if series.Total < series.Received {
			series.Total = series.Received
		}
		series.ReceivedAll = series.Received == series.Total
	}

	for _, bf := range fix.Bundles {
		owner, ok := s.users[bf.Owner]
		if !ok {
			return nil, fmt.Errorf("bundle %d: unknown owner %d", bf.ID, bf.Owner)
		}
		refs, err := s.patchRefs(bf.Patches)
		if err != nil {
			return nil, fmt.Errorf("bundle %d: %w", bf.ID, err)
		}

		s.bundles[bf.ID] = &types.Bundle{
			ID:      bf.ID,
			URL:     fmt.Sprintf("%s/api/1.2/bundles/%d/", baseURL, bf.ID),
			WebURL:  fmt.Sprintf("%s/bundle/%d/", baseURL, bf.ID),
			Project: s.project,
			Name:    bf.Name,
			Owner:   owner,
			Public:  bf.Public,
			MboxURL: fmt.Sprintf("%s/bundle/%d/mbox/", baseURL, bf.ID),
			Patches: refs,
		}
		if bf.ID >= s.nextBundleID {
			s.nextBundleID = bf.ID + 1
		}
	}

	return s, nil
}

func (s *Store) buildPatch(pf *patchFixture) (*types.Patch, error) {
	date, err := parseFixtureTime(pf.Date)
	if err != nil {
		return nil, fmt.Errorf("patch %d: %w", pf.ID, err)
	}
	submitter, ok := s.people[pf.Submitter]
	if !ok {
		return nil, fmt.Errorf("patch %d: unknown submitter %d", pf.ID, pf.Submitter)
	}

	var delegate *types.User
	if pf.Delegate != 0 {
		user, known := s.users[pf.Delegate]
		if !known {
			return nil, fmt.Errorf("patch %d: unknown delegate %d", pf.ID, pf.Delegate)
		}
		delegate = &user
	}

	mbox := []byte(pf.Mbox)
	if len(mbox) == 0 {
		return nil, fmt.Errorf("patch %d: fixture has no mbox content", pf.ID)
	}
	if !validator.ValidateMboxSize(len(mbox)) {
		return nil, fmt.Errorf("patch %d: mbox content exceeds the size limit", pf.ID)
	}
	s.mboxes[pf.ID] = mbox

	contentHash := pf.Hash
	if contentHash == "" {
		contentHash = hash.Buffer(mbox)
	} else if !validator.ValidateContentHash(contentHash) {
		return nil, fmt.Errorf("patch %d: hash override is not a SHA-256 digest", pf.ID)
	}

	state := pf.State
	if state == "" {
		state = "new"
	}

	checks, err := s.buildChecks(pf)
	if err != nil {
		return nil, err
	}
	s.checks[pf.ID] = checks

	return &types.Patch{
		ID:        pf.ID,
		URL:       fmt.Sprintf("%s/api/1.2/patches/%d/", s.baseURL, pf.ID),
		WebURL:    fmt.Sprintf("%s/patch/%d/", s.baseURL, pf.ID),
		Project:   s.project,
		MsgID:     pf.MsgID,
		Date:      types.EventTime{Time: date},
		Name:      pf.Name,
		CommitRef: pf.CommitRef,
		State:     state,
		Archived:  pf.Archived,
		Hash:      contentHash,
		Submitter: submitter,
		Delegate:  delegate,
		MboxURL:   fmt.Sprintf("%s/patch/%d/mbox/", s.baseURL, pf.ID),
		Diff:      pf.Diff,
	}, nil
}

func (s *Store) buildChecks(pf *patchFixture) ([]types.Check, error) {
	checks := make([]types.Check, 0, len(pf.Checks))
	for _, cf := range pf.Checks {
		state, err := types.CheckStateFromString(cf.State)
		if err != nil {
			return nil, fmt.Errorf("patch %d check %d: %w", pf.ID, cf.ID, err)
		}
		date, err := parseFixtureTime(cf.Date)
		if err != nil {
			return nil, fmt.Errorf("patch %d check %d: %w", pf.ID, cf.ID, err)
		}
		user, ok := s.users[cf.User]
		if !ok {
			return nil, fmt.Errorf("patch %d check %d: unknown user %d", pf.ID, cf.ID, cf.User)
		}

		checks = append(checks, types.Check{
			ID:          cf.ID,
			URL:         fmt.Sprintf("%s/api/1.2/patches/%d/checks/%d/", s.baseURL, pf.ID, cf.ID),
			Date:        types.EventTime{Time: date},
			User:        user,
			State:       *state,
			TargetURL:   cf.TargetURL,
			Context:     cf.Context,
			Description: cf.Description,
		})
	}

	return checks, nil
}

// parseFixtureTime takes the server wire format or RFC 3339. An empty value
// pins a fixed time so listings stay deterministic.
func parseFixtureTime(value string) (time.Time, error) {
	if value == "" {
		return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), nil
	}

	if ts, err := time.Parse("2006-01-02T15:04:05", value); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("time %q is not a server timestamp or RFC 3339", value)
	}

	return ts.UTC(), nil
}
