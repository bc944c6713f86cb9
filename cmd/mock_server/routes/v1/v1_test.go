package v1

import (
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/patchtrack/git-ptk/cmd/mock_server/store"
	"github.com/patchtrack/git-ptk/internal/validator"
)

const testFixture = `
project:
  id: 1
  name: Example
  link_name: example
people:
  - id: 10
    name: Dana Developer
    email: dana@example.org
users:
  - id: 20
    username: maintainer
    email: mo@example.org
series:
  - id: 301
    name: a pair
    date: "2026-02-10T09:00:00"
    submitter: 10
patches:
  - id: 101
    name: "one"
    state: accepted
    date: "2026-02-10T09:00:01"
    submitter: 10
    series: 301
    mbox: "From a\n\none\n"
  - id: 102
    name: "two"
    date: "2026-02-10T09:00:02"
    submitter: 10
    series: 301
    mbox: "From b\n\ntwo\n"
  - id: 103
    name: "three"
    date: "2026-02-11T09:00:00"
    submitter: 10
    mbox: "From c\n\nthree\n"
bundles:
  - id: 401
    name: backports
    owner: 20
    patches: [103]
`

func testHandler(t *testing.T) *Handler {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testFixture), 0o600))

	s, err := store.Load(path, "http://mock.test")
	require.NoError(t, err, "fixture should load")

	return New(s)
}

// request drives one handler through a fresh echo context and returns the
// recorded response.
func request(
	t *testing.T,
	handler echo.HandlerFunc,
	method, target string,
	body io.Reader,
	params map[string]string,
) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	validate := validator.Create()
	e.Validator = &validate

	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	rec := httptest.NewRecorder()

	c := e.NewContext(req, rec)
	for name, value := range params {
		c.SetParamNames(name)
		c.SetParamValues(value)
	}

	err := handler(c)
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}

	return rec
}

func formBody(values map[string][]string) io.Reader {
	pairs := []string{}
	for key, vals := range values {
		for _, val := range vals {
			pairs = append(pairs, key+"="+val)
		}
	}

	return strings.NewReader(strings.Join(pairs, "&"))
}
