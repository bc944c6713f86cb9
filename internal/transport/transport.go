package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/patchtrack/git-ptk/internal/logger"
	"github.com/patchtrack/git-ptk/internal/types"
)

var tracer = otel.Tracer("github.com/patchtrack/git-ptk/internal/transport")

// Accepts ".../api" and ".../api/<major>.<minor>" server URLs. Anything else
// gets "/api" appended.
var (
	apiSuffix      = regexp.MustCompile(`/api(/(\d+)\.(\d+))?$`)
	versionSegment = regexp.MustCompile(`^\d+\.\d+$`)
)

// Config is the connection half of the settings. Credentials are attached
// per request and never logged.
type Config struct {
	Server    string
	Token     string
	Username  string
	Password  string
	UserAgent string
}

// Response is a fully buffered API response.
type Response struct {
	Header     http.Header
	Body       []byte
	StatusCode int
}

// Transport owns URL construction, authentication and status mapping for
// one server. It never retries; retry policy belongs to the http.Client the
// caller hands in.
type Transport struct {
	client *http.Client
	base   *url.URL
	cfg    Config
	major  int
	minor  int
}

func New(client *http.Client, cfg Config) (*Transport, error) {
	if cfg.Server == "" {
		return nil, fmt.Errorf("server URL is not configured")
	}

	base, err := url.Parse(strings.TrimRight(cfg.Server, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse server URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("server URL %q is not http or https", cfg.Server)
	}

	major, minor := 1, 0
	match := apiSuffix.FindStringSubmatch(base.Path)
	switch {
	case match == nil:
		base.Path += "/api"
	case match[2] != "":
		major, _ = strconv.Atoi(match[2])
		minor, _ = strconv.Atoi(match[3])
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = "git-ptk"
	}

	return &Transport{
		client: client,
		base:   base,
		cfg:    cfg,
		major:  major,
		minor:  minor,
	}, nil
}

// APIVersion is the version pinned in the server URL, 1.0 when unpinned.
func (t *Transport) APIVersion() (int, int) {
	return t.major, t.minor
}

// Do performs one API request. path is either a resource path relative to
// the API root or an absolute URL such as a pagination link. form, when non
// nil, is sent urlencoded.
func (t *Transport) Do(
	ctx context.Context,
	method string,
	path string,
	query url.Values,
	form url.Values,
) (*Response, error) {
	target, err := t.resolve(path, query)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "Transport.Do", trace.WithAttributes(
		attribute.String("method", method),
		attribute.String("url", target),
	))
	defer span.End()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to construct request")
		return nil, types.TransportErrorWrap(method, target, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", t.cfg.UserAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	t.authenticate(req)

	resp, err := t.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, types.TransportErrorWrap(method, target, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read response body")
		return nil, types.TransportErrorWrap(method, target, err)
	}

	logger.Logger.DebugContext(ctx, "api request",
		"method", method,
		"url", target,
		"status", resp.StatusCode,
	)

	if err := t.checkStatus(method, target, path, resp.StatusCode, payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "server rejected request")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "request succeeded")
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       payload,
	}, nil
}

// Stream performs an authenticated GET of an absolute URL and hands the
// body back unbuffered. The second return is the server-suggested filename
// from Content-Disposition, empty when absent.
func (t *Transport) Stream(ctx context.Context, rawURL string) (io.ReadCloser, string, error) {
	ctx, span := tracer.Start(ctx, "Transport.Stream", trace.WithAttributes(
		attribute.String("url", rawURL),
	))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to construct request")
		return nil, "", types.TransportErrorWrap(http.MethodGet, rawURL, err)
	}

	req.Header.Set("User-Agent", t.cfg.UserAgent)
	t.authenticate(req)

	resp, err := t.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, "", types.TransportErrorWrap(http.MethodGet, rawURL, err)
	}

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		err := t.checkStatus(http.MethodGet, rawURL, rawURL, resp.StatusCode, payload)
		span.RecordError(err)
		span.SetStatus(codes.Error, "server rejected request")
		return nil, "", err
	}

	filename := ""
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			filename = params["filename"]
		}
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "stream opened")
	return resp.Body, filename, nil
}

func (t *Transport) authenticate(req *http.Request) {
	switch {
	case t.cfg.Token != "":
		req.Header.Set("Authorization", "Token "+t.cfg.Token)
	case t.cfg.Username != "" && t.cfg.Password != "":
		req.SetBasicAuth(t.cfg.Username, t.cfg.Password)
	}
}

func (t *Transport) resolve(path string, query url.Values) (string, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		target, err := url.Parse(path)
		if err != nil {
			return "", fmt.Errorf("failed to parse absolute URL %q: %w", path, err)
		}
		if query != nil {
			merged := target.Query()
			for key, values := range query {
				for _, value := range values {
					merged.Add(key, value)
				}
			}
			target.RawQuery = merged.Encode()
		}
		return target.String(), nil
	}

	target := *t.base
	// Collection and detail routes all take a trailing slash.
	target.Path = target.Path + "/" + strings.Trim(path, "/") + "/"
	if query != nil {
		target.RawQuery = query.Encode()
	}

	return target.String(), nil
}

func (t *Transport) checkStatus(method, target, path string, status int, payload []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &types.AuthError{StatusCode: status, Message: detail(payload)}
	case status == http.StatusNotFound:
		resource, id := describe(path)
		return &types.NotFoundError{Resource: resource, ID: id}
	default:
		return &types.TransportError{
			Method:     method,
			URL:        target,
			StatusCode: status,
			Message:    detail(payload),
		}
	}
}

// detail pulls the server's error message out of a response body. Falls
// back to the raw text, capped so a stray HTML page cannot flood a log.
func detail(payload []byte) string {
	var decoded types.Error
	if err := json.Unmarshal(payload, &decoded); err == nil && decoded.Detail != "" {
		return decoded.Detail
	}

	text := strings.TrimSpace(string(payload))
	if len(text) > 200 {
		text = text[:200]
	}

	return text
}

// describe turns "patches/123" into ("patches", "123") for error messages.
func describe(path string) (string, string) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		if parsed, err := url.Parse(path); err == nil {
			path = parsed.Path
		}
	}

	segments := []string{}
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}

	// Strip the api root and version prefix from absolute paths.
	for len(segments) > 0 && (segments[0] == "api" || versionSegment.MatchString(segments[0])) {
		segments = segments[1:]
	}

	switch len(segments) {
	case 0:
		return "resource", ""
	case 1:
		return segments[0], ""
	default:
		return segments[0], segments[1]
	}
}
