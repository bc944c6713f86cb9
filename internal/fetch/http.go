package fetch

import (
	"context"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/patchtrack/git-ptk/internal/transport"
)

// Ensure TransportFetcher implements Fetcher interface.
var _ Fetcher = (*TransportFetcher)(nil)

// TransportFetcher routes content downloads through the API transport so
// credentials and the request timeout apply to mbox links too.
type TransportFetcher struct {
	transport *transport.Transport
}

func NewTransportFetcher(t *transport.Transport) *TransportFetcher {
	return &TransportFetcher{
		transport: t,
	}
}

func (f *TransportFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	ctx, span := tracer.Start(ctx, "TransportFetcher.Fetch", trace.WithAttributes(
		attribute.String("url", url),
	))
	defer span.End()

	body, _, err := f.transport.Stream(ctx, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to download content")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "fetched content")
	return body, nil
}
