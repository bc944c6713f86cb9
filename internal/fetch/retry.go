package fetch

import (
	"context"
	"io"
	"time"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/codes"
)

// Ensure RetryFetcher implements Fetcher interface.
var _ Fetcher = (*RetryFetcher)(nil)

// Meta fetcher that wraps fetch operations in backoff loops. Safe because a
// fetch has no side effects; the body handed back belongs to the attempt
// that succeeded.
type RetryFetcher struct {
	fetcher Fetcher
	backoff func() retry.Backoff
}

func NewRetryFetcherBackoff(fetcher Fetcher, backoff func() retry.Backoff) *RetryFetcher {
	return &RetryFetcher{
		fetcher: fetcher,
		backoff: backoff,
	}
}

// attempts bounds the retries on top of the initial try.
func NewRetryFetcher(fetcher Fetcher, attempts uint64) *RetryFetcher {
	return &RetryFetcher{
		fetcher: fetcher,
		backoff: func() retry.Backoff {
			b := retry.NewExponential(500 * time.Millisecond)
			b = retry.WithMaxRetries(attempts, b)
			return b
		},
	}
}

func (r *RetryFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	ctx, span := tracer.Start(ctx, "RetryFetcher.Fetch")
	defer span.End()

	var body io.ReadCloser
	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		//nolint:govet // shadow: intentionally shadow ctx and span to avoid using the incorrect one.
		ctx, span := tracer.Start(ctx, "RetryFetcher.Fetch.Retry")
		defer span.End()

		var err error
		body, err = r.fetcher.Fetch(ctx, url)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch")
			return retry.RetryableError(err)
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "successfully retried")
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "fetched content")
	return body, nil
}
