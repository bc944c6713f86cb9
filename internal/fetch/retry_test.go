package fetch_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/patchtrack/git-ptk/internal/fetch"
	mockfetcher "github.com/patchtrack/git-ptk/internal/fetch/mock"
)

func TestRetryFetch(t *testing.T) {
	t.Run("NoError", func(t *testing.T) {
		ctx := context.Background()
		expected := "mbox content"

		ctrl := gomock.NewController(t)
		f := mockfetcher.NewMockFetcher(ctrl)

		f.EXPECT().
			Fetch(gomock.Any(), gomock.Eq("url")).
			Return(io.NopCloser(strings.NewReader(expected)), nil).
			Times(1)

		retrier := fetch.NewRetryFetcher(f, 3)
		body, err := retrier.Fetch(ctx, "url")
		require.NoError(t, err, "failed to fetch")
		defer body.Close()

		actual, err := io.ReadAll(body)
		require.NoError(t, err, "failed to read content")
		assert.Equal(t, expected, string(actual), "not matching content")
	})

	t.Run("ErrorAfter1Try", func(t *testing.T) {
		ctx := context.Background()
		expected := "mbox content"

		ctrl := gomock.NewController(t)
		f := mockfetcher.NewMockFetcher(ctrl)

		counter := new(int)
		f.EXPECT().
			Fetch(gomock.Any(), gomock.Eq("url")).
			DoAndReturn(func(_ context.Context, _ string) (io.ReadCloser, error) {
				*counter++
				if *counter == 2 {
					return io.NopCloser(strings.NewReader(expected)), nil
				}

				return nil, errors.New("expected error")
			}).
			Times(2)

		retrier := fetch.NewRetryFetcherBackoff(f, func() retry.Backoff {
			b := retry.NewConstant(time.Millisecond * 10)
			b = retry.WithMaxRetries(3, b)
			return b
		})
		body, err := retrier.Fetch(ctx, "url")
		require.NoError(t, err, "failed to fetch")
		defer body.Close()

		actual, err := io.ReadAll(body)
		require.NoError(t, err, "failed to read content")
		assert.Equal(t, expected, string(actual), "not matching content")
	})

	t.Run("Error", func(t *testing.T) {
		ctx := context.Background()

		ctrl := gomock.NewController(t)
		f := mockfetcher.NewMockFetcher(ctrl)

		f.EXPECT().
			Fetch(gomock.Any(), gomock.Eq("url")).
			Return(nil, errors.New("expected error")).
			Times(4)

		retrier := fetch.NewRetryFetcherBackoff(f, func() retry.Backoff {
			b := retry.NewConstant(time.Millisecond * 10)
			b = retry.WithMaxRetries(3, b)
			return b
		})
		_, err := retrier.Fetch(ctx, "url")

		require.Error(t, err, "somehow fetched")
	})
}
