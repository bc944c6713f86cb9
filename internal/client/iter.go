package client

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

type page[T any] struct {
	items []T
	// next is the absolute URL of the following page, empty on the last.
	next string
}

// fetchPage retrieves one page. ref is empty for the first page, afterwards
// it is the next link of the page before.
type fetchPage[T any] func(ctx context.Context, ref string) (*page[T], error)

type prefetched[T any] struct {
	page *page[T]
	err  error
}

// Iter walks a paginated collection one record at a time. It is forward
// only and not restartable; a fresh listing call re-queries from page one.
// No request happens before the first Next.
type Iter[T any] struct {
	fetch   fetchPage[T]
	current T
	buf     []T
	idx     int
	nextRef string
	started bool
	done    bool
	err     error

	// Bounded page look-ahead. Zero means fetch pages on demand.
	lookahead int
	pages     chan prefetched[T]
	stop      context.CancelFunc
	group     *errgroup.Group
}

func newIter[T any](fetch fetchPage[T], lookahead int) *Iter[T] {
	return &Iter[T]{fetch: fetch, lookahead: lookahead}
}

// Next advances to the following record, fetching at most one page past the
// current position. It returns false at the end of the collection or on
// error; Err tells the two apart.
func (it *Iter[T]) Next(ctx context.Context) bool {
	if it.err != nil || it.done {
		return false
	}

	for it.idx >= len(it.buf) {
		pg, err := it.advance(ctx)
		if err != nil {
			it.err = err
			it.Stop()
			return false
		}
		if pg == nil {
			it.done = true
			it.Stop()
			return false
		}

		it.buf = pg.items
		it.idx = 0
	}

	it.current = it.buf[it.idx]
	it.idx++
	return true
}

// Record is the record Next moved to. Only valid after Next returned true.
func (it *Iter[T]) Record() T {
	return it.current
}

func (it *Iter[T]) Err() error {
	return it.err
}

// Stop releases the look-ahead worker, if any. Safe to call more than once
// and unnecessary after Next returned false.
func (it *Iter[T]) Stop() {
	if it.stop != nil {
		it.stop()
		_ = it.group.Wait()
		it.stop = nil
	}
}

func (it *Iter[T]) advance(ctx context.Context) (*page[T], error) {
	if it.lookahead > 0 {
		if !it.started {
			it.started = true
			it.startPrefetch(ctx)
		}

		item, ok := <-it.pages
		if !ok {
			return nil, nil
		}
		if item.err != nil {
			return nil, item.err
		}
		return item.page, nil
	}

	if it.started && it.nextRef == "" {
		return nil, nil
	}

	pg, err := it.fetch(ctx, it.nextRef)
	if err != nil {
		return nil, err
	}

	it.started = true
	it.nextRef = pg.next
	return pg, nil
}

// startPrefetch pumps pages into a bounded channel so the next page is in
// flight while the caller works the current one. Delivery order is the
// server's; a single worker fetching sequentially cannot reorder.
func (it *Iter[T]) startPrefetch(ctx context.Context) {
	pctx, cancel := context.WithCancel(ctx)
	it.stop = cancel

	group, gctx := errgroup.WithContext(pctx)
	it.group = group
	it.pages = make(chan prefetched[T], it.lookahead)

	group.Go(func() error {
		defer close(it.pages)

		ref := ""
		for {
			pg, err := it.fetch(gctx, ref)
			if err != nil {
				select {
				case it.pages <- prefetched[T]{err: err}:
				case <-gctx.Done():
				}
				return nil
			}

			select {
			case it.pages <- prefetched[T]{page: pg}:
			case <-gctx.Done():
				return nil
			}

			if pg.next == "" {
				return nil
			}
			ref = pg.next
		}
	})
}

// parseNextLink extracts the rel="next" target from a Link header. Targets
// are scanned as <...> groups, so a raw comma inside a URL cannot split a
// link-value apart.
func parseNextLink(header string) string {
	for {
		start := strings.IndexByte(header, '<')
		if start < 0 {
			return ""
		}
		end := strings.IndexByte(header[start:], '>')
		if end < 0 {
			return ""
		}
		target := header[start+1 : start+end]
		header = header[start+end+1:]

		// The parameters of this link-value run until the next target.
		params := header
		if next := strings.IndexByte(header, '<'); next >= 0 {
			params = header[:next]
		}
		for _, param := range strings.Split(params, ";") {
			param = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(param), ","))
			if param == `rel="next"` || param == "rel=next" {
				return target
			}
		}
	}
}
