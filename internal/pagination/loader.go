// Package pagination provides a generic incremental-load state machine
// shared by every paged list in the application: the notification inbox
// and the campaign history view each own an independent Loader.
package pagination

import (
	"context"
	"sync"
)

// Page is one fetched page of items plus the server's pagination metadata.
type Page[T any] struct {
	Items []T

	// Total is the server-reported total item count, 0 when unknown.
	Total int

	// HasMore is the server's own "more pages exist" flag. When nil the
	// loader falls back to the full-page heuristic: a page is considered
	// final iff it returned fewer items than requested. The heuristic
	// has a known off-by-one: a final page that is an exact multiple of
	// the page size costs one extra (empty) fetch before HasMore flips
	// to false. That is accepted, not a bug.
	HasMore *bool
}

// FetchFunc retrieves a single page. Pages are 1-based.
type FetchFunc[T any] func(ctx context.Context, page, pageSize int) (Page[T], error)

// State is a point-in-time snapshot of a Loader, safe for the caller
// to retain.
type State[T any] struct {
	Items       []T
	Page        int
	PageSize    int
	Total       int
	HasMore     bool
	Loading     bool
	LoadingMore bool
	Err         error
}

// Loader accumulates pages of items fetched through a FetchFunc.
//
// The two loading states are mutually exclusive: LoadMore is a guarded
// no-op while an initial load is in flight, and vice versa. Page is
// monotonically non-decreasing while accumulating and resets to 1 only
// on Refresh.
type Loader[T any] struct {
	mu          sync.Mutex
	fetch       FetchFunc[T]
	pageSize    int
	items       []T
	page        int
	total       int
	hasMore     bool
	loading     bool
	loadingMore bool
	err         error
}

// NewLoader creates a Loader that fetches pages of the given size.
func NewLoader[T any](pageSize int, fetch FetchFunc[T]) *Loader[T] {
	if pageSize < 1 {
		pageSize = 20
	}
	return &Loader[T]{
		fetch:    fetch,
		pageSize: pageSize,
		page:     1,
	}
}

// Snapshot returns a copy of the loader's current state. The Items slice
// is copied so callers can hold it across further loads.
func (l *Loader[T]) Snapshot() State[T] {
	l.mu.Lock()
	defer l.mu.Unlock()

	items := make([]T, len(l.items))
	copy(items, l.items)

	return State[T]{
		Items:       items,
		Page:        l.page,
		PageSize:    l.pageSize,
		Total:       l.total,
		HasMore:     l.hasMore,
		Loading:     l.loading,
		LoadingMore: l.loadingMore,
		Err:         l.err,
	}
}

// LoadInitial fetches page 1 and replaces the accumulated items. It is a
// guarded no-op when any load is already in flight. On failure the error
// is recorded and the item set is left empty.
func (l *Loader[T]) LoadInitial(ctx context.Context) error {
	l.mu.Lock()
	if l.loading || l.loadingMore {
		l.mu.Unlock()
		return nil
	}
	l.loading = true
	l.mu.Unlock()

	result, err := l.fetch(ctx, 1, l.pageSize)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false

	if err != nil {
		l.items = nil
		l.page = 1
		l.hasMore = false
		l.err = err
		return err
	}

	l.items = result.Items
	l.page = 1
	l.total = result.Total
	l.hasMore = l.computeHasMore(result)
	l.err = nil
	return nil
}

// LoadMore fetches the next page and appends it. It is a guarded no-op
// (fetched false, no network call issued) when a load is already in
// flight or no further pages exist. On success it returns the newly
// appended items with fetched true; the items may be empty when the
// final page turned out to be bare.
func (l *Loader[T]) LoadMore(ctx context.Context) (items []T, fetched bool, err error) {
	l.mu.Lock()
	if l.loading || l.loadingMore || !l.hasMore {
		l.mu.Unlock()
		return nil, false, nil
	}
	l.loadingMore = true
	next := l.page + 1
	l.mu.Unlock()

	result, err := l.fetch(ctx, next, l.pageSize)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadingMore = false

	if err != nil {
		// Already-loaded items are preserved on a failed load-more.
		l.err = err
		return nil, false, err
	}

	l.items = append(l.items, result.Items...)
	l.page = next
	if result.Total > 0 {
		l.total = result.Total
	}
	l.hasMore = l.computeHasMore(result)
	l.err = nil
	return result.Items, true, nil
}

// Refresh discards the accumulated items, resets the cursor to page 1,
// clears any recorded error, and performs an initial load.
func (l *Loader[T]) Refresh(ctx context.Context) error {
	l.mu.Lock()
	if l.loading || l.loadingMore {
		l.mu.Unlock()
		return nil
	}
	l.items = nil
	l.page = 1
	l.hasMore = false
	l.err = nil
	l.mu.Unlock()

	return l.LoadInitial(ctx)
}

// Seed adopts an externally fetched first page, replacing the
// accumulated items and resetting the cursor to page 1. List owners use
// this when their refresh path performs the page-1 fetch itself because
// it needs response metadata beyond what Page carries.
func (l *Loader[T]) Seed(items []T, total int, hasMore bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = make([]T, len(items))
	copy(l.items, items)
	l.page = 1
	l.total = total
	l.hasMore = hasMore
	l.err = nil
}

// computeHasMore derives whether more pages exist from the most recent
// page. The caller must hold l.mu.
func (l *Loader[T]) computeHasMore(p Page[T]) bool {
	if p.HasMore != nil {
		return *p.HasMore
	}
	return len(p.Items) == l.pageSize
}
