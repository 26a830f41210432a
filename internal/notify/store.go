package notify

import (
	"sync"
	"time"

	"github.com/nhle/coffeemeet/internal/model"
)

// Pagination describes the cursor of the notification list.
type Pagination struct {
	Page    int
	Limit   int
	Total   int
	HasMore bool
}

// State is the notification aggregate: the item list, the unread
// counter, the pagination cursor, and the loading/error flags the UI
// renders from.
type State struct {
	// Items holds the notifications in server order, newest first.
	Items []model.Notification

	// UnreadCount is never negative.
	UnreadCount int

	Pagination Pagination

	// Loading is true while a top-level (page 1) fetch is in flight;
	// LoadingMore while a later page is.
	Loading     bool
	LoadingMore bool

	// Error is the last fetch error message, empty when none.
	Error string

	// LastFetchAt is when the list was last replaced by a successful
	// fetch. Zero until the first fetch. Used by the smart-refresh
	// freshness check.
	LastFetchAt time.Time
}

// Store is the exclusive owner of the notification aggregate. Every
// transition is applied atomically under one mutex and performs no I/O;
// deciding which transition to apply on failure belongs to the callers.
type Store struct {
	mu    sync.Mutex
	state State
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Snapshot returns a copy of the current state. The Items slice is
// copied so readers never observe a partially applied transition.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyStateLocked()
}

func (s *Store) copyStateLocked() State {
	st := s.state
	st.Items = make([]model.Notification, len(s.state.Items))
	copy(st.Items, s.state.Items)
	return st
}

// SetLoading toggles the top-level loading flag. No other field changes.
func (s *Store) SetLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Loading = v
}

// SetLoadingMore toggles the load-more flag. No other field changes.
func (s *Store) SetLoadingMore(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LoadingMore = v
}

// SetError records a fetch error. An error terminates any in-flight
// fetch, so both loading flags are cleared.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Error = msg
	s.state.Loading = false
	s.state.LoadingMore = false
}

// ReplaceAll overwrites the item list wholesale, as a full refresh does.
// It records the counter and cursor, stamps LastFetchAt, and clears any
// prior error and the loading flags.
func (s *Store) ReplaceAll(items []model.Notification, unreadCount int, pg Pagination) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Items = make([]model.Notification, len(items))
	copy(s.state.Items, items)
	s.state.UnreadCount = clampNonNegative(unreadCount)
	s.state.Pagination = pg
	s.state.Loading = false
	s.state.LoadingMore = false
	s.state.Error = ""
	s.state.LastFetchAt = time.Now()
}

// AppendPage concatenates a fetched page to the tail of the list. It
// trusts the server not to repeat a page; no dedup is performed.
func (s *Store) AppendPage(items []model.Notification, pg Pagination) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Items = append(s.state.Items, items...)
	s.state.Pagination = pg
	s.state.LoadingMore = false
	s.state.Error = ""
}

// AddOne prepends a single notification newer than the current head,
// incrementing the unread counter when the item is unread.
func (s *Store) AddOne(n model.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Items = append([]model.Notification{n}, s.state.Items...)
	if !n.IsRead {
		s.state.UnreadCount++
	}
}

// SetReadState flips the read flag of the item matching id and adjusts
// the unread counter by the transition actually made. A no-op, counter
// included, when the id is absent or the item is already in the
// requested state.
func (s *Store) SetReadState(id string, isRead bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Items {
		if s.state.Items[i].ID != id {
			continue
		}
		if s.state.Items[i].IsRead == isRead {
			return
		}
		s.state.Items[i].IsRead = isRead
		if isRead {
			s.state.UnreadCount = clampNonNegative(s.state.UnreadCount - 1)
		} else {
			s.state.UnreadCount++
		}
		return
	}
}

// Remove deletes the item matching id, decrementing the unread counter
// iff the removed item was unread. A no-op when the id is absent.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Items {
		if s.state.Items[i].ID != id {
			continue
		}
		wasUnread := !s.state.Items[i].IsRead
		s.state.Items = append(s.state.Items[:i], s.state.Items[i+1:]...)
		if wasUnread {
			s.state.UnreadCount = clampNonNegative(s.state.UnreadCount - 1)
		}
		return
	}
}

// MarkAllRead flags every item read and zeroes the unread counter.
// Idempotent.
func (s *Store) MarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Items {
		s.state.Items[i].IsRead = true
	}
	s.state.UnreadCount = 0
}

// SetUnreadCount overwrites the counter from the dedicated count
// endpoint, where the server is the sole source of truth.
func (s *Store) SetUnreadCount(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.UnreadCount = clampNonNegative(n)
}

// Reset returns the aggregate to its empty initial value. Used when the
// session ends so no stale data can be displayed afterwards.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{}
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
