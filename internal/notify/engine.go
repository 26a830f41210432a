// Package notify implements the client-side notification
// synchronization engine: a single-writer state store, a lifecycle-bound
// polling scheduler, and an optimistic-after-success mutation gateway,
// kept consistent against the campaign service's REST API.
package notify

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/coffeemeet/internal/api"
	"github.com/nhle/coffeemeet/internal/model"
	"github.com/nhle/coffeemeet/internal/pagination"
)

// API is the subset of the REST client the engine consumes.
type API interface {
	ListNotifications(ctx context.Context, page, limit int) (*api.NotificationPage, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id string) error
	MarkUnread(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) error
	BulkMarkRead(ctx context.Context, ids []string) error
}

// Archiver receives every notification page the engine fetches, for the
// local offline archive. Implementations must tolerate repeated upserts
// of the same records.
type Archiver interface {
	UpsertNotifications(ctx context.Context, items []model.Notification) error
}

// EventKind discriminates engine events delivered to the UI.
type EventKind int

const (
	// EventStateChanged signals that a store snapshot taken now would
	// differ from earlier ones; the UI should re-render.
	EventStateChanged EventKind = iota

	// EventAuthExpired signals that the server rejected the token and
	// the engine has made itself unusable.
	EventAuthExpired
)

// Event is delivered on the engine's event channel and doubles as a
// tea.Msg for the Bubble Tea runtime.
type Event struct {
	Kind EventKind
	Err  error
}

// Options configures a new Engine. API is required; everything else has
// defaults.
type Options struct {
	API     API
	Archive Archiver
	Logger  *zap.Logger

	// PageSize is the list page size (default 20).
	PageSize int

	// HeadLimit is how many items the poller fetches when the unread
	// counter rises (default 5).
	HeadLimit int

	// PollInterval is the unread-count polling cadence (default 15s).
	PollInterval time.Duration

	// SettleDelay is the pause before an immediate check runs
	// (default 2s).
	SettleDelay time.Duration

	// Freshness is the smart-refresh threshold (default 30s).
	Freshness time.Duration
}

// Engine is the explicitly constructed facade over the store, poller,
// and gateway. Consumers share one instance by reference; every exported
// method is a safe no-op on a nil receiver, so callers that may run
// before initialization never need nil checks.
type Engine struct {
	apiClient API
	archive   Archiver
	store     *Store
	loader    *pagination.Loader[model.Notification]
	poller    *Poller
	gateway   *Gateway
	logger    *zap.Logger

	pageSize  int
	freshness time.Duration

	events chan Event

	mu          sync.Mutex
	usable      bool
	lastCountAt time.Time
	runCtx      context.Context
	runCancel   context.CancelFunc

	rootCtx    context.Context
	rootCancel context.CancelFunc
}

// NewEngine constructs an engine and its subcomponents. It does not
// start polling; call SetUsable(true) and StartPolling once a token is
// available.
func NewEngine(opts Options) *Engine {
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	if opts.HeadLimit <= 0 {
		opts.HeadLimit = 5
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 15 * time.Second
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	} else if opts.SettleDelay == 0 {
		opts.SettleDelay = 2 * time.Second
	}
	if opts.Freshness <= 0 {
		opts.Freshness = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())

	e := &Engine{
		apiClient:  opts.API,
		archive:    opts.Archive,
		store:      NewStore(),
		logger:     opts.Logger,
		pageSize:   opts.PageSize,
		freshness:  opts.Freshness,
		events:     make(chan Event, 16),
		rootCtx:    rootCtx,
		rootCancel: rootCancel,
	}
	e.runCtx, e.runCancel = context.WithCancel(rootCtx)

	e.loader = pagination.NewLoader(opts.PageSize, e.fetchListPage)
	e.poller = newPoller(e, opts.PollInterval, opts.SettleDelay, opts.HeadLimit)
	e.gateway = newGateway(e)

	return e
}

// fetchListPage is the loader's fetch function; load-more pages flow
// through here.
func (e *Engine) fetchListPage(
	ctx context.Context,
	page, pageSize int,
) (pagination.Page[model.Notification], error) {
	res, err := e.apiClient.ListNotifications(ctx, page, pageSize)
	if err != nil {
		return pagination.Page[model.Notification]{}, err
	}
	return pagination.Page[model.Notification]{
		Items:   res.Items,
		Total:   res.Total,
		HasMore: res.HasMore,
	}, nil
}

// Snapshot returns the current notification aggregate. A nil engine
// returns the zero State.
func (e *Engine) Snapshot() State {
	if e == nil {
		return State{}
	}
	return e.store.Snapshot()
}

// Usable reports whether the engine may talk to the server right now.
func (e *Engine) Usable() bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.usable
}

// SetUsable updates the "may I talk to the server" precondition. Losing
// usability stops polling, aborts in-flight requests, and resets the
// store so no stale data can be displayed.
func (e *Engine) SetUsable(v bool) {
	if e == nil {
		return
	}

	e.mu.Lock()
	if e.usable == v {
		e.mu.Unlock()
		return
	}
	e.usable = v
	if v {
		e.runCtx, e.runCancel = context.WithCancel(e.rootCtx)
	} else {
		e.runCancel()
	}
	e.mu.Unlock()

	if !v {
		e.poller.Stop()
		e.store.Reset()
	}
	e.emit(Event{Kind: EventStateChanged})
}

// SetVisible informs the engine of window visibility. Hiding pauses the
// poll ticks; becoming visible again triggers an immediate out-of-band
// unread-count check so the badge is correct the instant the user
// returns.
func (e *Engine) SetVisible(v bool) {
	if e == nil {
		return
	}
	e.poller.SetVisible(v)
}

// FetchNotifications refreshes the list from page 1. Unless force is
// set, the fetch is skipped when the last successful fetch is younger
// than the freshness threshold. Guarded no-op while another list fetch
// is in flight or when the engine is not usable.
func (e *Engine) FetchNotifications(ctx context.Context, force bool) error {
	if e == nil || !e.Usable() {
		return nil
	}

	snap := e.store.Snapshot()
	if !force && !snap.LastFetchAt.IsZero() &&
		time.Since(snap.LastFetchAt) < e.freshness {
		return nil
	}
	if snap.Loading || snap.LoadingMore {
		return nil
	}

	ctx, cancel := e.scoped(ctx)
	defer cancel()

	e.store.SetLoading(true)
	e.emit(Event{Kind: EventStateChanged})

	res, err := e.apiClient.ListNotifications(ctx, 1, e.pageSize)
	if err != nil {
		e.fail("fetching notifications", err)
		return err
	}

	e.adoptFirstPage(ctx, res, e.pageSize)
	return nil
}

// adoptFirstPage installs a fetched page 1 into the store, seeds the
// load-more cursor, and archives the items.
func (e *Engine) adoptFirstPage(ctx context.Context, res *api.NotificationPage, requested int) {
	hasMore := effectiveHasMore(res, requested)
	// A head page shorter than the regular page size cannot seed the
	// load-more cursor: the next page at full size would skip every item
	// between the head and position pageSize+1. Load-more stays disabled
	// until the next full-size refresh.
	if requested != e.pageSize {
		hasMore = false
	}
	e.store.ReplaceAll(res.Items, res.UnreadCount, Pagination{
		Page:    1,
		Limit:   requested,
		Total:   res.Total,
		HasMore: hasMore,
	})
	e.loader.Seed(res.Items, res.Total, hasMore)
	e.archiveItems(ctx, res.Items)
	e.emit(Event{Kind: EventStateChanged})
}

// LoadMore fetches the next page and appends it, delegating the cursor
// bookkeeping to the pagination loader. Guarded no-op while any list
// fetch is in flight or when no further pages exist.
func (e *Engine) LoadMore(ctx context.Context) error {
	if e == nil || !e.Usable() {
		return nil
	}

	snap := e.store.Snapshot()
	if snap.Loading || snap.LoadingMore || !snap.Pagination.HasMore {
		return nil
	}

	ctx, cancel := e.scoped(ctx)
	defer cancel()

	e.store.SetLoadingMore(true)
	e.emit(Event{Kind: EventStateChanged})

	added, fetched, err := e.loader.LoadMore(ctx)
	if err != nil {
		e.fail("loading more notifications", err)
		return err
	}
	if !fetched {
		// Loader-side guard fired; nothing was fetched.
		e.store.SetLoadingMore(false)
		return nil
	}

	ls := e.loader.Snapshot()
	e.store.AppendPage(added, Pagination{
		Page:    ls.Page,
		Limit:   ls.PageSize,
		Total:   ls.Total,
		HasMore: ls.HasMore,
	})
	e.archiveItems(ctx, added)
	e.emit(Event{Kind: EventStateChanged})
	return nil
}

// FetchUnreadCount refreshes the unread counter from the dedicated
// count endpoint. Unless force is set, the call is skipped when the
// counter was fetched within the freshness threshold.
func (e *Engine) FetchUnreadCount(ctx context.Context, force bool) error {
	if e == nil || !e.Usable() {
		return nil
	}

	e.mu.Lock()
	fresh := !e.lastCountAt.IsZero() && time.Since(e.lastCountAt) < e.freshness
	e.mu.Unlock()
	if fresh && !force {
		return nil
	}

	ctx, cancel := e.scoped(ctx)
	defer cancel()

	count, err := e.apiClient.UnreadCount(ctx)
	if err != nil {
		e.noteAuthError(err)
		return err
	}

	e.mu.Lock()
	e.lastCountAt = time.Now()
	e.mu.Unlock()

	e.store.SetUnreadCount(count)
	e.emit(Event{Kind: EventStateChanged})
	return nil
}

// MarkAsRead marks a notification read via the mutation gateway.
func (e *Engine) MarkAsRead(ctx context.Context, id string) error {
	if e == nil {
		return nil
	}
	return e.gateway.MarkRead(ctx, id)
}

// MarkAsUnread marks a notification unread via the mutation gateway.
func (e *Engine) MarkAsUnread(ctx context.Context, id string) error {
	if e == nil {
		return nil
	}
	return e.gateway.MarkUnread(ctx, id)
}

// MarkAllAsRead marks every notification read via the mutation gateway.
func (e *Engine) MarkAllAsRead(ctx context.Context) error {
	if e == nil {
		return nil
	}
	return e.gateway.MarkAllRead(ctx)
}

// DeleteNotification deletes a notification via the mutation gateway.
func (e *Engine) DeleteNotification(ctx context.Context, id string) error {
	if e == nil {
		return nil
	}
	return e.gateway.Delete(ctx, id)
}

// BulkDelete deletes a batch of notifications via the mutation gateway.
func (e *Engine) BulkDelete(ctx context.Context, ids []string) error {
	if e == nil {
		return nil
	}
	return e.gateway.BulkDelete(ctx, ids)
}

// BulkMarkRead marks a batch of notifications read via the mutation
// gateway.
func (e *Engine) BulkMarkRead(ctx context.Context, ids []string) error {
	if e == nil {
		return nil
	}
	return e.gateway.BulkMarkRead(ctx, ids)
}

// StartPolling starts the background unread-count poller.
func (e *Engine) StartPolling() {
	if e == nil {
		return
	}
	e.poller.Start()
}

// StopPolling stops the background poller.
func (e *Engine) StopPolling() {
	if e == nil {
		return
	}
	e.poller.Stop()
}

// TriggerImmediateCheck schedules an out-of-band unread-count check
// after the settle delay, for use right after an action expected to
// produce a new server-side notification.
func (e *Engine) TriggerImmediateCheck() {
	if e == nil {
		return
	}
	e.poller.TriggerCheck()
}

// WaitForEvent returns a tea.Cmd that delivers the next engine event to
// the Bubble Tea runtime. Re-arm it after each received Event.
func (e *Engine) WaitForEvent() tea.Cmd {
	if e == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case ev := <-e.events:
			return ev
		case <-e.rootCtx.Done():
			return nil
		}
	}
}

// Close tears the engine down: polling stops and all in-flight requests
// are aborted.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.poller.Stop()
	e.rootCancel()
}

// scoped derives a request context that is additionally canceled when
// the engine's current run scope ends (usability loss or Close), so
// teardown aborts in-flight calls rather than only future ticks.
func (e *Engine) scoped(ctx context.Context) (context.Context, context.CancelFunc) {
	e.mu.Lock()
	run := e.runCtx
	e.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(run, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// fail records a list-fetch failure in the store.
func (e *Engine) fail(op string, err error) {
	e.logger.Warn(op, zap.Error(err))
	e.store.SetError(err.Error())
	e.noteAuthError(err)
	e.emit(Event{Kind: EventStateChanged, Err: err})
}

// noteAuthError flips usability off when the server rejected the token.
func (e *Engine) noteAuthError(err error) {
	if !api.IsAuthError(err) {
		return
	}
	e.logger.Warn("authentication expired", zap.Error(err))
	e.SetUsable(false)
	e.emit(Event{Kind: EventAuthExpired, Err: err})
}

// archiveItems best-effort copies fetched items into the local archive.
func (e *Engine) archiveItems(ctx context.Context, items []model.Notification) {
	if e.archive == nil || len(items) == 0 {
		return
	}
	if err := e.archive.UpsertNotifications(ctx, items); err != nil {
		e.logger.Warn("archiving notifications", zap.Error(err))
	}
}

// emit delivers an event without blocking; the UI only needs the latest
// "something changed" signal, so drops are harmless.
func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
	}
}

// effectiveHasMore resolves the server flag, falling back to the
// full-page heuristic when absent.
func effectiveHasMore(res *api.NotificationPage, requested int) bool {
	if res.HasMore != nil {
		return *res.HasMore
	}
	return len(res.Items) == requested
}
