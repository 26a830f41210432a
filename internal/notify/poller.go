package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Poller keeps the unread counter fresh without user action. On each
// tick it fetches the unread count; when the count rose since the last
// locally observed value it additionally fetches a small head page and
// installs it as a lightweight reconciliation. Ticks are skipped while
// the window is hidden, and a failed tick is logged and recovered by
// the next one.
type Poller struct {
	engine      *Engine
	interval    time.Duration
	settleDelay time.Duration
	headLimit   int
	logger      *zap.Logger

	mu      sync.Mutex
	running bool
	visible bool
	stopCh  chan struct{}

	triggerCh chan time.Duration
}

// newPoller creates a poller bound to the engine. It starts stopped and
// considers the window visible.
func newPoller(e *Engine, interval, settleDelay time.Duration, headLimit int) *Poller {
	return &Poller{
		engine:      e,
		interval:    interval,
		settleDelay: settleDelay,
		headLimit:   headLimit,
		logger:      e.logger,
		visible:     true,
		triggerCh:   make(chan time.Duration, 16),
	}
}

// Start launches the polling loop. Exactly one timer is ever active:
// starting while already running stops the previous loop first.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		close(p.stopCh)
	}
	p.stopCh = make(chan struct{})
	p.running = true

	go p.loop(p.stopCh)
	p.logger.Info("notification polling started",
		zap.Duration("interval", p.interval))
}

// Stop halts the polling loop. Safe to call when not running.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	close(p.stopCh)
	p.running = false
	p.logger.Info("notification polling stopped")
}

// SetVisible records window visibility. Hiding pauses ticks; becoming
// visible schedules an immediate check so the badge catches up at once.
func (p *Poller) SetVisible(v bool) {
	p.mu.Lock()
	wasVisible := p.visible
	p.visible = v
	p.mu.Unlock()

	if v && !wasVisible {
		p.trigger(0)
	}
}

// TriggerCheck schedules an out-of-band check after the settle delay,
// giving the server time to materialize a just-caused notification.
func (p *Poller) TriggerCheck() {
	p.trigger(p.settleDelay)
}

// trigger enqueues a check without blocking; when the queue is full a
// check is already pending and another would be redundant.
func (p *Poller) trigger(delay time.Duration) {
	select {
	case p.triggerCh <- delay:
	default:
	}
}

// loop runs until stopCh closes. The loop owns no state; every tick
// reads and writes through the engine's store transitions.
func (p *Poller) loop(stopCh chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if p.isVisible() {
				p.tick()
			}
		case delay := <-p.triggerCh:
			if delay > 0 {
				select {
				case <-stopCh:
					return
				case <-time.After(delay):
				}
			}
			p.tick()
		}
	}
}

func (p *Poller) isVisible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// tick performs one poll cycle: count fetch, then at most one head
// reconciliation when the count rose. Errors never stop the loop.
func (p *Poller) tick() {
	e := p.engine
	if !e.Usable() {
		return
	}

	ctx, cancel := e.scoped(e.rootCtx)
	defer cancel()

	count, err := e.apiClient.UnreadCount(ctx)
	if err != nil {
		p.logger.Warn("unread count poll failed", zap.Error(err))
		e.noteAuthError(err)
		return
	}

	last := e.store.Snapshot().UnreadCount

	switch {
	case count > last:
		// New notifications arrived since we last looked; pull a small
		// head page and install it rather than doing a full refresh.
		res, err := e.apiClient.ListNotifications(ctx, 1, p.headLimit)
		if err != nil {
			p.logger.Warn("head reconciliation failed", zap.Error(err))
			e.store.SetUnreadCount(count)
			e.emit(Event{Kind: EventStateChanged})
			return
		}
		e.adoptFirstPage(ctx, res, p.headLimit)

	case count != last:
		e.store.SetUnreadCount(count)
		e.emit(Event{Kind: EventStateChanged})
	}
}
