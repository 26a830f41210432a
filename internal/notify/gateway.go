package notify

import (
	"context"

	"go.uber.org/zap"
)

// Gateway applies user-initiated write intents with an
// optimistic-then-reconcile protocol. The local store is mutated only
// after the server confirms the intent, so a failed mutation leaves
// prior state untouched and there is never anything to roll back.
//
// After every confirmed mutation the unread counter is refreshed
// out-of-band, bypassing the freshness heuristic, so the badge is
// authoritative even if the local counter math drifted. Bulk
// transitions additionally trigger a full reconciling list refresh,
// since they are likelier to have raced with concurrent server-side
// changes than a single-item one.
type Gateway struct {
	engine *Engine
}

func newGateway(e *Engine) *Gateway {
	return &Gateway{engine: e}
}

// MarkRead marks a single notification read.
func (g *Gateway) MarkRead(ctx context.Context, id string) error {
	e := g.engine
	if !e.Usable() {
		return nil
	}

	ctx, cancel := e.scoped(ctx)
	defer cancel()

	if err := e.apiClient.MarkRead(ctx, id); err != nil {
		e.noteAuthError(err)
		return err
	}

	e.store.SetReadState(id, true)
	g.reconcileCounter(ctx)
	e.emit(Event{Kind: EventStateChanged})
	return nil
}

// MarkUnread marks a single notification unread.
func (g *Gateway) MarkUnread(ctx context.Context, id string) error {
	e := g.engine
	if !e.Usable() {
		return nil
	}

	ctx, cancel := e.scoped(ctx)
	defer cancel()

	if err := e.apiClient.MarkUnread(ctx, id); err != nil {
		e.noteAuthError(err)
		return err
	}

	e.store.SetReadState(id, false)
	g.reconcileCounter(ctx)
	e.emit(Event{Kind: EventStateChanged})
	return nil
}

// MarkAllRead marks every notification read.
func (g *Gateway) MarkAllRead(ctx context.Context) error {
	e := g.engine
	if !e.Usable() {
		return nil
	}

	ctx, cancel := e.scoped(ctx)
	defer cancel()

	if err := e.apiClient.MarkAllRead(ctx); err != nil {
		e.noteAuthError(err)
		return err
	}

	e.store.MarkAllRead()
	g.reconcileFull(ctx)
	e.emit(Event{Kind: EventStateChanged})
	return nil
}

// Delete deletes a single notification.
func (g *Gateway) Delete(ctx context.Context, id string) error {
	e := g.engine
	if !e.Usable() {
		return nil
	}

	ctx, cancel := e.scoped(ctx)
	defer cancel()

	if err := e.apiClient.DeleteNotification(ctx, id); err != nil {
		e.noteAuthError(err)
		return err
	}

	e.store.Remove(id)
	g.reconcileCounter(ctx)
	e.emit(Event{Kind: EventStateChanged})
	return nil
}

// BulkDelete deletes a batch of notifications in one server call.
func (g *Gateway) BulkDelete(ctx context.Context, ids []string) error {
	e := g.engine
	if !e.Usable() || len(ids) == 0 {
		return nil
	}

	ctx, cancel := e.scoped(ctx)
	defer cancel()

	if err := e.apiClient.BulkDelete(ctx, ids); err != nil {
		e.noteAuthError(err)
		return err
	}

	for _, id := range ids {
		e.store.Remove(id)
	}
	g.reconcileFull(ctx)
	e.emit(Event{Kind: EventStateChanged})
	return nil
}

// BulkMarkRead marks a batch of notifications read in one server call.
func (g *Gateway) BulkMarkRead(ctx context.Context, ids []string) error {
	e := g.engine
	if !e.Usable() || len(ids) == 0 {
		return nil
	}

	ctx, cancel := e.scoped(ctx)
	defer cancel()

	if err := e.apiClient.BulkMarkRead(ctx, ids); err != nil {
		e.noteAuthError(err)
		return err
	}

	for _, id := range ids {
		e.store.SetReadState(id, true)
	}
	g.reconcileFull(ctx)
	e.emit(Event{Kind: EventStateChanged})
	return nil
}

// reconcileCounter force-refreshes the unread counter after a confirmed
// mutation. The mutation already succeeded, so a failed reconciliation
// is logged rather than propagated.
func (g *Gateway) reconcileCounter(ctx context.Context) {
	if err := g.engine.FetchUnreadCount(ctx, true); err != nil {
		g.engine.logger.Warn("post-mutation count refresh failed", zap.Error(err))
	}
}

// reconcileFull force-refreshes the whole list after a bulk mutation.
func (g *Gateway) reconcileFull(ctx context.Context) {
	if err := g.engine.FetchNotifications(ctx, true); err != nil {
		g.engine.logger.Warn("post-mutation list refresh failed", zap.Error(err))
	}
}
