package notify

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/nhle/coffeemeet/internal/api"
)

func TestMarkReadFailureLeavesStoreUntouched(t *testing.T) {
	f := &fakeAPI{
		mutationFn: func(string) error { return errors.New("server error") },
	}
	e := newTestEngine(t, f)
	seedEngine(t, e, 2, notif("a", false), notif("b", false))

	before := e.Snapshot()
	err := e.MarkAsRead(context.Background(), "a")
	if err == nil {
		t.Fatal("expected mutation error")
	}
	after := e.Snapshot()

	if !reflect.DeepEqual(before, after) {
		t.Errorf("failed mutation changed state:\nbefore %+v\nafter  %+v", before, after)
	}
	if got := f.countCallCount(); got != 0 {
		t.Errorf("failed mutation still reconciled the counter (%d calls)", got)
	}
}

func TestMarkReadSuccessAppliesThenReconcilesCounter(t *testing.T) {
	f := &fakeAPI{
		countFn: func() (int, error) { return 1, nil },
	}
	e := newTestEngine(t, f)
	seedEngine(t, e, 2, notif("a", false), notif("b", false))

	if err := e.MarkAsRead(context.Background(), "a"); err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}

	st := e.Snapshot()
	if !st.Items[0].IsRead {
		t.Error("item a not marked read")
	}
	// The forced counter refresh is authoritative.
	if st.UnreadCount != 1 {
		t.Errorf("UnreadCount = %d, want 1", st.UnreadCount)
	}
	if got := f.countCallCount(); got != 1 {
		t.Errorf("count reconciliations = %d, want 1", got)
	}
	if got := f.mutationLog(); len(got) != 1 || got[0] != "mark-read:a" {
		t.Errorf("mutation log = %v", got)
	}
}

func TestMarkUnreadSuccess(t *testing.T) {
	f := &fakeAPI{
		countFn: func() (int, error) { return 2, nil },
	}
	e := newTestEngine(t, f)
	seedEngine(t, e, 1, notif("a", true), notif("b", false))

	if err := e.MarkAsUnread(context.Background(), "a"); err != nil {
		t.Fatalf("MarkAsUnread: %v", err)
	}

	st := e.Snapshot()
	if st.Items[0].IsRead {
		t.Error("item a still read")
	}
	if st.UnreadCount != 2 {
		t.Errorf("UnreadCount = %d, want 2", st.UnreadCount)
	}
}

func TestDeleteRemovesConfirmedItem(t *testing.T) {
	f := &fakeAPI{
		countFn: func() (int, error) { return 1, nil },
	}
	e := newTestEngine(t, f)
	seedEngine(t, e, 2, notif("a", false), notif("b", false))

	if err := e.DeleteNotification(context.Background(), "a"); err != nil {
		t.Fatalf("DeleteNotification: %v", err)
	}

	st := e.Snapshot()
	if len(st.Items) != 1 || st.Items[0].ID != "b" {
		t.Errorf("items = %+v, want only b", st.Items)
	}
	if st.UnreadCount != 1 {
		t.Errorf("UnreadCount = %d, want 1", st.UnreadCount)
	}
}

func TestMarkAllReadTriggersFullReconcile(t *testing.T) {
	f := &fakeAPI{
		listFn: func(_, _ int) (*api.NotificationPage, error) {
			return page(0, notif("a", true), notif("b", true)), nil
		},
	}
	e := newTestEngine(t, f)
	seedEngine(t, e, 2, notif("a", false), notif("b", false))

	if err := e.MarkAllAsRead(context.Background()); err != nil {
		t.Fatalf("MarkAllAsRead: %v", err)
	}

	if got := f.listCallCount(); got != 1 {
		t.Errorf("full reconciliations = %d, want 1", got)
	}
	st := e.Snapshot()
	if st.UnreadCount != 0 {
		t.Errorf("UnreadCount = %d, want 0", st.UnreadCount)
	}
	for _, item := range st.Items {
		if !item.IsRead {
			t.Errorf("item %s still unread after mark-all-read", item.ID)
		}
	}
}

func TestBulkDeleteRemovesBatchAndReconciles(t *testing.T) {
	f := &fakeAPI{
		listFn: func(_, _ int) (*api.NotificationPage, error) {
			return page(0, notif("c", true)), nil
		},
	}
	e := newTestEngine(t, f)
	seedEngine(t, e, 2,
		notif("a", false), notif("b", false), notif("c", true))

	if err := e.BulkDelete(context.Background(), []string{"a", "b"}); err != nil {
		t.Fatalf("BulkDelete: %v", err)
	}

	if got := f.mutationLog(); len(got) != 1 || got[0] != "bulk-delete" {
		t.Errorf("mutation log = %v, want one bulk-delete", got)
	}
	if got := f.listCallCount(); got != 1 {
		t.Errorf("full reconciliations = %d, want 1", got)
	}
	st := e.Snapshot()
	if len(st.Items) != 1 || st.Items[0].ID != "c" {
		t.Errorf("items = %+v, want only c", st.Items)
	}
}

func TestBulkMarkReadAppliesBatch(t *testing.T) {
	f := &fakeAPI{
		listFn: func(_, _ int) (*api.NotificationPage, error) {
			return page(1,
				notif("a", true), notif("b", true), notif("c", false)), nil
		},
	}
	e := newTestEngine(t, f)
	seedEngine(t, e, 3,
		notif("a", false), notif("b", false), notif("c", false))

	if err := e.BulkMarkRead(context.Background(), []string{"a", "b"}); err != nil {
		t.Fatalf("BulkMarkRead: %v", err)
	}

	st := e.Snapshot()
	if st.UnreadCount != 1 {
		t.Errorf("UnreadCount = %d, want 1", st.UnreadCount)
	}
	if !st.Items[0].IsRead || !st.Items[1].IsRead || st.Items[2].IsRead {
		t.Errorf("read flags wrong after bulk mark-read: %+v", st.Items)
	}
}

func TestBulkOpsWithEmptyBatchAreNoOps(t *testing.T) {
	f := &fakeAPI{}
	e := newTestEngine(t, f)
	seedEngine(t, e, 1, notif("a", false))

	if err := e.BulkDelete(context.Background(), nil); err != nil {
		t.Fatalf("BulkDelete: %v", err)
	}
	if err := e.BulkMarkRead(context.Background(), nil); err != nil {
		t.Fatalf("BulkMarkRead: %v", err)
	}
	if got := f.mutationLog(); len(got) != 0 {
		t.Errorf("empty batches hit the server: %v", got)
	}
}

func TestMutationsSkippedWhenNotUsable(t *testing.T) {
	f := &fakeAPI{}
	e := NewEngine(Options{API: f})
	t.Cleanup(e.Close)

	if err := e.MarkAsRead(context.Background(), "a"); err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}
	if err := e.DeleteNotification(context.Background(), "a"); err != nil {
		t.Fatalf("DeleteNotification: %v", err)
	}
	if got := f.mutationLog(); len(got) != 0 {
		t.Errorf("unusable engine sent mutations: %v", got)
	}
}

func TestMutationAuthErrorFlipsUsable(t *testing.T) {
	f := &fakeAPI{
		mutationFn: func(string) error {
			return &api.AuthError{Message: "expired"}
		},
	}
	e := newTestEngine(t, f)
	seedEngine(t, e, 1, notif("a", false))

	err := e.MarkAsRead(context.Background(), "a")
	if !api.IsAuthError(err) {
		t.Fatalf("err = %v, want AuthError", err)
	}
	if e.Usable() {
		t.Error("engine still usable after rejected mutation")
	}
	if got := len(e.Snapshot().Items); got != 0 {
		t.Errorf("state survived auth expiry: %d items", got)
	}
}
