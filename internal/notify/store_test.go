package notify

import (
	"testing"

	"github.com/nhle/coffeemeet/internal/model"
)

func notif(id string, read bool) model.Notification {
	return model.Notification{
		ID:     id,
		Type:   model.TypeCampaign,
		Title:  "title " + id,
		IsRead: read,
	}
}

func seedStore(t *testing.T, items []model.Notification, unread int) *Store {
	t.Helper()
	s := NewStore()
	s.ReplaceAll(items, unread, Pagination{Page: 1, Limit: 20, Total: len(items)})
	return s
}

func TestUnreadCountNeverNegative(t *testing.T) {
	s := NewStore()

	s.SetUnreadCount(-3)
	if got := s.Snapshot().UnreadCount; got != 0 {
		t.Errorf("SetUnreadCount(-3) left %d, want 0", got)
	}

	// Removing an unread item while the counter is already zero must not
	// underflow.
	s.ReplaceAll([]model.Notification{notif("a", false)}, 0, Pagination{})
	s.Remove("a")
	if got := s.Snapshot().UnreadCount; got != 0 {
		t.Errorf("UnreadCount = %d after underflowing Remove, want 0", got)
	}

	s.ReplaceAll([]model.Notification{notif("b", false)}, 0, Pagination{})
	s.SetReadState("b", true)
	if got := s.Snapshot().UnreadCount; got != 0 {
		t.Errorf("UnreadCount = %d after underflowing SetReadState, want 0", got)
	}
}

func TestSetReadStateAdjustsCounter(t *testing.T) {
	s := seedStore(t, []model.Notification{
		notif("a", false),
		notif("b", false),
		notif("c", true),
	}, 2)

	s.SetReadState("a", true)
	st := s.Snapshot()
	if st.UnreadCount != 1 {
		t.Errorf("UnreadCount = %d, want 1", st.UnreadCount)
	}
	if !st.Items[0].IsRead {
		t.Error("item a should be read")
	}

	// Same transition again is a no-op, counter included.
	s.SetReadState("a", true)
	if got := s.Snapshot().UnreadCount; got != 1 {
		t.Errorf("repeated SetReadState moved counter to %d, want 1", got)
	}

	s.SetReadState("a", false)
	if got := s.Snapshot().UnreadCount; got != 2 {
		t.Errorf("UnreadCount = %d after mark-unread, want 2", got)
	}
}

func TestSetReadStateAbsentIDIsNoOp(t *testing.T) {
	s := seedStore(t, []model.Notification{notif("a", false)}, 1)

	before := s.Snapshot()
	s.SetReadState("missing", true)
	after := s.Snapshot()

	if after.UnreadCount != before.UnreadCount {
		t.Errorf("counter moved %d -> %d for absent id",
			before.UnreadCount, after.UnreadCount)
	}
	if after.Items[0].IsRead != before.Items[0].IsRead {
		t.Error("unrelated item flipped for absent id")
	}
}

func TestRemoveDecrementsOnlyForUnread(t *testing.T) {
	s := seedStore(t, []model.Notification{
		notif("a", false),
		notif("b", true),
	}, 1)

	s.Remove("b")
	st := s.Snapshot()
	if st.UnreadCount != 1 {
		t.Errorf("removing a read item moved counter to %d, want 1", st.UnreadCount)
	}
	if len(st.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(st.Items))
	}

	s.Remove("a")
	st = s.Snapshot()
	if st.UnreadCount != 0 {
		t.Errorf("removing an unread item left counter %d, want 0", st.UnreadCount)
	}
	if len(st.Items) != 0 {
		t.Errorf("items = %d, want 0", len(st.Items))
	}

	// Absent id: no-op.
	s.Remove("a")
	if got := s.Snapshot().UnreadCount; got != 0 {
		t.Errorf("removing absent id moved counter to %d", got)
	}
}

func TestMarkAllReadIdempotent(t *testing.T) {
	s := seedStore(t, []model.Notification{
		notif("a", false),
		notif("b", false),
		notif("c", true),
	}, 2)

	for i := 0; i < 2; i++ {
		s.MarkAllRead()
		st := s.Snapshot()
		if st.UnreadCount != 0 {
			t.Errorf("pass %d: UnreadCount = %d, want 0", i, st.UnreadCount)
		}
		for _, item := range st.Items {
			if !item.IsRead {
				t.Errorf("pass %d: item %s still unread", i, item.ID)
			}
		}
	}
}

func TestAddOnePrependsAndCounts(t *testing.T) {
	s := seedStore(t, []model.Notification{notif("old", true)}, 0)

	s.AddOne(notif("new", false))
	st := s.Snapshot()
	if st.Items[0].ID != "new" {
		t.Errorf("head = %s, want new", st.Items[0].ID)
	}
	if st.UnreadCount != 1 {
		t.Errorf("UnreadCount = %d, want 1", st.UnreadCount)
	}

	s.AddOne(notif("read", true))
	if got := s.Snapshot().UnreadCount; got != 1 {
		t.Errorf("adding a read item moved counter to %d, want 1", got)
	}
}

func TestAppendPageKeepsCounterAndClearsLoadingMore(t *testing.T) {
	s := seedStore(t, []model.Notification{notif("a", false)}, 3)
	s.SetLoadingMore(true)

	s.AppendPage([]model.Notification{notif("b", false), notif("c", true)},
		Pagination{Page: 2, Limit: 20, Total: 3})

	st := s.Snapshot()
	if len(st.Items) != 3 {
		t.Errorf("items = %d, want 3", len(st.Items))
	}
	if st.UnreadCount != 3 {
		t.Errorf("AppendPage moved counter to %d, want 3", st.UnreadCount)
	}
	if st.LoadingMore {
		t.Error("LoadingMore still set after AppendPage")
	}
	if st.Pagination.Page != 2 {
		t.Errorf("Pagination.Page = %d, want 2", st.Pagination.Page)
	}
}

func TestSetErrorClearsBothLoadingFlags(t *testing.T) {
	s := NewStore()
	s.SetLoading(true)
	s.SetLoadingMore(true)

	s.SetError("connection refused")

	st := s.Snapshot()
	if st.Loading || st.LoadingMore {
		t.Error("loading flags survived SetError")
	}
	if st.Error != "connection refused" {
		t.Errorf("Error = %q", st.Error)
	}
}

func TestReplaceAllClearsErrorAndStampsFetchTime(t *testing.T) {
	s := NewStore()
	s.SetError("stale failure")
	s.SetLoading(true)

	s.ReplaceAll([]model.Notification{notif("a", false)}, 1,
		Pagination{Page: 1, Limit: 20, Total: 1})

	st := s.Snapshot()
	if st.Error != "" {
		t.Errorf("Error = %q, want empty", st.Error)
	}
	if st.Loading {
		t.Error("Loading survived ReplaceAll")
	}
	if st.LastFetchAt.IsZero() {
		t.Error("LastFetchAt not stamped")
	}
}

func TestResetReturnsToInitialState(t *testing.T) {
	s := seedStore(t, []model.Notification{notif("a", false)}, 1)
	s.SetError("boom")

	s.Reset()

	st := s.Snapshot()
	if len(st.Items) != 0 || st.UnreadCount != 0 || st.Error != "" ||
		!st.LastFetchAt.IsZero() || st.Pagination != (Pagination{}) {
		t.Errorf("Reset left non-zero state: %+v", st)
	}
}

func TestSnapshotIsolatedFromStore(t *testing.T) {
	s := seedStore(t, []model.Notification{notif("a", false)}, 1)

	snap := s.Snapshot()
	snap.Items[0].IsRead = true

	if s.Snapshot().Items[0].IsRead {
		t.Error("mutating a snapshot leaked into the store")
	}
}
