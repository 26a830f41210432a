package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/nhle/coffeemeet/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-token", "client-1"), srv
}

func TestRequestHeaders(t *testing.T) {
	var gotAuth, gotClientID, gotAccept string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotClientID = r.Header.Get("X-Client-ID")
		gotAccept = r.Header.Get("Accept")
		fmt.Fprint(w, `{"count": 0}`)
	}))

	if _, err := c.UnreadCount(context.Background()); err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}

	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotClientID != "client-1" {
		t.Errorf("X-Client-ID = %q", gotClientID)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q", gotAccept)
	}
}

func TestSetTokenReplacesBearer(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"count": 0}`)
	}))

	c.SetToken("rotated")
	if _, err := c.UnreadCount(context.Background()); err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if gotAuth != "Bearer rotated" {
		t.Errorf("Authorization = %q, want rotated token", gotAuth)
	}
}

func TestUnauthorizedReturnsAuthError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "invalid token"}`, http.StatusUnauthorized)
	}))

	_, err := c.UnreadCount(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsAuthError(err) {
		t.Errorf("IsAuthError(%v) = false, want true", err)
	}

	// An unrelated error must not match.
	if IsAuthError(errors.New("timeout")) {
		t.Error("IsAuthError matched a plain error")
	}
}

func TestRateLimitedRequestIsRetried(t *testing.T) {
	var attempts atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"count": 3}`)
	}))

	count, err := c.UnreadCount(context.Background())
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
	if got := attempts.Load(); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
}

func TestErrorEnvelopeDetailSurfaces(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"detail": "campaign already closed"}`)
	}))

	err := c.MarkAllRead(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if want := "campaign already closed"; !strings.Contains(err.Error(), want) {
		t.Errorf("err = %q, want it to mention %q", err, want)
	}
}

func TestListNotificationsMapsResponse(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/notifications/" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("limit") != "10" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{
			"results": [
				{"id": "n1", "type": "campaign", "title": "Matches ready", "is_read": false},
				{"id": "n2", "type": "wat", "title": "Unknown kind", "is_read": true}
			],
			"count": 12,
			"unread_count": 4,
			"has_more": true,
			"page": 2
		}`)
	}))

	res, err := c.ListNotifications(context.Background(), 2, 10)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}

	if len(res.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(res.Items))
	}
	if res.Items[0].Type != model.TypeCampaign {
		t.Errorf("type = %q, want campaign", res.Items[0].Type)
	}
	// Unknown server-side types degrade to generic, never an error.
	if res.Items[1].Type != model.TypeGeneric {
		t.Errorf("unknown type = %q, want generic", res.Items[1].Type)
	}
	if res.Total != 12 || res.UnreadCount != 4 || res.Page != 2 {
		t.Errorf("metadata = total %d unread %d page %d", res.Total, res.UnreadCount, res.Page)
	}
	if res.HasMore == nil || !*res.HasMore {
		t.Errorf("HasMore = %v, want true", res.HasMore)
	}
}

func TestListNotificationsHasMoreAbsent(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results": [], "count": 0}`)
	}))

	res, err := c.ListNotifications(context.Background(), 1, 20)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if res.HasMore != nil {
		t.Errorf("HasMore = %v, want nil when the server omits it", *res.HasMore)
	}
}

func TestMutationRoutes(t *testing.T) {
	type call struct {
		method, path string
		body         []byte
	}
	var calls []call
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, call{r.Method, r.URL.Path, body})
		w.WriteHeader(http.StatusNoContent)
	}))

	ctx := context.Background()
	if err := c.MarkRead(ctx, "n1"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if err := c.MarkUnread(ctx, "n1"); err != nil {
		t.Fatalf("MarkUnread: %v", err)
	}
	if err := c.MarkAllRead(ctx); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if err := c.DeleteNotification(ctx, "n1"); err != nil {
		t.Fatalf("DeleteNotification: %v", err)
	}
	if err := c.BulkDelete(ctx, []string{"n1", "n2"}); err != nil {
		t.Fatalf("BulkDelete: %v", err)
	}

	want := []struct {
		method, path string
	}{
		{http.MethodPatch, "/notifications/n1/mark-read/"},
		{http.MethodPatch, "/notifications/n1/mark-unread/"},
		{http.MethodPost, "/notifications/mark-all-read/"},
		{http.MethodDelete, "/notifications/n1/"},
		{http.MethodPost, "/notifications/bulk-delete/"},
	}
	if len(calls) != len(want) {
		t.Fatalf("calls = %d, want %d", len(calls), len(want))
	}
	for i, w := range want {
		if calls[i].method != w.method || calls[i].path != w.path {
			t.Errorf("call %d = %s %s, want %s %s",
				i, calls[i].method, calls[i].path, w.method, w.path)
		}
	}

	var bulk bulkIDsRequest
	if err := json.Unmarshal(calls[4].body, &bulk); err != nil {
		t.Fatalf("decoding bulk body: %v", err)
	}
	if len(bulk.NotificationIDs) != 2 || bulk.NotificationIDs[0] != "n1" {
		t.Errorf("bulk body = %+v", bulk)
	}
}

func TestListCampaignsMapsResponse(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/campaigns/" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, `{
			"results": [
				{"id": "c1", "name": "August pairing", "status": "active", "participant_count": 42}
			],
			"count": 1,
			"has_more": false
		}`)
	}))

	res, err := c.ListCampaigns(context.Background(), 1, 20)
	if err != nil {
		t.Fatalf("ListCampaigns: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Participants != 42 {
		t.Errorf("items = %+v", res.Items)
	}
	if res.HasMore == nil || *res.HasMore {
		t.Errorf("HasMore = %v, want false", res.HasMore)
	}
	// Server omitted the page; the requested one is assumed.
	if res.Page != 1 {
		t.Errorf("Page = %d, want 1", res.Page)
	}
}
