package api

import (
	"context"
	"fmt"

	"github.com/nhle/coffeemeet/internal/model"
)

// NotificationPage is one page of the notification list plus the
// counter metadata the server attaches to every list response.
type NotificationPage struct {
	Items []model.Notification
	Total int
	Page  int

	// HasMore is the server's pagination flag. Nil when the server
	// did not include one; callers then fall back to the full-page
	// heuristic.
	HasMore *bool

	UnreadCount int
}

// ListNotifications retrieves one page of the caller's notifications,
// newest first.
func (c *Client) ListNotifications(
	ctx context.Context,
	page, limit int,
) (*NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	var resp notificationListResponse
	path := fmt.Sprintf("/notifications/?page=%d&limit=%d", page, limit)
	if err := c.Get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}

	items := make([]model.Notification, 0, len(resp.Results))
	for _, r := range resp.Results {
		items = append(items, model.Notification{
			ID:        r.ID,
			Type:      model.ParseNotificationType(r.Type),
			Title:     r.Title,
			Message:   r.Message,
			IsRead:    r.IsRead,
			CreatedAt: r.CreatedAt,
		})
	}

	respPage := resp.Page
	if respPage == 0 {
		respPage = page
	}

	return &NotificationPage{
		Items:       items,
		Total:       resp.Count,
		Page:        respPage,
		HasMore:     resp.HasMore,
		UnreadCount: resp.UnreadCount,
	}, nil
}

// UnreadCount retrieves the number of unread notifications.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var resp unreadCountResponse
	if err := c.Get(ctx, "/notifications/unread-count/", &resp); err != nil {
		return 0, fmt.Errorf("fetching unread count: %w", err)
	}
	return resp.Count, nil
}

// MarkRead marks a single notification as read.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	path := fmt.Sprintf("/notifications/%s/mark-read/", id)
	if err := c.Patch(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	return nil
}

// MarkUnread marks a single notification as unread.
func (c *Client) MarkUnread(ctx context.Context, id string) error {
	path := fmt.Sprintf("/notifications/%s/mark-unread/", id)
	if err := c.Patch(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("marking notification %s unread: %w", id, err)
	}
	return nil
}

// MarkAllRead marks every notification as read.
func (c *Client) MarkAllRead(ctx context.Context) error {
	if err := c.Post(ctx, "/notifications/mark-all-read/", nil, nil); err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}
	return nil
}

// DeleteNotification deletes a single notification.
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	path := fmt.Sprintf("/notifications/%s/", id)
	if err := c.Delete(ctx, path); err != nil {
		return fmt.Errorf("deleting notification %s: %w", id, err)
	}
	return nil
}

// BulkDelete deletes a batch of notifications in one call.
func (c *Client) BulkDelete(ctx context.Context, ids []string) error {
	body := bulkIDsRequest{NotificationIDs: ids}
	if err := c.Post(ctx, "/notifications/bulk-delete/", body, nil); err != nil {
		return fmt.Errorf("bulk-deleting %d notifications: %w", len(ids), err)
	}
	return nil
}

// BulkMarkRead marks a batch of notifications as read in one call.
func (c *Client) BulkMarkRead(ctx context.Context, ids []string) error {
	body := bulkIDsRequest{NotificationIDs: ids}
	if err := c.Post(ctx, "/notifications/bulk-mark-read/", body, nil); err != nil {
		return fmt.Errorf("bulk-marking %d notifications read: %w", len(ids), err)
	}
	return nil
}
