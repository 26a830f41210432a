package api

import "time"

// errorResponse is the service's standard error envelope.
type errorResponse struct {
	Detail string `json:"detail"`
}

// notificationRecord is the wire form of a single notification.
type notificationRecord struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// notificationListResponse is the envelope of GET /notifications/.
type notificationListResponse struct {
	Results     []notificationRecord `json:"results"`
	Count       int                  `json:"count"`
	Next        *string              `json:"next"`
	Previous    *string              `json:"previous"`
	UnreadCount int                  `json:"unread_count"`
	HasMore     *bool                `json:"has_more"`
	Page        int                  `json:"page"`
}

// unreadCountResponse is the envelope of GET /notifications/unread-count/.
type unreadCountResponse struct {
	Count int `json:"count"`
}

// bulkIDsRequest is the body of the bulk notification operations.
type bulkIDsRequest struct {
	NotificationIDs []string `json:"notification_ids"`
}

// campaignRecord is the wire form of a campaign summary.
type campaignRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	Participants int       `json:"participant_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// campaignListResponse is the envelope of GET /campaigns/.
type campaignListResponse struct {
	Results []campaignRecord `json:"results"`
	Count   int              `json:"count"`
	HasMore *bool            `json:"has_more"`
	Page    int              `json:"page"`
}
