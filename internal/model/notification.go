package model

import "time"

// NotificationType categorizes a notification for display purposes.
// The server treats the set as open: values unknown to this client are
// normalized to TypeGeneric rather than rejected.
type NotificationType string

const (
	TypeCampaign   NotificationType = "campaign"
	TypeEvaluation NotificationType = "evaluation"
	TypeSystem     NotificationType = "system"
	TypeUser       NotificationType = "user"
	TypeMessage    NotificationType = "message"
	TypeAlert      NotificationType = "alert"
	TypeMeeting    NotificationType = "meeting"
	TypeGeneric    NotificationType = "generic"
)

// knownTypes maps raw server values, including a few legacy aliases,
// to their canonical NotificationType.
var knownTypes = map[string]NotificationType{
	"campaign":   TypeCampaign,
	"evaluation": TypeEvaluation,
	"system":     TypeSystem,
	"user":       TypeUser,
	"profile":    TypeUser,
	"message":    TypeMessage,
	"chat":       TypeMessage,
	"alert":      TypeAlert,
	"warning":    TypeAlert,
	"meeting":    TypeMeeting,
}

// ParseNotificationType normalizes a raw server type string. Unrecognized
// values fall back to TypeGeneric.
func ParseNotificationType(raw string) NotificationType {
	if t, ok := knownTypes[raw]; ok {
		return t
	}
	return TypeGeneric
}

// Notification is a server-issued inbox record. The authoritative copy
// lives on the server; the client holds a read-through cache that is
// mutated only after the server confirms a change.
type Notification struct {
	// ID is the opaque stable identifier issued by the server.
	ID string `json:"id" db:"id"`

	// Type categorizes the notification for badges and filtering.
	Type NotificationType `json:"type" db:"type"`

	// Title is the short headline shown in the inbox list.
	Title string `json:"title" db:"title"`

	// Message is the full notification body.
	Message string `json:"message" db:"message"`

	// IsRead indicates whether the user has acknowledged this notification.
	IsRead bool `json:"is_read" db:"is_read"`

	// CreatedAt is when the server generated the notification.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
