package model

import "time"

// Campaign is a coffee-meeting campaign record as returned by the
// campaign history endpoint. The console only browses campaigns; all
// editing happens server-side.
type Campaign struct {
	// ID is the campaign's server identifier.
	ID string `json:"id"`

	// Name is the campaign display name.
	Name string `json:"name"`

	// Status is the server-reported lifecycle state
	// (e.g., "draft", "active", "completed").
	Status string `json:"status"`

	// Participants is the number of enrolled participants.
	Participants int `json:"participant_count"`

	// CreatedAt is when the campaign was created.
	CreatedAt time.Time `json:"created_at"`
}
