// Package store contains the database layer for srcbook.
package store

import "time"

// PendingRun is a run submission awaiting moderator review on speedrun.com.
// BookedBy is never taken from upstream; it is always filled from local bookings.
type PendingRun struct {
	ID             string  `json:"id"`
	GameID         string  `json:"game_id,omitempty"`
	Weblink        string  `json:"weblink"`
	Comment        string  `json:"comment"`
	PlayerName     string  `json:"player_name"`
	PlayerLocation string  `json:"player_location,omitempty"`
	PlayerURL      string  `json:"player_url"`
	Category       string  `json:"category,omitempty"`
	BookedBy       *string `json:"booked_by"`
	Submitted      string  `json:"submitted"`
	Times          string  `json:"times"`
}

// Booking is a local advisory claim of a run by a moderator.
type Booking struct {
	RunID     string
	Moderator string
}

// User is a locally registered moderator credential.
type User struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
