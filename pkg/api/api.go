// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and the server.
package api

// Run is a pending run as served by /pending, /cached and /deleted.
type Run struct {
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

// PendingResponse maps game id to that game's pending runs.
type PendingResponse map[string][]Run

// GamesResponse maps tracked game id to display name.
type GamesResponse map[string]string

// CleanupResponse lists the run ids removed by a cleanup pass.
type CleanupResponse struct {
	Deleted []string `json:"deleted"`
}

// AuthResponse carries the identity resolved from the caller's credentials.
type AuthResponse struct {
	Username string `json:"username"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Err string `json:"err"`
}
