package directory

import "github.com/muurk/nameloc/internal/roster"

// LocationsResponse is the body of GET /api/v1/locations
type LocationsResponse struct {
	Locations []roster.Location `json:"locations"`
}

// NameCheckResponse is the body of GET /api/v1/names/check
type NameCheckResponse struct {
	Name  string `json:"name"`
	Valid bool   `json:"valid"`
}

// ErrorResponse is the body of any non-200 API response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Websocket frame types
const (
	FrameLocations   = "locations"
	FrameCheckName   = "check_name"
	FrameNameChecked = "name_checked"
	FrameError       = "error"
)

// Request is a client-to-server websocket frame
type Request struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// Response is a server-to-client websocket frame. ID echoes the request it
// answers.
type Response struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Locations []roster.Location `json:"locations,omitempty"`
	Name      string            `json:"name,omitempty"`
	Valid     bool              `json:"valid,omitempty"`
	Error     string            `json:"error,omitempty"`
}
