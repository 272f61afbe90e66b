// Package api provides the Gin HTTP handlers for channels, schedule
// resolution, and library scans.
package api

// ErrorResponse represents an error returned by the API
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
