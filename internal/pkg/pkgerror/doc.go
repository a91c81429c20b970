// Package pkgerror defines the structured Error type returned by handlers.
//
// An Error carries a user-facing message, a high-level type and a stable code
// that the router maps to an HTTP status. Errors log as a slog group.
package pkgerror
