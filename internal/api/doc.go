// Package api implements the HTTP handlers for the task board:
// authentication, the per-user board operations, the admin assignment
// surface and AI template generation. Handlers decode and validate
// requests, delegate to the services, and translate service errors
// into sanitized HTTP responses.
package api
