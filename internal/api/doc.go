// Package api holds the HTTP handlers. Handlers decode and validate input,
// call the services, and translate results and errors into the JSON
// envelope defined in internal/api/shared.
package api
