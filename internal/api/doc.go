// Package api exposes the HTTP surface of the service. Handlers decode and
// validate requests, resolve the calling principal from the request context,
// delegate to the service layer, and translate results and errors into the
// JSON envelope defined in package shared.
package api
