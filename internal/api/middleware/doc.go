// Package middleware holds the HTTP middleware mounted by the server
// router: authentication and role checks, tracing, request logging, rate
// limiting, security headers, CORS, maintenance mode and panic recovery.
package middleware
