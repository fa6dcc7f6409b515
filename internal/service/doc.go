// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and stores
// (defined in internal/store) to fulfill application features.
//
// Services receive their dependencies through constructor injection and
// never depend on a specific infrastructure implementation. Permission
// checks that depend on who is acting (owner, moderator, admin) live here
// rather than in the HTTP layer, so every caller gets the same rules.
//
// Error Handling:
//   - Expected conditions are sentinel errors (see errors.go) or store errors
//     wrapped with fmt.Errorf("...: %w", err)
//   - Callers classify errors with errors.Is; the API layer maps them to
//     HTTP status codes
package service
