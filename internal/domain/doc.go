// Package domain contains the core business entities, value objects, and
// domain logic of the application: users and their settings, posts,
// comments, categories, API keys and webhooks. It is independent of any
// specific infrastructure or delivery mechanism.
package domain
