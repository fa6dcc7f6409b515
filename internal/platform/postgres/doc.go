// Package postgres provides PostgreSQL implementations of the store
// interfaces. Queries are built with squirrel and run through database/sql
// on the pgx driver; driver errors are translated into store errors by
// MapError. Schema migrations are embedded and applied with goose.
package postgres
