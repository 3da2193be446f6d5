// Package postgres implements the store interfaces on PostgreSQL through the
// pgx stdlib driver, and embeds the goose migrations for the learner,
// question, content and history tables.
package postgres
