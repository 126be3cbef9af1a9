// Package postgres implements every repository interface the core
// packages define against a single PostgreSQL schema.
//
// Each file owns one table/entity and is named after it. Queries are
// hand-written and parameterized; there is no ORM in this codebase, per
// the teacher's pattern in internal/repository/postgres.
package postgres
