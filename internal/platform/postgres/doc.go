// Package postgres provides PostgreSQL implementations of the store
// interfaces. Static tables are managed by the schema registrar's embedded
// migrations; the per-workspace response tables are created at runtime, so
// this package builds those statements with validated dynamic identifiers.
package postgres
