// Package postgres provides PostgreSQL-backed implementations of the
// application's persistence interfaces. It currently holds the authoritative
// daily quota store used by admission control.
package postgres
