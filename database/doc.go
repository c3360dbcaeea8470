// Package database adapts the application's database configuration per client
// family (SQLite, MySQL, Postgres), opens a pooled Bun handle from it and
// caches that handle for the life of the process.
package database
