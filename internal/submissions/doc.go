// Package submissions reads and updates the shared submission store.
//
// The store is an external table of form submissions written by some other
// producer. This package counts unread rows for the watcher, lists every row
// for the viewer, and flips the one-way read flag when an operator
// acknowledges a submission. SQLite (modernc.org/sqlite) and PostgreSQL
// (lib/pq) are supported; the driver is chosen from the DSN. Table and
// column names are configurable so pre-existing stores can be used as-is.
package submissions
