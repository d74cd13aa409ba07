// Package history implements persistence for detection events.
//
// The SQLiteRepository stores events in a local database file next to the
// configuration and exposes a Repository interface that the monitor and
// analyzer services depend on.
package history
