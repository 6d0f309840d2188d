// Package instance keeps at most one viewer running per host.
//
// The viewer takes an exclusive advisory lock (gofrs/flock) on a well-known
// file for its whole lifetime and exits when the lock is already held. The
// watcher only probes: it checks whether that lock is held and, optionally,
// whether a process with the viewer's executable name exists
// (shirou/gopsutil). Probes are advisory; the viewer's own acquisition is
// what guarantees a single instance when two launches race.
package instance
