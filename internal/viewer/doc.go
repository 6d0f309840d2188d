// Package viewer holds the presentation-independent core of the inbox viewer.
//
// A Session owns the detector high-water marks, the currently displayed
// record set, and the refresh phase. Store reads happen in Fetch, which is
// safe to run off the event loop; Apply folds the result back in on the loop
// so presentation and detector state always change together. Only one fetch
// is in flight at a time: timer ticks that arrive meanwhile are dropped and
// manual reloads are coalesced into a single follow-up.
//
// A failed fetch halts automatic polling for the rest of the session. Manual
// reloads keep working.
package viewer
