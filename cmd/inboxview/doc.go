// Command inboxview is the inbox viewer. It lists submissions, lets the
// operator mark them read, and polls the store for new arrivals, raising an
// alert only when genuinely new submissions appear.
//
// Only one viewer runs at a time: a second invocation exits quietly while
// another holds the instance lock. Use --headless to poll and alert without
// a terminal UI.
package main
