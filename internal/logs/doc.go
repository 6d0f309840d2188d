// Package logs reads the daily log files written by inboxwatch and inboxview.
//
// Tail returns the last lines of a file with bounded memory and remembers the
// byte offset so a caller can continue from there. Follow keeps reading as
// lines arrive and moves on to the next day's file when the logger rolls
// over at midnight.
package logs
