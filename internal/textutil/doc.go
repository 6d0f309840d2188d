// Package textutil prepares submission text for terminal display.
//
// Submissions arrive from a public form, so names and messages may carry
// control characters or escape sequences. Everything rendered by the CLI and
// the viewer goes through Clean first.
package textutil
