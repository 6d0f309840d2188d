// Package notifications delivers inbox alerts via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set. The
// alert wording is shared with the viewer so the terminal banner and the push
// notification always read the same.
package notifications
