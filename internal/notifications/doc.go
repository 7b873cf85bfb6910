// Package notifications delivers pipeline events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set. Event
// categories (queue lifecycle, stage completions, errors, review requests) can
// be toggled individually in the [notifications] config section, so stage
// handlers publish unconditionally and the service decides what goes out.
//
// Extend this package if you need alternative transports; all workflow code
// depends only on the simple Service interface.
package notifications
