// Package notifications delivers run events via ntfy.
//
// NewService returns an ntfy publisher when a topic is configured and a no-op
// otherwise. Callers publish an Event with a Payload; the service formats the
// title, message, tags and priority and applies the configured suppression
// rules, so the pipeline never builds HTTP requests itself.
package notifications
