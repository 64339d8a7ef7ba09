// Package notifications delivers run events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set. Batch
// code depends only on the Service interface; the BatchNotifier adapter makes
// delivery fire-and-forget so a down ntfy server never affects a run.
package notifications
