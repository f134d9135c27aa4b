// Package notifications delivers editorial workflow events via ntfy.
//
// The default implementation publishes to the ntfy topic configured in
// config.toml and degrades to a no-op when no topic is set. Event categories
// can be switched off individually. Dispatcher subscribes to committed store
// mutations and delivers them from a background goroutine so a slow ntfy
// server never delays a store mutation.
package notifications
