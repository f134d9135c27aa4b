// Package services holds small cross-cutting helpers shared by the daemon,
// API and CLI: context keys for request and manuscript ids, and sentinel
// infrastructure errors with the Wrap helper that tags failures for
// retry decisions.
package services
