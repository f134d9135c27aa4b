// Package main hosts the editorial CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP calls
// against the editorial daemon: submitting and moving manuscripts, reading the
// reviewer and editor rosters, rating, dashboard statistics, snapshot export
// and daemon lifecycle control. Configuration resolution and API client setup
// live in the command context so subcommands can focus on presentation.
package main
