// Package preflight provides readiness checks for the filesystem paths and
// external services the editorial daemon depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll once at startup and logs every result. Failures
//     are reported as warnings; the daemon keeps serving.
//   - The CLI "editorial status" command prints the same results in its
//     System section and adds CheckStorage when the daemon is offline.
//
// Each check is gated by its config toggle; disabled features are reported
// as passing with a "disabled" detail.
package preflight
