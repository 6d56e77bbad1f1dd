// Package services defines the error markers shared by the Plex integration,
// the section resolver, and the post-processing workflow.
//
// Key responsibilities:
//   - Sentinel markers (auth, connectivity, unknown server, configuration,
//     permission) that classify every failure exactly once.
//   - The Wrap helper that attaches component/operation context to a failure
//     without losing its marker.
//   - Recoverable, which tells the workflow boundary whether silent-failure
//     mode is allowed to turn a failure into a successful exit.
//
// Use these helpers when adding new remote calls so the outcome mapping in
// the postprocess package keeps working without per-call special cases.
package services
