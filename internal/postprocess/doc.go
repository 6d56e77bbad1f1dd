// Package postprocess runs one NZBGet invocation end to end and maps the
// result to an NZBGet exit code.
//
// The silent-failure policy lives here and nowhere else: components return
// classified errors and ResolveOutcome decides whether an auth or
// connectivity failure is reported to NZBGet as success.
package postprocess
