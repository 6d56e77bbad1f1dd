// Package logging assembles the slog loggers used by notifyplex.
//
// NZBGet captures the standard output of post-processing scripts and parses
// a leading [INFO], [WARNING], [ERROR] or [DETAIL] marker on every line, so the
// default handler writes exactly that shape. Operators running the binary by
// hand get a timestamped console layout instead, and a JSON handler is
// available for log shippers.
package logging
