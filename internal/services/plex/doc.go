// Package plex talks to plex.tv and to the configured Plex Media Server.
//
// A Manager produces authenticated Sessions: it reuses the token cached in
// plex_auth.json when one exists, otherwise it signs in to plex.tv with the
// account credentials and asks plex.tv for a directly reachable plex.direct
// address of the server. Sessions list library sections, refresh them, and
// run the connection diagnostic.
//
// Every error returned here is tagged with one of the internal/services
// markers so the caller can decide whether silent-failure mode applies.
package plex
