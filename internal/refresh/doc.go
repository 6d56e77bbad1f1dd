// Package refresh decides which Plex library sections a finished download
// belongs to and asks the server to scan them.
//
// Four policies exist. Auto matches the NZBGet category against the movie and
// TV category lists and refreshes every section of the matching kind. Custom
// refreshes a fixed list of section numbers. Advanced maps categories to
// section titles. Both runs Custom and then Auto.
package refresh
