// Package textutil provides the small string helpers used to compare NZBGet
// categories with Plex section titles.
//
// Comparisons use full Unicode case folding (golang.org/x/text/cases) rather
// than strings.ToLower so that "Filme" and "FILME", or "Straße" and "STRASSE",
// compare equal the same way NZBGet users expect from the web UI.
package textutil
