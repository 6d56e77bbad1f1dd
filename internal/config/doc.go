// Package config loads, normalizes, and validates NotifyPlex configuration.
//
// Settings come from three layers: repository defaults, an optional TOML file,
// and the NZBGet environment (NZBPO_* script options, NZBPP_* download
// details, NZBPR__DNZB_* direct-NZB headers, NZBCP_COMMAND). The environment
// always wins so the NZBGet settings page stays the source of truth.
//
// The resulting Config is built once at process entry and passed explicitly to
// every component; no other package reads the environment.
package config
