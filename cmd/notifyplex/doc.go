// Package main hosts the NotifyPlex entrypoint.
//
// NZBGet runs the binary without arguments after every download and for the
// buttons on the script settings page; the command it wants is read from
// NZBCP_COMMAND. The same operations are exposed as subcommands for use from
// a terminal. Exit codes follow the NZBGet post-processing convention: 93
// success, 94 error, 95 nothing done.
package main
