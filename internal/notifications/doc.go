// Package notifications pushes "Downloaded" pop-ups to Plex Home Theater
// clients through their JSON-RPC interface.
//
// Notification failures never fail post-processing; they are logged and the
// run continues with the library refresh.
package notifications
