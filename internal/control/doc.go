// Package control implements the hub's HTTP control surface and the client
// used to consume it: health, status and stats reads, connection-info
// bootstrap, and synchronous message submission.
package control
