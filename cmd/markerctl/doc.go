// Package main implements markerctl, a stand-in scanner that writes marker
// events into the directory watched by the server.
//
// Usage:
//
//	id=$(markerctl add "https://example.com")
//	markerctl update "$id"
//	markerctl remove "$id"
package main
