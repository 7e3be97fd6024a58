// Package devserver is a local stand-in for the podcast backend. It speaks
// the same HTTP API, writes sessions under a directory the way the real
// backend does, and synthesizes placeholder audio instead of calling a
// speech model.
package devserver
