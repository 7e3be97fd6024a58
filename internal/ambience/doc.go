// Package ambience drives the background loop that plays underneath the
// voice sequence. The loop follows the sequence's playing flag and keeps its
// own volume.
package ambience
