// Package cache keeps downloaded segment audio in memory so skipping back
// within a run does not hit the network again. Nothing is written to disk.
package cache
