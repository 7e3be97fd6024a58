// Package queue holds the ordered list of generated speech segments that the
// playback controller walks through. The queue only ever grows by appending a
// generated batch or is replaced wholesale when a session is loaded or reset.
package queue
