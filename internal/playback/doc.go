// Package playback implements the sequence playback state machine: which
// segment is selected, whether the sequence is playing, and the lifecycle of
// the voice track bound to the selected segment.
//
// Every operation is an explicit transition that sets the index and the
// playing flag, reconciles the bound track, and then notifies observers with
// the before and after positions. The controller is not safe for concurrent
// use; it is meant to be driven from a single event loop.
package playback
