// Package audio provides the voice deck and ambience loop used by playback.
// Output goes through a single oto/v3 context; files are decoded with beep.
// The Silent backend simulates both without an audio device.
package audio
