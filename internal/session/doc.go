// Package session ties the segment queue and playback controller to the
// generation backend and the persisted session history.
//
// Every operation is split into a fetch half, which only talks to the
// backend and may run off the event loop, and an apply half, which mutates
// state and must run on it. The synchronous wrappers (ListSessions,
// LoadSession, Generate) chain both for callers that have no event loop.
package session
