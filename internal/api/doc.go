// Package api is the HTTP client for the podcast backend. It implements
// session.Generator and session.Repository.
package api
