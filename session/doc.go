// Package session provides the credential store that persists the durable proof of a
// dashboard session: the bearer token and the normalized user profile.
//
// # Storage layout
//
// Two keys are written through a [Backend]: [TokenKey] holds the raw bearer token and
// [UserKey] holds the JSON-encoded [Profile] (server timestamps excluded). A [Store]
// may be namespaced so a single backend can hold the credentials of many browser
// sessions.
//
// # Failure policy
//
// Writes surface failures as [*StorageError]. Reads and removals never fail
// observably: backend faults and corrupt profile JSON are logged and degrade to
// "no session".
//
// # Architecture boundaries
//
// This package owns persistence only. It does NOT decode token expiry (package jwt)
// or decide whether a session is authenticated (the Engine).
package session
