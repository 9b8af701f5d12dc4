// Package dashauth is the authentication service behind the repair shop
// dashboard: it logs in against the remote auth endpoint, persists the bearer
// token and profile, and reports whether the stored session is still usable.
//
// The package is designed to be shared: Engine methods are safe to call from
// multiple goroutines after initialization through [Builder.Build]. Per-browser
// isolation is obtained with [Engine.WithNamespace].
//
// # Architecture boundaries
//
// dashauth is the public surface. It exposes [Engine], [Builder], [Config], and
// value types ([LoginResponse], [LoginResult], [Status]). Token decoding lives in
// package jwt, persistence in package session, and the reducer-driven state
// container in package authstate.
//
// # What this package must NOT do
//
//   - Verify token signatures. Validity is a local time check on the exp claim.
//   - Return errors from anything but [Engine.Login]. Every other Engine method is
//     total and degrades to a safe default, logging the fault.
//   - Import authstate, middleware or route (no import cycles).
//
// # Error classification
//
// [Engine.Login] returns a [*AuthError] in exactly three shapes: a server
// rejection (status and message passed through), a NetworkError with status 0
// when no response was received, and an UnknownError with status 500 for
// anything else.
package dashauth
