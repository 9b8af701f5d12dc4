// Package middleware turns route access decisions into navigation.
//
// # Guards
//
//   - [Guard] re-evaluates one view's path whenever the session state changes
//     and reports a render-ready [GuardResult], redirecting through a Navigator.
//   - [RequireRoute] is the net/http form used by the dashboard server: it
//     answers denied requests with 303 redirects or 403.
//   - [RequireAuth] only checks that a session is authenticated.
//
// # Architecture boundaries
//
// Decisions come from route.Table.CheckAccess; session state comes from an
// authstate.Container or a per-request resolver. This package holds no
// credentials.
//
// # What this package must NOT do
//
//   - Read or write the credential store.
//   - Decide access beyond what route.Table reports.
package middleware
