// Package authstate holds the process-lifetime dashboard session state.
//
// [Reduce] is the only way a [State] changes. A [Container] owns one State,
// serializes dispatch and runs the side-effecting actions (login, logout,
// status check) against an [Authenticator], normally a *dashauth.Engine.
// [Lifecycle] performs the initial status check and, while the session is
// authenticated, re-validates the stored token on a fixed interval.
//
// Containers are constructed explicitly and passed to whatever needs them;
// there is no package-level instance.
//
// # What this package must NOT do
//
//   - Touch credential storage directly.
//   - Return errors or panic out of a Container action.
package authstate
