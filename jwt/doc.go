// Package jwt reads the expiry of dashboard bearer tokens and mints HS256 tokens
// for the development auth server.
//
// [Codec] never verifies signatures. The dashboard is a client of the auth
// server and only needs to know whether a stored token is still time-valid, so
// the header and signature segments are ignored and only the payload's exp
// claim is consulted. Malformed input of any shape yields an invalid result and
// never panics.
//
// [Issuer] is the server-side counterpart used by the stub server and tests.
package jwt
