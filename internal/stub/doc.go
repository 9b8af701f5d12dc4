// Package stub is a development stand-in for the remote auth server. It
// answers POST /api/auth/local with the same body shapes the dashboard
// expects and mints HS256 tokens with a fixed lifetime. It is not a
// production identity provider.
package stub
