// Package rate throttles failed logins on the development auth server with
// fixed-window Redis counters keyed by identifier and client IP.
package rate
