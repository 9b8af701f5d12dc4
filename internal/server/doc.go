// Package server is the dashboard's backend-for-frontend. Each browser gets
// an opaque id cookie; its credentials live in the engine's store under that
// id, so the token never reaches the browser. Pages are guarded by the route
// table and rendered server side.
package server
