// Package server runs the registry HTTP API.
//
// A Manager owns one http.Server whose gin router carries the shared
// middleware chain (recovery, request logging, CORS, per-client rate
// limiting). Route providers such as api.Handlers attach their routes to
// that router before Start.
package server
