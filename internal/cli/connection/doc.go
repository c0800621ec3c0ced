// Package connection is the HTTP transport between minipay-cli and the
// payments backend.
//
// It owns the base URL, timeouts, trusted roots, common headers and request
// IDs. Responses are read fully and returned as a Response so callers can
// classify them by status without managing bodies.
package connection
