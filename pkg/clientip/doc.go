// Package clientip resolves the client address of an HTTP request behind
// reverse proxies.
//
// Proxy headers are trusted as-is, so only use the result for logging and
// rate limiting when the service runs behind a proxy that overwrites them.
package clientip
