// Package requestid tags every HTTP request with an identifier.
//
// Middleware accepts a well-formed X-Request-ID from the caller or generates a
// UUID, echoes it on the response and stores it in the request context.
// LogExtractor feeds it to the logger so every record written while serving
// the request carries request_id.
package requestid
