// Package api exposes accounts and subscriptions over JSON HTTP.
//
// Every response uses the same envelope:
//
//	{"data": {...}}
//	{"error": {"code": "invalid_state", "message": "...", "details": {...}}}
//
// Error codes follow subscription.KindOf; account failures map onto the same
// codes plus "unauthorized". Signed-in routes accept a bearer token or the
// session cookie issued by /auth/signup, /auth/login and the Google callback.
package api
