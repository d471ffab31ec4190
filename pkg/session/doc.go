// Package session maps opaque random tokens to signed-in users.
//
// A Manager issues a token on sign-in, hands it to the client through a
// Transport (Authorization bearer header, session cookie, or both) and
// resolves it back to a user ID on later requests. Tokens live in a Store:
// RedisStore for deployments, MemoryStore for development and tests. Both
// stores also keep one-time OAuth state values for Google sign-in.
//
// Middleware never rejects a request; it only puts the user ID into the
// context. Routes that need a user wrap themselves in RequireUser.
package session
