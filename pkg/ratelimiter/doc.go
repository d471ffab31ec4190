// Package ratelimiter implements a token bucket limiter with in-memory and
// Redis stores, and an HTTP middleware that applies it per client key.
//
// The API uses it to slow down password guessing on the sign-in and sign-up
// endpoints:
//
//	bucket, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), cfg)
//	r.With(ratelimiter.Middleware(bucket, ratelimiter.ByClientIP, deny, nil)).Post("/auth/login", login)
package ratelimiter
