// Package ratelimiter provides token bucket rate limiting with in-memory and
// Redis storage plus HTTP middleware.
//
// A bucket holds up to Capacity tokens and regains RefillRate tokens every
// RefillInterval. Each request takes one token; when the bucket is empty the
// request is denied and the bucket is left as it was.
//
// # Usage
//
//	store := ratelimiter.NewMemoryStore()
//	defer store.Close()
//
//	limiter, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       10,
//		RefillRate:     1,
//		RefillInterval: 6 * time.Second,
//	})
//	if err != nil {
//		return err
//	}
//
//	r.With(ratelimiter.Middleware(limiter, keyFunc)).Post("/auth/signin", h)
//
// Use NewRedisStore when several instances must share one limit. The Redis
// backend runs the refill and consume steps in a single Lua script.
//
// The middleware sets X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset on every response and Retry-After on denied ones.
package ratelimiter
