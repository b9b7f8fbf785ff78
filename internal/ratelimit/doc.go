// Package ratelimit implements a sliding-window request limiter.
//
// The Limiter holds the policy (how many requests per window) and delegates
// bookkeeping to a Store. MemoryStore keeps windows in process; the redis
// store in internal/platform/redis shares them across instances.
package ratelimit
