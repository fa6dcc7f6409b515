// Package ratelimit throttles clients with a sliding window log. Admitted
// request timestamps are kept per key in a Store, either in process memory
// or in Redis sorted sets so several API instances share one budget.
// TokenBucket offers a cheaper burst-tolerant limiter for login attempts.
package ratelimit
