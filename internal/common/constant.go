package common

// TokenEntropyBytes is the number of random bytes behind every single-use
// token handed out in reset and verification links.
const TokenEntropyBytes = 32

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"
