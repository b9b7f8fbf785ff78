// Package middleware contains the chi middleware stack: bearer token
// authentication, trace IDs, CORS, per-client rate limiting and HTTP
// metrics.
package middleware
