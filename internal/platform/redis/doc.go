// Package redis provides the go-redis backed rate limit window store, used
// when several API instances must share one request budget per client.
package redis
