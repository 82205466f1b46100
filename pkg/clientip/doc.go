// Package clientip resolves the originating client address behind reverse
// proxies. The signup service keys its flow-creation rate limit on it.
package clientip
