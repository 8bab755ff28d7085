package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey builds a namespaced key, e.g. CacheKey("extract", url)
func CacheKey(namespace, value string) string {
	hash := sha256.Sum256([]byte(value))
	return "verdict:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}
