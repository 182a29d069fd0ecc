package store

import (
	"strconv"
	"sync"
)

// Key prefixes.
const (
	docPrefix        = "doc:"
	metaPrefix       = "meta:"
	metaDimensionKey = metaPrefix + "dimension"
)

// keyPool provides reusable byte slices for building database keys.
var keyPool = sync.Pool{
	New: func() any {
		// "doc:" plus a 13 digit isbn fits comfortably.
		return make([]byte, 0, 64)
	},
}

// buildKey constructs a database key from prefix and suffix using a pooled buffer.
// Callers MUST call releaseKey when done with the key.
//
// Usage:
//
//	key := buildKey(docPrefix, "9780002005883")
//	defer releaseKey(key)
//	item, err := txn.Get(key)
func buildKey(prefix, suffix string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	buf = append(buf, prefix...)
	buf = append(buf, suffix...)
	return buf
}

// releaseKey returns a key buffer to the pool for reuse.
// After calling this, the key slice must not be used.
func releaseKey(key []byte) {
	if cap(key) <= 512 {
		keyPool.Put(key[:0])
	}
}

// docKey returns an unpooled key, for keys handed to a WriteBatch which retains them.
func docKey(isbn13 int64) []byte {
	return strconv.AppendInt([]byte(docPrefix), isbn13, 10)
}

// isbnFromKey parses the isbn13 suffix of a document key.
func isbnFromKey(key []byte) (int64, error) {
	return strconv.ParseInt(string(key[len(docPrefix):]), 10, 64)
}
