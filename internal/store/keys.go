package store

import "sync"

// Key namespaces. Document keys ("/authors/...", "/works/...",
// "/books/...") are opaque to the store and simply appended to the
// prefix.
const (
	docPrefix       = "doc:"
	indexPrefix     = "idx:"
	changesetPrefix = "changeset:"
)

// keyPool provides reusable byte slices for building database keys.
// This reduces allocations on the hot path of database operations.
var keyPool = sync.Pool{
	New: func() any {
		// Pre-allocate 256 bytes which covers most key sizes:
		// - Namespace prefix (4-10 bytes)
		// - Kind + field name (10-20 bytes)
		// - Document key (20-40 bytes)
		return make([]byte, 0, 256)
	},
}

// buildKey constructs a database key from prefix and suffix using a pooled buffer.
// Callers MUST call releaseKey when done with the key.
//
// Usage:
//
//	key := buildKey(docPrefix, docKey)
//	defer releaseKey(key)
//	item, err := txn.Get(key)
func buildKey(prefix, suffix string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0] // Reset length, keep capacity
	buf = append(buf, prefix...)
	buf = append(buf, suffix...)
	return buf
}

// indexKeyOwned constructs an inverted-index key. The layout is
//
//	idx:{kind}:{field}:{value}\x00{docKey}
//
// The NUL separator keeps the document-key suffix recoverable even
// though field values are themselves document keys containing slashes.
// The buffer is freshly allocated, not pooled: txn.Set and txn.Delete
// retain their key slices until commit.
func indexKeyOwned(kind, field, value, docKey string) []byte {
	buf := make([]byte, 0, len(indexPrefix)+len(kind)+len(field)+len(value)+len(docKey)+3)
	buf = append(buf, indexPrefix...)
	buf = append(buf, kind...)
	buf = append(buf, ':')
	buf = append(buf, field...)
	buf = append(buf, ':')
	buf = append(buf, value...)
	buf = append(buf, 0)
	buf = append(buf, docKey...)
	return buf
}

// indexScanPrefix is the prefix shared by every index entry for one
// (kind, field, value) triple, used for prefix iteration.
func indexScanPrefix(kind, field, value string) []byte {
	buf := make([]byte, 0, len(indexPrefix)+len(kind)+len(field)+len(value)+3)
	buf = append(buf, indexPrefix...)
	buf = append(buf, kind...)
	buf = append(buf, ':')
	buf = append(buf, field...)
	buf = append(buf, ':')
	buf = append(buf, value...)
	buf = append(buf, 0)
	return buf
}

// releaseKey returns a key buffer to the pool for reuse.
// After calling this, the key slice must not be used.
func releaseKey(key []byte) {
	// Only pool buffers that have reasonable capacity
	if cap(key) <= 512 {
		keyPool.Put(key[:0])
	}
}
