// Package bmap implements a read-mostly map with []byte key type.
// The lexer uses it to classify matched lexemes without converting them to strings.
package bmap

import (
	"unsafe"
)

// BMap maps byte slice keys to values. Keys cannot be deleted.
// Added keys are copied into internal byte slice, so callers may reuse their buffers.
// A filled BMap is safe for concurrent reads.
type BMap[T any] struct {
	keys []byte
	smap map[string]T
}

// New creates bytes map, size is a capacity hint.
func New[T any](size int) *BMap[T] {
	return &BMap[T]{
		smap: make(map[string]T, size),
	}
}

// FromStrings creates bytes map filled with given entries.
func FromStrings[T any](entries map[string]T) *BMap[T] {
	m := New[T](len(entries))
	for k, v := range entries {
		m.Set([]byte(k), v)
	}
	return m
}

func key(k []byte) string {
	if len(k) == 0 {
		return ""
	}
	return unsafe.String(&k[0], len(k))
}

// Get returns stored value by key and a flag telling whether this key is stored in the map.
// Returns zero value if the key is not present.
func (m *BMap[T]) Get(k []byte) (T, bool) {
	result, has := m.smap[key(k)]
	return result, has
}

// Set adds or rewrites value for given key.
func (m *BMap[T]) Set(k []byte, value T) {
	if _, has := m.Get(k); has {
		// the map may replace stored key on update, so it must not alias caller's buffer
		m.smap[string(k)] = value
		return
	}

	if len(k) != 0 {
		ofs := len(m.keys)
		m.keys = append(m.keys, k...)
		k = m.keys[ofs : ofs+len(k)]
	}
	m.smap[key(k)] = value
}

// Len returns the number of stored keys.
func (m *BMap[T]) Len() int {
	return len(m.smap)
}
