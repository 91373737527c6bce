// Package ints implements a bit set of small non-negative integers.
// The resolver uses it to track definition ids on the current reference path.
package ints

const sizeShift = 5 + (^uint(0) >> 32 & 1)
const chunkSize = 1 << sizeShift

// Set is a growable bit set. Zero value is an empty set ready to use.
type Set struct {
	chunks []uint
}

// NewSet creates a set containing given items.
func NewSet(items ...int) *Set {
	return (&Set{}).Add(items...)
}

func chunkIndex(item int) int {
	return item >> sizeShift
}

func bitMask(item int) uint {
	return 1 << (uint(item) & (chunkSize - 1))
}

func (s *Set) allocate(item int) {
	index := chunkIndex(item)
	if index < len(s.chunks) {
		return
	}

	chunks := make([]uint, index+1)
	copy(chunks, s.chunks)
	s.chunks = chunks
}

// Add adds items to the set. Negative items are ignored.
func (s *Set) Add(items ...int) *Set {
	for _, item := range items {
		if item < 0 {
			continue
		}
		s.allocate(item)
		s.chunks[chunkIndex(item)] |= bitMask(item)
	}
	return s
}

// Remove removes items from the set.
func (s *Set) Remove(items ...int) *Set {
	for _, item := range items {
		if s.Contains(item) {
			s.chunks[chunkIndex(item)] &^= bitMask(item)
		}
	}
	return s
}

// Contains tells whether item is in the set.
func (s *Set) Contains(item int) bool {
	if item < 0 || chunkIndex(item) >= len(s.chunks) {
		return false
	}
	return s.chunks[chunkIndex(item)]&bitMask(item) != 0
}

// IsEmpty tells whether the set contains no items.
func (s *Set) IsEmpty() bool {
	for _, chunk := range s.chunks {
		if chunk != 0 {
			return false
		}
	}
	return true
}

// Len returns the number of items.
func (s *Set) Len() int {
	res := 0
	for _, chunk := range s.chunks {
		for chunk != 0 {
			res++
			chunk &= chunk - 1
		}
	}
	return res
}

// ToSlice returns items in ascending order.
func (s *Set) ToSlice() []int {
	res := make([]int, 0, s.Len())
	for i, chunk := range s.chunks {
		item := i << sizeShift
		for ; chunk != 0; chunk >>= 1 {
			if chunk&1 != 0 {
				res = append(res, item)
			}
			item++
		}
	}
	return res
}
