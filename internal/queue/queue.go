// Package queue implements a FIFO ring buffer used for breadth-first traversals.
package queue

const minSize = 3

// Queue is a growable FIFO ring buffer. size is always 2^n - 1 and is used as index mask.
type Queue[T any] struct {
	items      []T
	size       int
	head, tail int
	zero       T
}

// New creates a queue containing given items.
func New[T any](items ...T) *Queue[T] {
	q := &Queue[T]{size: computeSize(len(items))}
	q.items = make([]T, q.size+1)
	q.tail = copy(q.items, items)
	return q
}

// IsEmpty tells whether the queue has no items.
func (q *Queue[T]) IsEmpty() bool {
	return q.head == q.tail
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return (q.tail + q.size + 1 - q.head) & q.size
}

// Append adds item to the tail.
func (q *Queue[T]) Append(items ...T) *Queue[T] {
	for _, item := range items {
		q.items[q.tail] = item
		q.tail = (q.tail + 1) & q.size
		if q.tail == q.head {
			q.grow()
		}
	}
	return q
}

// First removes and returns the head item. Returns zero value and false if the queue is empty.
func (q *Queue[T]) First() (T, bool) {
	if q.head == q.tail {
		return q.zero, false
	}

	result := q.items[q.head]
	q.items[q.head] = q.zero
	q.head = (q.head + 1) & q.size
	return result, true
}

func computeSize(length int) (size int) {
	if length <= minSize {
		return minSize
	}

	length |= length >> 1
	length |= length >> 2
	length |= length >> 4
	length |= length >> 8
	return length | length>>16
}

// grow doubles the buffer, it is called when the buffer is full and head == tail.
func (q *Queue[T]) grow() {
	items := make([]T, (q.size+1)<<1)
	copy(items, q.items[q.head:])
	if q.head > 0 {
		copy(items[q.size+1-q.head:], q.items[:q.head])
	}
	q.head = 0
	q.tail = q.size + 1
	q.size = q.size + q.tail
	q.items = items
}
