package queue

import (
	"fmt"
	"sync"
)

// InMemoryQueue implements an in-memory queue over a buffered channel.
type InMemoryQueue struct {
	ch   chan interface{}
	lock sync.Mutex
}

// NewInMemoryQueue creates a new queue with the given capacity.
func NewInMemoryQueue(capacity int) *InMemoryQueue {
	return &InMemoryQueue{
		ch: make(chan interface{}, capacity),
	}
}

// Enqueue adds an item to the end of the queue.
// It fails instead of blocking when the queue is full.
func (q *InMemoryQueue) Enqueue(item interface{}) error {
	q.lock.Lock()
	defer q.lock.Unlock()

	select {
	case q.ch <- item:
		return nil
	default:
		return fmt.Errorf("queue is full")
	}
}

// ReadAllMessages drains and returns all pending items in the queue.
func (q *InMemoryQueue) ReadAllMessages() ([]interface{}, error) {
	q.lock.Lock()
	defer q.lock.Unlock()

	var items []interface{}
	for len(q.ch) > 0 {
		items = append(items, <-q.ch)
	}

	return items, nil
}

// Size returns the current size of the queue.
func (q *InMemoryQueue) Size() int {
	return len(q.ch)
}
