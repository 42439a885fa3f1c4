// SPDX-License-Identifier: EPL-2.0

package mix

import (
	"errors"
	"sync"
)

// DefaultQueueCapacity bounds the commands waiting for the next render tick.
const DefaultQueueCapacity = 256

var (
	// ErrQueueFull is returned when the render side has not drained the
	// queue fast enough. The command is dropped.
	ErrQueueFull = errors.New("mix: command queue full")

	// ErrQueueClosed is returned once the engine behind the queue has been
	// torn down.
	ErrQueueClosed = errors.New("mix: command queue closed")
)

// Queue carries commands from any number of control goroutines to a single
// render goroutine. Sends never block.
//
// Close is the engine's teardown signal: the data channel itself is never
// closed, so a send racing with Close cannot panic.
type Queue struct {
	ch   chan Command
	done chan struct{}
	once sync.Once
}

// NewQueue creates a queue holding at most capacity pending commands.
// A capacity <= 0 means DefaultQueueCapacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{
		ch:   make(chan Command, capacity),
		done: make(chan struct{}),
	}
}

// Send enqueues c for the next render tick.
func (q *Queue) Send(c Command) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	select {
	case q.ch <- c:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close signals teardown. It is safe to call more than once.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.done) })
}

// Done is closed by Close.
func (q *Queue) Done() <-chan struct{} { return q.done }

// Len is the number of commands waiting.
func (q *Queue) Len() int { return len(q.ch) }

// Cap is the queue bound.
func (q *Queue) Cap() int { return cap(q.ch) }

func (q *Queue) closed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

// tryRecv returns the next pending command, or false when the queue is
// empty right now.
func (q *Queue) tryRecv() (Command, bool) {
	select {
	case c := <-q.ch:
		return c, true
	default:
		return nil, false
	}
}
