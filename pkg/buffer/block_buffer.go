// Package buffer provides a bounded, blocking FIFO used to hand stream
// events from a producer goroutine to a consumer.
package buffer

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrIteratorDone is returned by Next once the write side is closed and
// all buffered elements have been consumed.
var ErrIteratorDone = errors.New("buffer: iterator done")

// BlockBuffer is a thread-safe circular buffer of fixed capacity. Add
// blocks while the buffer is full, Next blocks while it is empty, so the
// producer cannot outrun the consumer by more than the capacity.
//
// The write side closes via CloseWrite (drain, then ErrIteratorDone) or
// CloseWithError (both sides fail immediately with the given error).
type BlockBuffer[T any] struct {
	cond *sync.Cond

	mu         sync.Mutex
	buf        []T
	head, tail int64
	closeWrite bool
	closeErr   error
}

// BlockN creates a BlockBuffer holding at most size elements.
func BlockN[T any](size int) *BlockBuffer[T] {
	bb := &BlockBuffer[T]{
		buf: make([]T, size),
	}
	bb.cond = sync.NewCond(&bb.mu)
	return bb
}

// Add appends one element, blocking until space is available. Returns an
// error if the buffer is closed for writing or closed with an error.
func (bb *BlockBuffer[T]) Add(t T) error {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	if err := bb.writableLocked(); err != nil {
		return err
	}
	size := int64(len(bb.buf))
	for bb.tail-bb.head == size {
		bb.cond.Wait()
		if err := bb.writableLocked(); err != nil {
			return err
		}
	}
	bb.buf[bb.tail%size] = t
	bb.tail++
	bb.cond.Signal()
	return nil
}

func (bb *BlockBuffer[T]) writableLocked() error {
	if bb.closeErr != nil {
		return fmt.Errorf("buffer: write to closed buffer: %w", bb.closeErr)
	}
	if bb.closeWrite {
		return fmt.Errorf("buffer: write to closed buffer: %w", io.ErrClosedPipe)
	}
	return nil
}

// Next removes and returns the next element, blocking until one is
// available. Returns ErrIteratorDone after CloseWrite once the buffer is
// drained, or the close error after CloseWithError.
func (bb *BlockBuffer[T]) Next() (t T, err error) {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	if bb.closeErr != nil {
		err = fmt.Errorf("buffer: read from closed buffer: %w", bb.closeErr)
		return
	}
	for bb.head == bb.tail {
		if bb.closeWrite {
			err = ErrIteratorDone
			return
		}
		bb.cond.Wait()
		if bb.closeErr != nil {
			err = fmt.Errorf("buffer: read from closed buffer: %w", bb.closeErr)
			return
		}
	}
	t = bb.buf[bb.head%int64(len(bb.buf))]
	bb.head++
	bb.cond.Signal()
	return t, nil
}

// Len returns the number of buffered elements.
func (bb *BlockBuffer[T]) Len() int {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	return int(bb.tail - bb.head)
}

// CloseWrite closes the write side. Buffered elements remain readable;
// once drained, Next returns ErrIteratorDone.
func (bb *BlockBuffer[T]) CloseWrite() error {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	if bb.closeWrite {
		return nil
	}
	bb.closeWrite = true
	bb.cond.Broadcast()
	return nil
}

// CloseWithError closes both sides immediately. Pending and subsequent
// operations fail with err (io.ErrClosedPipe when err is nil). The first
// close wins; later calls are no-ops.
func (bb *BlockBuffer[T]) CloseWithError(err error) error {
	if err == nil {
		err = io.ErrClosedPipe
	}
	bb.mu.Lock()
	defer bb.mu.Unlock()
	if bb.closeErr != nil {
		return nil
	}
	bb.closeErr = err
	bb.closeWrite = true
	bb.cond.Broadcast()
	return nil
}

// Close closes the buffer with io.ErrClosedPipe.
func (bb *BlockBuffer[T]) Close() error {
	return bb.CloseWithError(io.ErrClosedPipe)
}

// Err returns the error the buffer was closed with, if any.
func (bb *BlockBuffer[T]) Err() error {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	return bb.closeErr
}
