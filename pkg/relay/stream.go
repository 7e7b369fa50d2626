package relay

import (
	"fmt"

	"github.com/plumechat/plume/pkg/buffer"
)

// Stream is a finite, single-pass sequence of text fragments. Next blocks
// until the next fragment arrives, then yields it verbatim. A normal end
// surfaces as ErrDone; an abnormal end surfaces as the terminal error.
// Fragments already delivered are never retracted.
type Stream interface {
	Next() (string, error)
	Close() error
	CloseWithError(error) error
}

type streamEvent struct {
	fragment string
	status   Status
	usage    Usage
	refusal  string
	err      error
}

// Builder is the producer side of a Stream. A provider goroutine adds
// fragments as they arrive upstream and finishes with exactly one of
// Done, Truncated, Blocked, Unexpected, or Abort.
type Builder struct {
	rb *buffer.BlockBuffer[*streamEvent]
}

// NewBuilder creates a Builder whose stream buffers at most size
// fragments, blocking the producer beyond that.
func NewBuilder(size int) *Builder {
	return &Builder{
		rb: buffer.BlockN[*streamEvent](size),
	}
}

// Add appends one fragment.
func (b *Builder) Add(fragment string) error {
	return b.rb.Add(&streamEvent{fragment: fragment})
}

// Done marks a normal end of generation.
func (b *Builder) Done(usage Usage) error {
	return b.finish(&streamEvent{status: StatusDone, usage: usage})
}

// Truncated marks an end caused by the output token limit.
func (b *Builder) Truncated(usage Usage) error {
	return b.finish(&streamEvent{status: StatusTruncated, usage: usage})
}

// Blocked marks an end caused by the provider's safety filtering.
func (b *Builder) Blocked(usage Usage, refusal string) error {
	return b.finish(&streamEvent{status: StatusBlocked, usage: usage, refusal: refusal})
}

// Unexpected marks an end the protocol does not account for.
func (b *Builder) Unexpected(usage Usage, err error) error {
	return b.finish(&streamEvent{status: StatusError, usage: usage, err: err})
}

func (b *Builder) finish(evt *streamEvent) error {
	if err := b.rb.Add(evt); err != nil {
		return err
	}
	return b.rb.CloseWrite()
}

// Abort tears the stream down with err. Fragments already buffered are
// discarded; the consumer sees err on its next read.
func (b *Builder) Abort(err error) error {
	return b.rb.CloseWithError(err)
}

// Stream returns the consumer view of the builder.
func (b *Builder) Stream() Stream {
	return (*streamImpl)(b)
}

type streamImpl Builder

func (s *streamImpl) Next() (string, error) {
	evt, err := s.rb.Next()
	if err != nil {
		return "", err
	}
	switch evt.status {
	case StatusOK:
		return evt.fragment, nil
	case StatusDone:
		err = Done(evt.usage)
	case StatusTruncated:
		err = Truncated(evt.usage)
	case StatusBlocked:
		err = Blocked(evt.usage, evt.refusal)
	case StatusError:
		err = Failed(evt.usage, evt.err)
	default:
		err = fmt.Errorf("relay: unexpected stream status: %v", evt.status)
	}
	s.rb.CloseWithError(err)
	return "", err
}

func (s *streamImpl) Close() error {
	return s.rb.Close()
}

func (s *streamImpl) CloseWithError(err error) error {
	return s.rb.CloseWithError(err)
}
