package relay

import (
	"errors"
	"testing"
)

func TestBuilder_AddThenDone(t *testing.T) {
	b := NewBuilder(10)

	if err := b.Add("Hello"); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if err := b.Add(" World"); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if err := b.Done(Usage{GeneratedTokenCount: 2}); err != nil {
		t.Fatalf("Done error: %v", err)
	}

	str := b.Stream()

	frag, err := str.Next()
	if err != nil {
		t.Fatalf("first Next error: %v", err)
	}
	if frag != "Hello" {
		t.Errorf("first fragment = %q, want %q", frag, "Hello")
	}

	frag, err = str.Next()
	if err != nil {
		t.Fatalf("second Next error: %v", err)
	}
	if frag != " World" {
		t.Errorf("second fragment = %q, want %q", frag, " World")
	}

	_, err = str.Next()
	if !errors.Is(err, ErrDone) {
		t.Errorf("stream should end with ErrDone, got %v", err)
	}

	var state *State
	if !errors.As(err, &state) {
		t.Fatalf("terminal error type = %T, want *State", err)
	}
	if state.Usage().GeneratedTokenCount != 2 {
		t.Errorf("GeneratedTokenCount = %d, want 2", state.Usage().GeneratedTokenCount)
	}
}

func TestBuilder_Truncated(t *testing.T) {
	b := NewBuilder(10)
	b.Truncated(Usage{GeneratedTokenCount: 4096})

	_, err := b.Stream().Next()

	var state *State
	if !errors.As(err, &state) {
		t.Fatalf("terminal error type = %T, want *State", err)
	}
	if state.Status() != StatusTruncated {
		t.Errorf("Status = %v, want %v", state.Status(), StatusTruncated)
	}
}

func TestBuilder_Blocked(t *testing.T) {
	b := NewBuilder(10)
	b.Blocked(Usage{}, "content policy violation")

	_, err := b.Stream().Next()

	var state *State
	if !errors.As(err, &state) {
		t.Fatalf("terminal error type = %T, want *State", err)
	}
	if state.Status() != StatusBlocked {
		t.Errorf("Status = %v, want %v", state.Status(), StatusBlocked)
	}
}

func TestBuilder_Unexpected(t *testing.T) {
	b := NewBuilder(10)
	cause := errors.New("malformed response")
	b.Unexpected(Usage{}, cause)

	_, err := b.Stream().Next()

	var state *State
	if !errors.As(err, &state) {
		t.Fatalf("terminal error type = %T, want *State", err)
	}
	if state.Status() != StatusError {
		t.Errorf("Status = %v, want %v", state.Status(), StatusError)
	}
	if !errors.Is(err, cause) {
		t.Error("terminal error should wrap the cause")
	}
}

func TestBuilder_Abort(t *testing.T) {
	b := NewBuilder(10)
	cause := &UpstreamError{Provider: "stub", Err: errors.New("connection reset")}
	b.Abort(cause)

	_, err := b.Stream().Next()
	if !errors.Is(err, cause) {
		t.Errorf("Next should surface the abort error, got %v", err)
	}
}

func TestBuilder_OrderedFailureAfterFragment(t *testing.T) {
	b := NewBuilder(10)
	b.Add("partial")
	b.Unexpected(Usage{}, errors.New("upstream died"))

	str := b.Stream()

	frag, err := str.Next()
	if err != nil {
		t.Fatalf("first Next error: %v", err)
	}
	if frag != "partial" {
		t.Errorf("fragment = %q, want %q (delivered text is not retracted)", frag, "partial")
	}

	_, err = str.Next()
	var state *State
	if !errors.As(err, &state) || state.Status() != StatusError {
		t.Errorf("stream should end with an error state, got %v", err)
	}
}

func TestStream_Close(t *testing.T) {
	b := NewBuilder(10)
	str := b.Stream()

	if err := str.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	// Producer side observes the close.
	if err := b.Add("late"); err == nil {
		t.Error("Add after consumer Close should fail")
	}
}

func TestStream_BlocksProducerAtCapacity(t *testing.T) {
	b := NewBuilder(1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Add("one")
		b.Add("two") // blocks until the consumer reads "one"
		b.Done(Usage{})
	}()

	str := b.Stream()
	for _, want := range []string{"one", "two"} {
		frag, err := str.Next()
		if err != nil {
			t.Fatalf("Next error: %v", err)
		}
		if frag != want {
			t.Errorf("fragment = %q, want %q", frag, want)
		}
	}
	if _, err := str.Next(); !errors.Is(err, ErrDone) {
		t.Errorf("stream should end with ErrDone, got %v", err)
	}
	<-done
}
