package relay

import (
	"errors"
	"fmt"
)

// ErrDone is returned when the stream is done.
var ErrDone = errors.New("relay: done")

type Status int

const (
	StatusOK Status = iota
	StatusDone
	StatusTruncated
	StatusBlocked
	StatusError
)

func Done(usage Usage) *State {
	return &State{
		usage:  usage,
		status: StatusDone,
		err:    ErrDone,
	}
}

func Blocked(usage Usage, refusal string) *State {
	return &State{
		usage:  usage,
		status: StatusBlocked,
		err:    fmt.Errorf("relay: generate blocked: %s", refusal),
	}
}

func Truncated(usage Usage) *State {
	return &State{
		usage:  usage,
		status: StatusTruncated,
		err:    errors.New("relay: generate truncated"),
	}
}

func Failed(usage Usage, err error) *State {
	return &State{
		usage:  usage,
		status: StatusError,
		err:    fmt.Errorf("relay: generate error: %w", err),
	}
}

// State is the terminal error of a stream. It carries how the generation
// ended and the token usage reported by the provider.
type State struct {
	usage  Usage
	status Status
	err    error
}

func (ss State) Usage() Usage {
	return ss.usage
}

func (ss State) Status() Status {
	return ss.status
}

func (ss State) Unwrap() error {
	return ss.err
}

func (ss State) Error() string {
	switch ss.status {
	case StatusDone:
		return "relay: generate done"
	case StatusTruncated, StatusBlocked, StatusError:
		return ss.err.Error()
	default:
		return fmt.Sprintf("relay: unexpected stream status: %v", ss.status)
	}
}
