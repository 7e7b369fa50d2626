package chat

import (
	"fmt"
	"strings"
)

// ValidationError reports a transcript that cannot be submitted for
// generation. TurnID names the offending turn when one exists.
type ValidationError struct {
	TurnID string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.TurnID == "" {
		return "chat: invalid transcript: " + e.Reason
	}
	return fmt.Sprintf("chat: invalid transcript: %s: turn=%s", e.Reason, e.TurnID)
}

// Validate checks that a transcript is fit for generation: it must be
// non-empty, contain at least one user turn, and every turn must carry
// non-blank text. Pure predicate; no side effects.
func Validate(t Transcript) error {
	if len(t) == 0 {
		return &ValidationError{Reason: "transcript is empty"}
	}
	hasUser := false
	for _, turn := range t {
		if strings.TrimSpace(turn.Text) == "" {
			return &ValidationError{
				TurnID: turn.ID,
				Reason: "turn text is blank",
			}
		}
		if turn.Role == RoleUser {
			hasUser = true
		}
	}
	if !hasUser {
		return &ValidationError{Reason: "transcript has no user turn"}
	}
	return nil
}
