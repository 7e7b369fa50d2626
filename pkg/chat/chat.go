// Package chat defines the conversation data model shared by the relay and
// its callers: turns, transcripts, and generation options.
//
// A Transcript is owned by the caller. The relay reads it for the duration
// of one request and never retains it.
package chat

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type Role string

func (r Role) String() string {
	return string(r)
}

// Turn is one message in a conversation. Turns are immutable once appended
// to a transcript, except the in-progress assistant turn maintained by an
// Accumulator, whose Text is replaced wholesale as fragments arrive.
type Turn struct {
	ID       string            `json:"id" yaml:"id"`
	Role     Role              `json:"role" yaml:"role"`
	Text     string            `json:"text" yaml:"text"`
	Created  time.Time         `json:"created" yaml:"created"`
	Metadata map[string]string `json:"metadata,omitzero" yaml:"metadata,omitzero"`
}

// NewTurn mints a turn with a fresh id and the current timestamp.
func NewTurn(role Role, text string) *Turn {
	return &Turn{
		ID:      uuid.NewString(),
		Role:    role,
		Text:    text,
		Created: time.Now(),
	}
}

// Transcript is an ordered sequence of turns. Insertion order defines
// conversation order.
type Transcript []*Turn

// Append returns the transcript with turns added at the end.
func (t Transcript) Append(turns ...*Turn) Transcript {
	return append(t, turns...)
}

// System returns the text of the first system turn, or "" if none exists.
func (t Transcript) System() string {
	for _, turn := range t {
		if turn.Role == RoleSystem {
			return turn.Text
		}
	}
	return ""
}

// History returns the user and assistant turns in order. System turns are
// excluded; they travel as the system instruction, not as history.
func (t Transcript) History() []*Turn {
	out := make([]*Turn, 0, len(t))
	for _, turn := range t {
		if turn.Role == RoleUser || turn.Role == RoleAssistant {
			out = append(out, turn)
		}
	}
	return out
}

// GenerationOptions configures a single generation request. Zero values
// mean "use the provider default"; only set fields are forwarded upstream.
type GenerationOptions struct {
	// Model names the upstream model. Empty selects the provider's
	// configured default.
	Model string `json:"model,omitzero" yaml:"model,omitzero"`

	// Temperature in [0, 2].
	Temperature float32 `json:"temperature,omitzero" yaml:"temperature,omitzero"`

	// TopP is the nucleus sampling probability in [0, 1].
	TopP float32 `json:"top_p,omitzero" yaml:"top_p,omitzero"`

	// MaxOutputTokens caps the generated length.
	MaxOutputTokens int `json:"max_output_tokens,omitzero" yaml:"max_output_tokens,omitzero"`

	// SystemInstruction is used when the transcript carries no system turn.
	SystemInstruction string `json:"system_instruction,omitzero" yaml:"system_instruction,omitzero"`
}
