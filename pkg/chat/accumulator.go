package chat

import "strings"

// Accumulator maintains the in-progress assistant turn while a stream is
// consumed. The turn starts as an empty placeholder (so a UI can show a
// pending state) and its Text is replaced with the concatenation of all
// fragments seen so far on every Push. When the stream ends the turn is
// left as-is; what to do with it on failure is caller policy.
type Accumulator struct {
	turn *Turn
	sb   strings.Builder
}

// NewAccumulator creates an accumulator with a fresh placeholder assistant
// turn. The caller typically appends Turn() to its transcript immediately.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		turn: NewTurn(RoleAssistant, ""),
	}
}

// Turn returns the assistant turn being accumulated.
func (a *Accumulator) Turn() *Turn {
	return a.turn
}

// Push records one fragment and replaces the turn's text with the sum of
// fragments to date.
func (a *Accumulator) Push(fragment string) {
	a.sb.WriteString(fragment)
	a.turn.Text = a.sb.String()
}

// Text returns the accumulated text.
func (a *Accumulator) Text() string {
	return a.sb.String()
}
