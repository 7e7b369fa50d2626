package chat

import (
	"errors"
	"testing"
)

func TestValidate_EmptyTranscript(t *testing.T) {
	err := Validate(Transcript{})
	if err == nil {
		t.Fatal("Validate should fail on empty transcript")
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
	if verr.TurnID != "" {
		t.Errorf("TurnID = %q, want empty", verr.TurnID)
	}
}

func TestValidate_NilTranscript(t *testing.T) {
	var tr Transcript
	if err := Validate(tr); err == nil {
		t.Fatal("Validate should fail on nil transcript")
	}
}

func TestValidate_NoUserTurn(t *testing.T) {
	tr := Transcript{
		NewTurn(RoleSystem, "be helpful"),
		NewTurn(RoleAssistant, "hello"),
	}

	err := Validate(tr)
	if err == nil {
		t.Fatal("Validate should fail without a user turn")
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
}

func TestValidate_BlankTurn(t *testing.T) {
	blank := NewTurn(RoleUser, "   \t\n")
	tr := Transcript{
		NewTurn(RoleUser, "hi"),
		blank,
	}

	err := Validate(tr)
	if err == nil {
		t.Fatal("Validate should fail on blank turn text")
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
	if verr.TurnID != blank.ID {
		t.Errorf("TurnID = %q, want %q", verr.TurnID, blank.ID)
	}
}

func TestValidate_EmptyTurnText(t *testing.T) {
	empty := NewTurn(RoleAssistant, "")
	tr := Transcript{
		NewTurn(RoleUser, "hi"),
		empty,
	}

	err := Validate(tr)
	if err == nil {
		t.Fatal("Validate should fail on empty turn text")
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
	if verr.TurnID != empty.ID {
		t.Errorf("TurnID = %q, want %q", verr.TurnID, empty.ID)
	}
}

func TestValidate_SingleUserTurn(t *testing.T) {
	tr := Transcript{NewTurn(RoleUser, "hello")}

	if err := Validate(tr); err != nil {
		t.Errorf("Validate error: %v", err)
	}
}

func TestValidate_FullConversation(t *testing.T) {
	tr := Transcript{
		NewTurn(RoleSystem, "be helpful"),
		NewTurn(RoleUser, "hi"),
		NewTurn(RoleAssistant, "hello, how can I help?"),
		NewTurn(RoleUser, "what is Go?"),
	}

	if err := Validate(tr); err != nil {
		t.Errorf("Validate error: %v", err)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Reason: "transcript is empty"}
	if err.Error() != "chat: invalid transcript: transcript is empty" {
		t.Errorf("Error() = %q", err.Error())
	}

	err = &ValidationError{TurnID: "t-1", Reason: "turn text is blank"}
	want := "chat: invalid transcript: turn text is blank: turn=t-1"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
