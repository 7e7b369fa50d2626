package relay

import (
	"errors"
	"testing"

	"github.com/plumechat/plume/pkg/chat"
)

func TestNewOpenAI_MissingAPIKey(t *testing.T) {
	_, err := NewOpenAI(OpenAIConfig{Model: "gpt-4o-mini"})
	if err == nil {
		t.Fatal("NewOpenAI should fail without an API key")
	}
	if !errors.Is(err, ErrNoCredential) {
		t.Errorf("error = %v, want ErrNoCredential", err)
	}
}

func TestOpenAIChatCompletion_Messages(t *testing.T) {
	g := &OpenAI{model: "gpt-4o-mini"}
	req := &Request{
		System: "be helpful",
		History: []*chat.Turn{
			chat.NewTurn(chat.RoleUser, "hi"),
			chat.NewTurn(chat.RoleAssistant, "hello"),
			chat.NewTurn(chat.RoleUser, "bye"),
		},
	}

	params, err := g.chatCompletion(req)
	if err != nil {
		t.Fatalf("chatCompletion error: %v", err)
	}
	if len(params.Messages) != 4 {
		t.Fatalf("messages len = %d, want 4 (system + 3 turns)", len(params.Messages))
	}
	if params.Messages[0].OfSystem == nil {
		t.Error("first message should be the system instruction")
	}
	if params.Messages[1].OfUser == nil || params.Messages[2].OfAssistant == nil || params.Messages[3].OfUser == nil {
		t.Error("history roles should map to user/assistant messages in order")
	}
	if params.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q, want %q", params.Model, "gpt-4o-mini")
	}
}

func TestOpenAIChatCompletion_NoSystem(t *testing.T) {
	g := &OpenAI{model: "gpt-4o-mini"}
	req := &Request{History: []*chat.Turn{chat.NewTurn(chat.RoleUser, "hi")}}

	params, err := g.chatCompletion(req)
	if err != nil {
		t.Fatalf("chatCompletion error: %v", err)
	}
	if len(params.Messages) != 1 {
		t.Fatalf("messages len = %d, want 1", len(params.Messages))
	}
	if params.Messages[0].OfUser == nil {
		t.Error("only message should be the user turn")
	}
}

func TestOpenAIChatCompletion_RejectsSystemInHistory(t *testing.T) {
	g := &OpenAI{model: "gpt-4o-mini"}
	req := &Request{
		History: []*chat.Turn{chat.NewTurn(chat.RoleSystem, "sneaky")},
	}

	if _, err := g.chatCompletion(req); err == nil {
		t.Error("chatCompletion should reject a system turn in history")
	}
}

func TestOpenAIChatCompletion_Options(t *testing.T) {
	g := &OpenAI{model: "gpt-4o-mini"}
	req := &Request{
		History: []*chat.Turn{chat.NewTurn(chat.RoleUser, "hi")},
		Options: &chat.GenerationOptions{
			Model:           "gpt-4o",
			Temperature:     0.5,
			TopP:            0.8,
			MaxOutputTokens: 256,
		},
	}

	params, err := g.chatCompletion(req)
	if err != nil {
		t.Fatalf("chatCompletion error: %v", err)
	}
	if params.Model != "gpt-4o" {
		t.Errorf("Model = %q, want request override %q", params.Model, "gpt-4o")
	}
	if !params.Temperature.Valid() || params.Temperature.Value != 0.5 {
		t.Errorf("Temperature = %+v, want 0.5", params.Temperature)
	}
	if !params.TopP.Valid() || params.TopP.Value != 0.8 {
		t.Errorf("TopP = %+v, want 0.8", params.TopP)
	}
	if !params.MaxCompletionTokens.Valid() || params.MaxCompletionTokens.Value != 256 {
		t.Errorf("MaxCompletionTokens = %+v, want 256", params.MaxCompletionTokens)
	}
}

func TestOpenAIChatCompletion_DefaultOptionsUnset(t *testing.T) {
	g := &OpenAI{model: "gpt-4o-mini"}
	req := &Request{
		History: []*chat.Turn{chat.NewTurn(chat.RoleUser, "hi")},
		Options: &chat.GenerationOptions{},
	}

	params, err := g.chatCompletion(req)
	if err != nil {
		t.Fatalf("chatCompletion error: %v", err)
	}
	if params.Temperature.Valid() || params.TopP.Valid() || params.MaxCompletionTokens.Valid() {
		t.Error("zero options should leave provider defaults in place")
	}
}
