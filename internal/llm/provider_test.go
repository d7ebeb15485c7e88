package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestContent(t *testing.T) {
	if _, err := Content(openai.ChatCompletionResponse{}); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected empty completion, got %v", err)
	}
	resp := openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "  Go Modules Explained \n"}}}}
	got, err := Content(resp)
	if err != nil || got != "Go Modules Explained" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestNewOpenAI_ListModelsAndChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/models":
			_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": []map[string]any{{"id": "tiny", "object": "model"}}})
		case "/v1/chat/completions":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": "x", "object": "chat.completion", "model": "tiny",
				"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": "hello"}}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewOpenAI(srv.URL+"/v1/", "test", srv.Client())
	ok, err := HasModel(context.Background(), p, "tiny")
	if err != nil || !ok {
		t.Fatalf("expected model listed: %v %v", ok, err)
	}
	if ok, _ := HasModel(context.Background(), p, "huge"); ok {
		t.Fatal("unexpected model")
	}
	resp, err := p.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{Model: "tiny", Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "hi"}}})
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := Content(resp); got != "hello" {
		t.Fatalf("content %q", got)
	}
}

type chatOnly struct{}

func (chatOnly) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return openai.ChatCompletionResponse{}, nil
}

func TestHasModel_WithoutLister(t *testing.T) {
	ok, err := HasModel(context.Background(), chatOnly{}, "anything")
	if err != nil || !ok {
		t.Fatal("backends without listing are assumed to serve the model")
	}
}
