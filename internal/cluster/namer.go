package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/marksum/internal/cache"
	"github.com/hyperifyio/marksum/internal/llm"
)

const namingSystemPrompt = "You are a helpful assistant that summarizes a list of texts into a concise category name."

// LLMNamer names clusters locally with a chat model, one call per cluster.
type LLMNamer struct {
	Client llm.Client
	Model  string
	Cache  *cache.TitleCache
}

// BuildNamingPrompt renders the user message for one cluster.
func BuildNamingPrompt(items []Assignment) string {
	var sb strings.Builder
	sb.WriteString("The following are summaries and titles of bookmarks that belong to the same cluster.\n")
	sb.WriteString("Generate a short and clear category name that best represents the topic of this cluster.\n\n")
	sb.WriteString("Documents:\n")
	for _, a := range Sample(items) {
		sb.WriteString(a.Title)
		sb.WriteString(": ")
		sb.WriteString(a.Summary)
		sb.WriteString("\n")
	}
	sb.WriteString("\nCategory title (in English):")
	return sb.String()
}

// NameCategories implements Namer.
func (n *LLMNamer) NameCategories(ctx context.Context, assignments []Assignment) (map[string]string, error) {
	if n.Client == nil || strings.TrimSpace(n.Model) == "" {
		return nil, fmt.Errorf("category namer not configured")
	}
	out := map[string]string{}
	for _, g := range Group(assignments) {
		name, err := n.nameOne(ctx, g.Items)
		if err != nil {
			return nil, fmt.Errorf("name cluster %d: %w", g.Cluster, err)
		}
		out[Key(g.Cluster)] = name
	}
	return out, nil
}

func (n *LLMNamer) nameOne(ctx context.Context, items []Assignment) (string, error) {
	user := BuildNamingPrompt(items)
	key := cache.KeyFrom(n.Model, namingSystemPrompt+"\n\n"+user)
	if n.Cache != nil {
		if raw, ok, _ := n.Cache.Get(ctx, key); ok {
			var c struct {
				Category string `json:"category"`
			}
			if err := json.Unmarshal(raw, &c); err == nil && c.Category != "" {
				return c.Category, nil
			}
		}
	}
	resp, err := n.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: n.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: namingSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.7,
		MaxTokens:   30,
		N:           1,
	})
	if err != nil {
		return "", err
	}
	content, err := llm.Content(resp)
	if err != nil {
		return "", ErrEmptyResponse
	}
	name := strings.Trim(strings.TrimSpace(strings.SplitN(content, "\n", 2)[0]), "\"'*")
	if name == "" {
		return "", ErrEmptyResponse
	}
	log.Debug().Str("category", name).Int("items", len(items)).Msg("named cluster")
	if n.Cache != nil {
		payload, _ := json.Marshal(map[string]string{"category": name})
		_ = n.Cache.Save(ctx, key, payload)
	}
	return name, nil
}
