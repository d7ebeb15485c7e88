package titler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/singleflight"

	"github.com/hyperifyio/marksum/internal/cache"
	"github.com/hyperifyio/marksum/internal/llm"
)

const systemPrompt = "You are an expert multilingual headline editor. " +
	"Given a passage, you detect its language and craft a concise, eye-catching title " +
	"in the same language. Do NOT output explanations, only the title line."

// DefaultLLMTimeout bounds a title call including its retry.
const DefaultLLMTimeout = 30 * time.Second

// LLM generates titles with an OpenAI-compatible chat model.
type LLM struct {
	Client llm.Client
	Model  string
	Cache  *cache.TitleCache
	// CacheOnly returns cached titles and fails with ErrNoTitle on a miss.
	CacheOnly bool
	// RetryDelay is the pause before the single retry. Zero means 100ms.
	RetryDelay time.Duration
	// Timeout bounds one shared model call. Zero means DefaultLLMTimeout.
	Timeout time.Duration

	group singleflight.Group
}

// BuildPrompt renders the user message for a summary.
func BuildPrompt(summary string) string {
	var sb strings.Builder
	sb.WriteString("## Rules\n")
	sb.WriteString("1) Detect the language of the summary and reply in that language.\n")
	sb.WriteString("2) Use 4-10 key words only; drop stop-words, endings, punctuation.\n")
	sb.WriteString("3) Return one line with no quotes or period.\n")
	sb.WriteString("## Example 1\nSummary:\nAI 기술이 최근 몇 년간 비약적으로 발전하며 산업 전반을 혁신하고 있다.\nTitle: AI 기술 산업혁신\n")
	sb.WriteString("## Example 2\nSummary:\nGlobal oil prices have surged due to geopolitical tensions, impacting inflation worldwide.\nTitle: Global Oil Price Surge\n")
	sb.WriteString("## Task\nSummary:\n\"\"\"")
	sb.WriteString(summary)
	sb.WriteString("\"\"\"\nTitle:")
	return sb.String()
}

// Generate implements Generator. Identical concurrent requests share one
// model call. The shared call runs detached from any single caller and is
// bounded by Timeout; each caller stops waiting when its own ctx ends.
func (g *LLM) Generate(ctx context.Context, summary string) (string, error) {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", ErrNoTitle
	}
	if g.Client == nil || strings.TrimSpace(g.Model) == "" {
		return "", errors.New("title generator not configured")
	}
	user := BuildPrompt(summary)
	key := cache.KeyFrom(g.Model, systemPrompt+"\n\n"+user)

	ch := g.group.DoChan(key, func() (any, error) {
		timeout := g.Timeout
		if timeout <= 0 {
			timeout = DefaultLLMTimeout
		}
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		return g.generate(sctx, key, user)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.Shared {
			log.Debug().Str("key", key[:12]).Msg("title request deduplicated")
		}
		if r.Err != nil {
			return "", r.Err
		}
		return r.Val.(string), nil
	}
}

func (g *LLM) generate(ctx context.Context, key, user string) (string, error) {
	if g.Cache != nil {
		if raw, ok, _ := g.Cache.Get(ctx, key); ok {
			var out struct {
				Title string `json:"title"`
			}
			if err := json.Unmarshal(raw, &out); err == nil && out.Title != "" {
				log.Debug().Str("key", key[:12]).Msg("title cache hit")
				return out.Title, nil
			}
		}
	}
	if g.CacheOnly {
		return "", ErrNoTitle
	}

	req := openai.ChatCompletionRequest{
		Model: g.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.5,
		MaxTokens:   15,
		N:           1,
	}
	resp, err := g.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		delay := g.RetryDelay
		if delay <= 0 {
			delay = 100 * time.Millisecond
		}
		log.Warn().Err(err).Dur("retry_in", delay).Msg("title call failed, retrying once")
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		resp, err = g.Client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", fmt.Errorf("title call (after retry): %w", err)
		}
	}
	content, err := llm.Content(resp)
	if err != nil {
		return "", ErrNoTitle
	}
	title := CleanTitle(content)
	if title == "" {
		return "", ErrNoTitle
	}
	if g.Cache != nil {
		payload, _ := json.Marshal(map[string]string{"title": title})
		_ = g.Cache.Save(ctx, key, payload)
	}
	return title, nil
}
