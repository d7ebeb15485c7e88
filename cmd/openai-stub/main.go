// Command openai-stub is a deterministic stand-in for an OpenAI-compatible
// server and the bookmark clustering service, for local runs and tests.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type clusterItem struct {
	ID      json.RawMessage `json:"id,omitempty"`
	Title   string          `json:"title"`
	Summary string          `json:"summary"`
	Cluster int             `json:"cluster"`
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	log.Info().Str("addr", addr).Str("model", model).Msg("openai-stub listening")
	if err := http.ListenAndServe(addr, newMux(model)); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}

func newMux(model string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/models", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"data": []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("POST /v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		sys, user := "", ""
		if len(req.Messages) > 0 {
			sys = req.Messages[0].Content
		}
		if len(req.Messages) > 1 {
			user = req.Messages[1].Content
		}
		var content string
		switch {
		case strings.Contains(sys, "headline editor"):
			content = headline(user)
		case strings.Contains(sys, "concise category name"):
			content = headline(user)
		default:
			http.Error(w, "unexpected system prompt", http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	})
	mux.HandleFunc("POST /generate_title", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Summary string `json:"summary"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, map[string]string{"title": headline(req.Summary)})
	})
	mux.HandleFunc("POST /cluster/", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Items []clusterItem `json:"items"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]any{"clusters": groupByFirstWord(req.Items)})
	})
	mux.HandleFunc("POST /generate_category_titles", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Items []clusterItem `json:"items"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		names := map[string]string{}
		for _, it := range req.Items {
			key := strconv.Itoa(it.Cluster)
			if _, ok := names[key]; !ok {
				names[key] = headline(it.Title)
			}
		}
		writeJSON(w, map[string]any{"categories": names})
	})
	return mux
}

// groupByFirstWord clusters items whose titles share a first word. Items
// with a unique first word are noise.
func groupByFirstWord(items []clusterItem) []clusterItem {
	count := map[string]int{}
	for _, it := range items {
		count[firstWord(it.Title)]++
	}
	ids := map[string]int{}
	out := make([]clusterItem, len(items))
	for i, it := range items {
		w := firstWord(it.Title)
		it.Cluster = -1
		if w != "" && count[w] > 1 {
			id, ok := ids[w]
			if !ok {
				id = len(ids)
				ids[w] = id
			}
			it.Cluster = id
		}
		out[i] = it
	}
	return out
}

func firstWord(s string) string {
	f := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

// headline takes the first few words of text.
func headline(text string) string {
	words := strings.Fields(text)
	if len(words) > 6 {
		words = words[:6]
	}
	if len(words) == 0 {
		return "Untitled"
	}
	return strings.TrimRight(strings.Join(words, " "), ".,;:!?")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
