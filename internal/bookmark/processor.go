package bookmark

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/marksum/internal/summarize"
	"github.com/hyperifyio/marksum/internal/titler"
)

// Processing steps reported in Result.Step.
const (
	StepInput     = "input"
	StepFetch     = "fetch"
	StepSummarize = "summarize"
	StepTitle     = "title"
	StepDone      = "done"
)

// Page is the content captured from a tab.
type Page struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Result reports the outcome of processing one page. Step names the stage
// that failed; a failed title step still succeeds with the original title.
type Result struct {
	Success bool      `json:"success"`
	Step    string    `json:"step"`
	Message string    `json:"message"`
	Data    *Bookmark `json:"data,omitempty"`
	// Err is the underlying failure, if any.
	Err error `json:"-"`
}

// Processor summarizes a page and optionally generates a title for it.
type Processor struct {
	Summarizer *summarize.Summarizer
	// Titles is optional; a failing generator does not fail the bookmark.
	Titles    titler.Generator
	MaxLength int
	// Now defaults to time.Now.
	Now func() time.Time
}

func (p *Processor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Process builds a bookmark for page.
func (p *Processor) Process(ctx context.Context, page Page) Result {
	if strings.TrimSpace(page.URL) == "" {
		return Result{Step: StepInput, Message: "page url is required"}
	}
	maxLength := p.MaxLength
	if maxLength <= 0 {
		maxLength = summarize.DefaultMaxLength
	}

	summary, err := p.Summarizer.Summarize(page.Content, page.Title, maxLength)
	if err == nil && summary == "" {
		err = summarize.ErrNoContent
	}
	if err != nil {
		msg := "summarization failed"
		if errors.Is(err, summarize.ErrNoContent) {
			msg = "page has no summarizable content"
		}
		return Result{Step: StepSummarize, Message: msg, Err: err}
	}

	now := p.now()
	b := &Bookmark{
		ID:          now.UnixMilli(),
		Title:       strings.TrimSpace(page.Title),
		URL:         page.URL,
		Description: summary,
		CreatedAt:   Timestamp(now),
		UpdatedAt:   Timestamp(now),
		Favicon:     FaviconURL(page.URL),
		CategoryID:  Uncategorized,
	}
	if b.Title == "" {
		b.Title = UntitledName
	}

	res := Result{Success: true, Step: StepDone, Message: "bookmark summarized", Data: b}
	if p.Titles != nil {
		title, terr := p.Titles.Generate(ctx, summary)
		if terr != nil {
			log.Warn().Err(terr).Str("url", page.URL).Msg("title generation failed; keeping original title")
			res.Step = StepTitle
			res.Message = "bookmark summarized; title generation skipped"
			res.Err = terr
		} else {
			b.GeneratedTitle = title
		}
	}
	return res
}
