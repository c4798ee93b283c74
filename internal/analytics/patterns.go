package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"CompetitorScanner/internal/domain"
	"CompetitorScanner/internal/ports"
)

const promptPostLimit = 20

var (
	fenceRegex         = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?([\\s\\S]*?)\\n?```")
	trailingCommaRegex = regexp.MustCompile(`,(\s*[}\]])`)
	objectRegex        = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
)

type patternsPayload struct {
	Topics          []string `json:"topics"`
	Formats         []string `json:"formats"`
	PostingInsights []string `json:"posting_insights"`
	Suggestions     []string `json:"suggestions"`
}

// Patterns asks the language model what the strongest posts have in common
// and for follow-up post suggestions. A response that fails every decode
// stage is preserved verbatim in RawAnalysis rather than discarded; the error
// return covers the transport only.
func Patterns(ctx context.Context, gen ports.TextGenerator, handle string, top []domain.TopPost) (domain.PatternAnalysis, []string, error) {
	raw, err := gen.Generate(ctx, buildPrompt(handle, top))
	if err != nil {
		return domain.PatternAnalysis{}, nil, fmt.Errorf("generate pattern analysis: %w", err)
	}

	payload, ok := decodePayload(raw)
	if !ok {
		return domain.PatternAnalysis{
			Topics:          []string{},
			Formats:         []string{},
			PostingInsights: []string{},
			RawAnalysis:     raw,
		}, []string{}, nil
	}

	return domain.PatternAnalysis{
		Topics:          orEmpty(payload.Topics),
		Formats:         orEmpty(payload.Formats),
		PostingInsights: orEmpty(payload.PostingInsights),
	}, orEmpty(payload.Suggestions), nil
}

func buildPrompt(handle string, top []domain.TopPost) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are auditing the competitor content landscape around the account @%s.\n", handle)
	b.WriteString("Below are the highest-engagement posts from competing accounts.\n\n")

	limit := len(top)
	if limit > promptPostLimit {
		limit = promptPostLimit
	}
	for i, tp := range top[:limit] {
		fmt.Fprintf(&b, "%d. @%s (score %d, rate %.1f%%): %s\n",
			i+1, tp.Post.Author, tp.EngagementScore, tp.EngagementRate, tp.Post.Text)
	}

	b.WriteString("\nRespond with a single JSON object, no prose, shaped as:\n")
	b.WriteString(`{"topics": [...], "formats": [...], "posting_insights": [...], "suggestions": [...]}`)
	b.WriteString("\ntopics: recurring subject areas. formats: post structures that work" +
		" (threads, hooks, lists). posting_insights: observations about timing and style." +
		" suggestions: three ready-to-post drafts for this account.\n")
	return b.String()
}

// decodePayload applies increasingly forgiving strategies: the raw text, the
// text with code fences stripped, trailing commas removed, and finally the
// first object-shaped span inside mixed prose.
func decodePayload(raw string) (patternsPayload, bool) {
	trimmed := strings.TrimSpace(raw)
	candidates := []string{trimmed}

	unfenced := strings.TrimSpace(fenceRegex.ReplaceAllString(trimmed, "$1"))
	if unfenced != trimmed {
		candidates = append(candidates, unfenced)
	}
	cleaned := strings.TrimSpace(trailingCommaRegex.ReplaceAllString(unfenced, "$1"))
	if cleaned != unfenced {
		candidates = append(candidates, cleaned)
	}
	if match := objectRegex.FindString(cleaned); match != "" && match != cleaned {
		candidates = append(candidates, match)
	}

	for _, candidate := range candidates {
		var payload patternsPayload
		if err := json.Unmarshal([]byte(candidate), &payload); err == nil {
			return payload, true
		}
	}
	return patternsPayload{}, false
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
