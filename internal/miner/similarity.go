package miner

import (
	"strings"

	"github.com/HendryAvila/mcagent/internal/activity"
)

// Score weights for the combined similarity.
const (
	titleWeight   = 0.6
	keywordWeight = 0.4
)

// features is the per-activity input to the similarity score. It is derived
// once per activity so clustering never re-extracts keywords.
type features struct {
	title    string
	tokens   map[string]struct{}
	keywords map[string]struct{}
}

func (e *Extractor) features(a activity.Activity) features {
	title := strings.ToLower(a.Title)
	f := features{title: title}
	if fields := strings.Fields(title); len(fields) > 0 {
		f.tokens = make(map[string]struct{}, len(fields))
		for _, tok := range fields {
			f.tokens[tok] = struct{}{}
		}
	}
	if kws := e.Extract(a.Content); len(kws) > 0 {
		f.keywords = make(map[string]struct{}, len(kws))
		for _, kw := range kws {
			f.keywords[kw] = struct{}{}
		}
	}
	return f
}

// Similarity scores two activities in [0, 1] as
// 0.6*titleSimilarity + 0.4*keywordSimilarity. An empty title on either
// side scores 0 regardless of content.
func (e *Extractor) Similarity(a, b activity.Activity) float64 {
	return similarity(e.features(a), e.features(b))
}

func similarity(a, b features) float64 {
	if a.title == "" || b.title == "" {
		return 0
	}
	return titleWeight*titleSimilarity(a, b) + keywordWeight*keywordSimilarity(a, b)
}

func titleSimilarity(a, b features) float64 {
	switch {
	case a.title == b.title:
		return 1.0
	case strings.Contains(a.title, b.title) || strings.Contains(b.title, a.title):
		return 0.8
	}
	for tok := range a.tokens {
		if _, ok := b.tokens[tok]; ok {
			return 0.6
		}
	}
	return 0
}

// keywordSimilarity is |A∩B| / max(|A|, |B|), 0 when either set is empty.
func keywordSimilarity(a, b features) float64 {
	if len(a.keywords) == 0 || len(b.keywords) == 0 {
		return 0
	}
	common := 0
	for kw := range a.keywords {
		if _, ok := b.keywords[kw]; ok {
			common++
		}
	}
	return float64(common) / float64(max(len(a.keywords), len(b.keywords)))
}
