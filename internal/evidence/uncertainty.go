package evidence

import (
	"slices"
	"strings"

	"github.com/HendryAvila/mcagent/internal/miner"
)

// Confidence tiers.
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// Uncertainty states what an evidence pack cannot substantiate.
type Uncertainty struct {
	WhatWeCannotProve []string `json:"what_we_cannot_prove"`
	ConfidenceLevel   string   `json:"confidence_level"`
	Limitations       []string `json:"limitations"`
}

var baselineClaims = []string{
	"Cannot prove the user's true intent",
	"Cannot prove the behavior was carried out as planned",
	"Cannot prove the outcome or impact of the behavior",
}

var baselineLimitations = []string{
	"Inferred from activity titles and content",
	"Similar behaviors may be misclassified",
}

// claimGroup adds claims when the candidate title mentions the group.
// Chinese keywords match as substrings. English words match whole title
// words and stems match the start of a title word.
type claimGroup struct {
	keywords []string
	words    []string
	stems    []string
	claims   []string
}

// claimGroups are matched independently; a title can hit several.
var claimGroups = []claimGroup{
	{
		keywords: []string{"开发", "编写"},
		words: []string{
			"develop", "develops", "developing", "developed", "development",
			"implement", "implements", "implementing", "implemented", "implementation",
		},
		claims: []string{
			"Cannot prove the code was eventually committed",
			"Cannot prove the code meets quality standards",
			"Cannot prove the code went through review",
		},
	},
	{
		keywords: []string{"测试"},
		words:    []string{"test", "tests", "testing", "tested"},
		claims: []string{
			"Cannot prove the tests cover every scenario",
			"Cannot prove the tests passed",
			"Cannot prove every issue found was fixed",
		},
	},
	{
		keywords: []string{"修复"},
		words:    []string{"bug", "bugs", "bugfix", "fix", "fixes", "fixed", "fixing"},
		claims: []string{
			"Cannot prove the bug was completely fixed",
			"Cannot prove no new issues were introduced",
			"Cannot prove the fix was adequately tested",
		},
	},
	{
		keywords: []string{"发送", "邮件"},
		words:    []string{"send", "sends", "sending", "sent", "email", "emails", "mail"},
		claims: []string{
			"Cannot prove the send button was clicked",
			"Cannot prove the message was delivered",
			"Cannot prove the recipients were correct",
		},
	},
	{
		keywords: []string{"会议", "讨论"},
		words:    []string{"meeting", "meetings", "discuss", "discusses", "discussing", "discussed", "discussion"},
		claims: []string{
			"Cannot prove the user actually attended",
			"Cannot prove what was discussed",
			"Cannot prove a consensus was reached",
		},
	},
	{
		keywords: []string{"优化", "改进"},
		stems:    []string{"optimiz", "optimis", "improv"},
		claims: []string{
			"Cannot prove the optimization had the intended effect",
			"Cannot prove the size of any performance gain",
			"Cannot prove no new issues were introduced",
		},
	},
}

func (g claimGroup) matches(title string, words []string) bool {
	for _, kw := range g.keywords {
		if strings.Contains(title, kw) {
			return true
		}
	}
	for _, w := range words {
		if slices.Contains(g.words, w) {
			return true
		}
		for _, stem := range g.stems {
			if strings.HasPrefix(w, stem) {
				return true
			}
		}
	}
	return false
}

// titleWords splits a lowered title into runs of ASCII letters and digits.
// CJK text separates words, so "修复bug" yields "bug".
func titleWords(title string) []string {
	return strings.FieldsFunc(title, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

// AssessUncertainty lists the claims c's evidence cannot support. The three
// baseline claims are always present. The confidence tier is derived from
// the number of sample ids on the candidate, not from the examples selected
// for the pack.
func AssessUncertainty(c miner.Candidate) Uncertainty {
	title := strings.ToLower(c.Title)
	words := titleWords(title)

	claims := append([]string(nil), baselineClaims...)
	for _, g := range claimGroups {
		if g.matches(title, words) {
			claims = append(claims, g.claims...)
		}
	}

	return Uncertainty{
		WhatWeCannotProve: claims,
		ConfidenceLevel:   confidenceFor(len(c.SampleActivityIDs)),
		Limitations:       append([]string(nil), baselineLimitations...),
	}
}

func confidenceFor(samples int) string {
	switch {
	case samples >= 3:
		return ConfidenceHigh
	case samples == 2:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
