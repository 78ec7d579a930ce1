package miner

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultTopK is the number of keywords Extract keeps per text.
const DefaultTopK = 3

// defaultVocabulary lists the application and tool names recognised in
// activity content. Matches emit the canonical spelling below.
var defaultVocabulary = [...]string{
	"Claude", "Cursor", "VSCode", "IDEA", "IntelliJ", "PyCharm", "WebStorm",
	"Chrome", "Firefox", "Safari", "Edge",
	"Slack", "Discord", "Teams",
	"Notion", "Obsidian", "OneNote",
	"Figma", "Sketch", "Photoshop",
	"Terminal", "Git", "Docker", "Kubernetes", "K8s",
}

// DefaultVocabulary returns a copy of the built-in application/tool table.
func DefaultVocabulary() []string {
	out := make([]string, len(defaultVocabulary))
	copy(out, defaultVocabulary[:])
	return out
}

var (
	urlPattern       = regexp.MustCompile(`https?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\\(\\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)
	camelCasePattern = regexp.MustCompile(`[A-Z][a-z]+(?:[A-Z][a-z]+)*`)
)

// Extractor pulls salient tokens out of free text. It is immutable after
// construction and safe for concurrent use.
type Extractor struct {
	vocab []string
	upper []string
	topK  int
}

// NewExtractor builds an extractor over vocab. A non-positive topK means
// DefaultTopK.
func NewExtractor(vocab []string, topK int) *Extractor {
	if topK <= 0 {
		topK = DefaultTopK
	}
	e := &Extractor{
		vocab: make([]string, len(vocab)),
		upper: make([]string, len(vocab)),
		topK:  topK,
	}
	for i, name := range vocab {
		e.vocab[i] = name
		e.upper[i] = strings.ToUpper(name)
	}
	return e
}

// Extract returns up to topK distinct keywords from text in scan order:
// URL domains, then vocabulary hits, then CamelCase tokens. Duplicates are
// detected case-insensitively and keywords of 2 characters or fewer are dropped.
func (e *Extractor) Extract(text string) []string {
	if text == "" {
		return nil
	}

	var found []string
	for _, u := range urlPattern.FindAllString(text, -1) {
		if label := domainLabel(u); label != "" {
			found = append(found, label)
		}
	}

	upper := strings.ToUpper(text)
	for i, name := range e.upper {
		if strings.Contains(upper, name) {
			found = append(found, e.vocab[i])
		}
	}

	found = append(found, camelCaseTokens(text)...)

	seen := make(map[string]struct{}, len(found))
	out := make([]string, 0, e.topK)
	for _, kw := range found {
		lower := strings.ToLower(kw)
		if len([]rune(lower)) <= 2 {
			continue
		}
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, kw)
		if len(out) == e.topK {
			break
		}
	}
	return out
}

// camelCaseTokens returns the CamelCase-shaped tokens that stand alone as
// words. Any letter, number or underscore counts as a word character, so a
// token glued to CJK text is not a token.
func camelCaseTokens(text string) []string {
	var out []string
	for _, loc := range camelCasePattern.FindAllStringIndex(text, -1) {
		if before, _ := utf8.DecodeLastRuneInString(text[:loc[0]]); loc[0] > 0 && isWordRune(before) {
			continue
		}
		if after, _ := utf8.DecodeRuneInString(text[loc[1]:]); loc[1] < len(text) && isWordRune(after) {
			continue
		}
		out = append(out, text[loc[0]:loc[1]])
	}
	return out
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// domainLabel returns the first label of the URL's host with "www." removed,
// or "" when the host has a single label.
func domainLabel(rawURL string) string {
	_, rest, ok := strings.Cut(rawURL, "://")
	if !ok {
		return ""
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	host := strings.ReplaceAll(rest, "www.", "")
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[0]
}
