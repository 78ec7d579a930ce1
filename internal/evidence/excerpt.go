package evidence

import (
	"strings"

	"github.com/HendryAvila/mcagent/internal/activity"
)

// NoExcerpt is returned when an activity has neither usable content nor a title.
const NoExcerpt = "No excerpt available"

const (
	minContentLength = 10
	cutWindow        = 50
	ellipsis         = "..."
)

// Excerpt returns a readable snippet of a: trimmed content when it is longer
// than 10 characters, else the title, else NoExcerpt. Content longer than
// maxLength is cut at the last space within the final 50 characters before
// the limit (or hard-cut when there is none) and suffixed with "...".
// Lengths count characters, not bytes.
func Excerpt(a activity.Activity, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultExcerptLength
	}
	content := []rune(strings.TrimSpace(a.Content))
	if len(content) > minContentLength {
		if len(content) <= maxLength {
			return string(content)
		}
		cut := maxLength
		if pos := lastSpace(content, max(maxLength-cutWindow, 0), maxLength); pos > 0 {
			cut = pos
		}
		return string(content[:cut]) + ellipsis
	}
	if a.Title != "" {
		return a.Title
	}
	return NoExcerpt
}

// lastSpace returns the index of the last ' ' in s[from:to], or -1.
func lastSpace(s []rune, from, to int) int {
	for i := to - 1; i >= from; i-- {
		if s[i] == ' ' {
			return i
		}
	}
	return -1
}
