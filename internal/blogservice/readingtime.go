package blogservice

import (
	"fmt"
	"strings"
)

const wordsPerMinute = 200

// estimateReadingTime derives the "<n> min read" label from the body's word
// count, never less than one minute.
func estimateReadingTime(body string) string {
	words := len(strings.Fields(body))

	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}

	return fmt.Sprintf("%d min read", minutes)
}

// parseTags splits a comma-delimited tag string into a trimmed list, dropping
// empty entries.
func parseTags(s string) []string {
	parts := strings.Split(s, ",")

	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if tag := strings.TrimSpace(p); tag != "" {
			tags = append(tags, tag)
		}
	}

	return tags
}
