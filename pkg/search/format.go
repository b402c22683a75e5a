package search

import (
	"fmt"
	"strings"

	"github.com/dthomason/wpsearch/pkg/wordpress"
)

// excerptLimit bounds how much of each excerpt is sent for analysis.
const excerptLimit = 200

// formatRecordsForAnalysis renders records as the numbered list the
// analysis completion expects.
func formatRecordsForAnalysis(records []wordpress.ContentRecord) string {
	if len(records) == 0 {
		return "No content found."
	}

	var sb strings.Builder
	for i, r := range records {
		fmt.Fprintf(&sb, "Result %d:\nTitle: %s\nExcerpt: %s...\nURL: %s\nAuthor: %s\nDate: %s\n\n",
			i+1, r.Title, truncate(r.Excerpt, excerptLimit), r.URL, r.Author, r.Date)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// truncate cuts s to at most limit characters, not bytes.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
