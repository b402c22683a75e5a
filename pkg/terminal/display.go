package terminal

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/dthomason/wpsearch/pkg/search"
	"github.com/dthomason/wpsearch/pkg/wordpress"
)

// displayExcerptLimit bounds the excerpt shown per result panel.
const displayExcerptLimit = 300

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// DisplayWelcome prints the startup banner.
func (w *Writer) DisplayWelcome(version string) {
	w.Newline()
	w.Header("wpsearch " + version)
	w.Dim("AI-powered content search. Type a question, or 'help' for commands.")
	w.Newline()
}

// DisplayConnectionStatus reports the startup connectivity probes.
func (w *Writer) DisplayConnectionStatus(contentOK bool, modelOK bool, modelID string) {
	if contentOK {
		w.Success("WordPress content API reachable")
	} else {
		w.Error("WordPress content API unreachable")
	}
	if modelOK {
		w.Success("AI model ready (%s)", modelID)
	} else {
		w.Warn("AI model unavailable (%s); searches will use the fallback path", modelID)
	}
	w.Newline()
}

// DisplayResult renders one search outcome: the analysis panel first,
// then a box per retrieved record.
func (w *Writer) DisplayResult(result *search.Result) {
	w.Newline()

	switch result.ModelUsed {
	case search.ModelError:
		w.Error("%s", result.Analysis)
		return
	case search.ModelFallback:
		w.Warn("%s", result.Analysis)
	default:
		w.Markdown(result.Analysis)
		w.Dim("model: %s", result.ModelUsed)
	}

	if result.TotalResults == 0 {
		return
	}

	w.Newline()
	w.Header(fmt.Sprintf("Results (%d)", result.TotalResults))
	for i, record := range result.Records {
		w.DisplayRecord(i+1, record)
	}
}

// DisplayRecord renders one content record as a titled panel.
func (w *Writer) DisplayRecord(index int, record wordpress.ContentRecord) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s · %s · %s", record.Author, FormatDate(record.Date), record.Type)
	if excerpt := displayExcerpt(record.Excerpt); excerpt != "" {
		sb.WriteString("\n\n")
		sb.WriteString(excerpt)
	}
	if record.URL != "" {
		sb.WriteString("\n\n")
		sb.WriteString(record.URL)
	}

	w.Box(fmt.Sprintf("%d. %s  (id:%d)", index, record.Title, record.ID), sb.String())
}

// DisplayRecordDetail renders one record in full, for id lookups.
func (w *Writer) DisplayRecordDetail(record wordpress.ContentRecord) {
	w.Newline()
	w.Header(record.Title)
	w.Dim("%s · %s · %s", record.Author, FormatDate(record.Date), record.Type)
	w.Newline()

	body := StripHTML(record.Content)
	if body == "" {
		body = displayExcerpt(record.Excerpt)
	}
	if body != "" {
		w.Println("%s", body)
	}
	if record.URL != "" {
		w.Newline()
		w.Dim("%s", record.URL)
	}
}

// StripHTML removes markup tags and decodes entities, collapsing the
// whitespace the removal leaves behind.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	plain := tagPattern.ReplaceAllString(s, " ")
	plain = html.UnescapeString(plain)
	return strings.Join(strings.Fields(plain), " ")
}

// FormatDate prettifies a WordPress ISO timestamp. Unparseable input is
// returned as-is.
func FormatDate(date string) string {
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Format("January 2, 2006")
		}
	}
	return date
}

func displayExcerpt(excerpt string) string {
	plain := StripHTML(excerpt)
	runes := []rune(plain)
	if len(runes) <= displayExcerptLimit {
		return plain
	}
	return string(runes[:displayExcerptLimit]) + "..."
}
