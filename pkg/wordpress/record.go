package wordpress

// ContentRecord is one normalized retrievable item. Every field has a safe
// default so a malformed upstream record degrades instead of erroring.
type ContentRecord struct {
	ID      int    `json:"id,omitempty"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	Content string `json:"content"`
	URL     string `json:"url"`
	Date    string `json:"date"` // ISO-8601 string or empty
	Author  string `json:"author"`
	Type    string `json:"type"`
	Slug    string `json:"slug"`
}

const (
	defaultTitle  = "Untitled"
	defaultAuthor = "Unknown"
	defaultType   = "post"
)

// normalizeItem maps one raw upstream object onto a ContentRecord.
// Field absence or an unexpected shape substitutes the documented default.
func normalizeItem(item map[string]any) ContentRecord {
	return ContentRecord{
		ID:      intField(item, "id"),
		Title:   stringField(item, "title", defaultTitle),
		Excerpt: stringField(item, "excerpt", ""),
		Content: stringField(item, "content", ""),
		URL:     stringField(item, "url", ""),
		Date:    stringField(item, "date", ""),
		Author:  authorName(item),
		Type:    stringField(item, "type", defaultType),
		Slug:    stringField(item, "slug", ""),
	}
}

// authorName reads the nested author object's name field. Anything other
// than an object with a string name yields "Unknown".
func authorName(item map[string]any) string {
	author, ok := item["author"].(map[string]any)
	if !ok {
		return defaultAuthor
	}
	name, ok := author["name"].(string)
	if !ok || name == "" {
		return defaultAuthor
	}
	return name
}

func stringField(item map[string]any, key, fallback string) string {
	if v, ok := item[key].(string); ok {
		return v
	}
	return fallback
}

func intField(item map[string]any, key string) int {
	// JSON numbers decode as float64
	if v, ok := item[key].(float64); ok {
		return int(v)
	}
	return 0
}
