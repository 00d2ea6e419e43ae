package page

import (
	"time"
)

// DefaultTemplate is used by pages that do not declare one.
const DefaultTemplate = "page.html"

// Meta is the publish metadata a page declares in its frontmatter.
// The build core treats it as opaque key-value data; the typed fields here
// are the ones the planner and artifact generators consume.
type Meta struct {
	Title       string
	Description string
	Date        time.Time
	Draft       bool
	Template    string

	// Fields holds the full decoded frontmatter, including keys the core
	// does not interpret.
	Fields map[string]any
}

// Parse splits frontmatter from content and extracts typed metadata.
// The remaining markdown body is returned alongside.
func Parse(content []byte) (Meta, []byte, error) {
	fm, body, had, err := Split(content)
	if err != nil {
		return Meta{}, nil, err
	}

	meta := Meta{Template: DefaultTemplate, Fields: map[string]any{}}
	if !had {
		return meta, body, nil
	}

	fields, err := ParseYAML(fm)
	if err != nil {
		return Meta{}, nil, err
	}
	meta.Fields = fields

	if v, ok := fields["title"].(string); ok {
		meta.Title = v
	}
	if v, ok := fields["description"].(string); ok {
		meta.Description = v
	}
	if v, ok := fields["draft"].(bool); ok {
		meta.Draft = v
	}
	if v, ok := fields["template"].(string); ok && v != "" {
		meta.Template = v
	}
	meta.Date = parseDate(fields["date"])

	return meta, body, nil
}

// parseDate accepts the shapes yaml.v3 produces for date-ish scalars.
func parseDate(v any) time.Time {
	switch d := v.(type) {
	case time.Time:
		return d
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if ts, err := time.Parse(layout, d); err == nil {
				return ts
			}
		}
	}
	return time.Time{}
}
