// Package page parses source page metadata. Pages declare publish metadata
// (title, date, template, draft) in YAML frontmatter; everything the build
// core needs from a page beyond its raw bytes flows through Meta.
package page

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter is returned when a frontmatter block is opened
// but never closed.
var ErrMissingClosingDelimiter = errors.New("frontmatter: missing closing delimiter")

var delim = []byte("---")

// Split separates YAML frontmatter (`---` delimited) from the markdown body.
//
// If the document does not start with a frontmatter delimiter, had is false
// and body is the full input.
func Split(content []byte) (frontmatter, body []byte, had bool, err error) {
	nl := detectNewline(content)

	open := append(append([]byte{}, delim...), nl...)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		// Immediately closed: empty frontmatter.
		return []byte{}, rest[len(open):], true, nil
	}

	closeSeq := append(append(append([]byte{}, nl...), delim...), nl...)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	return rest[:idx+len(nl)], rest[idx+len(closeSeq):], true, nil
}

func detectNewline(content []byte) []byte {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return []byte("\r\n")
	}
	return []byte("\n")
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(frontmatter) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}
