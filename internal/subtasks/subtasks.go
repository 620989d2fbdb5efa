// Package subtasks decodes the subtasks field of a task record.
//
// The backend stores subtasks either as a JSON array of strings or as the
// textual rendering of a list ("['a', 'b']"). Parse accepts both and never fails:
// anything it cannot make sense of yields an empty list.
package subtasks

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Kind identifies the shape a subtasks field arrived in.
type Kind int

const (
	// Empty is a missing, null or empty-string field.
	Empty Kind = iota
	// Sequence is a field that was already a JSON array of strings.
	Sequence
	// Text is a string field whose content still has to be decoded.
	Text
)

// Field is the raw subtasks value of a task record.
type Field struct {
	Kind  Kind
	Text  string
	Items []string
}

// FromText wraps a raw string as a Field.
func FromText(s string) Field {
	if s == "" {
		return Field{}
	}
	return Field{Kind: Text, Text: s}
}

// FromList wraps an already decoded list as a Field.
func FromList(items []string) Field {
	return Field{Kind: Sequence, Items: items}
}

// UnmarshalJSON resolves the field shape. It never returns an error: values that
// are neither strings nor arrays of strings decode as Empty.
func (f *Field) UnmarshalJSON(data []byte) error {
	*f = Field{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*f = FromText(s)
		}
	case '[':
		if items, ok := decodeStrings(data); ok {
			*f = FromList(items)
		}
	}
	return nil
}

// MarshalJSON writes the field back in the shape it was read.
func (f Field) MarshalJSON() ([]byte, error) {
	switch f.Kind {
	case Sequence:
		if f.Items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(f.Items)
	case Text:
		return json.Marshal(f.Text)
	default:
		return []byte("null"), nil
	}
}

// IsZero reports whether the field carries no value at all.
func (f Field) IsZero() bool {
	return f.Kind == Empty
}

// Parse returns the subtasks held by f in source order.
func Parse(f Field) []string {
	switch f.Kind {
	case Sequence:
		out := make([]string, len(f.Items))
		copy(out, f.Items)
		return out
	case Text:
		return ParseText(f.Text)
	default:
		return []string{}
	}
}

// ParseText decodes a textual subtasks value. JSON is tried first; if that fails
// the text is scanned as a bracketed, comma separated list of quoted items.
func ParseText(s string) []string {
	if trimmed := strings.TrimSpace(s); trimmed == "" || trimmed == "null" {
		return []string{}
	}
	if items, ok := decodeStrings([]byte(s)); ok {
		return items
	}

	return parseLegacy(s)
}

// decodeStrings decodes a JSON array whose elements are all strings. A null
// element fails the decode instead of becoming "".
func decodeStrings(data []byte) ([]string, bool) {
	var ptrs []*string
	if err := json.Unmarshal(data, &ptrs); err != nil || ptrs == nil {
		return nil, false
	}
	items := make([]string, len(ptrs))
	for i, p := range ptrs {
		if p == nil {
			return nil, false
		}
		items[i] = *p
	}
	return items, true
}

// Encode renders items in the JSON form ParseText reads back unchanged.
func Encode(items []string) string {
	if items == nil {
		items = []string{}
	}
	// Marshalling a []string cannot fail.
	b, _ := json.Marshal(items)
	return string(b)
}

func parseLegacy(s string) []string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return []string{}
	}

	out := []string{}
	for _, raw := range splitQuoted(s[1 : len(s)-1]) {
		if item := cleanElement(raw); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// splitQuoted splits at commas outside quoted spans. Escape sequences inside a
// span are resolved as they are read, so the quote characters that delimit the
// span are the only ones left for cleanElement to strip.
func splitQuoted(body string) []string {
	var (
		parts   []string
		cur     strings.Builder
		quote   byte
		escaped bool
	)

	for i := 0; i < len(body); i++ {
		c := body[i]

		if quote != 0 {
			switch {
			case escaped:
				cur.WriteString(unescape(c))
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
				cur.WriteByte(c)
			default:
				cur.WriteByte(c)
			}
			continue
		}

		switch c {
		case '\'', '"':
			quote = c
			cur.WriteByte(c)
		case ',':
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}

	// A dangling backslash at the end of an unterminated span is kept.
	if escaped {
		cur.WriteByte('\\')
	}
	return append(parts, cur.String())
}

func unescape(c byte) string {
	switch c {
	case '\'', '"', '\\':
		return string(c)
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	default:
		return "\\" + string(c)
	}
}

func cleanElement(raw string) string {
	s := strings.TrimSpace(raw)
	if s != "" && isQuote(s[0]) {
		s = s[1:]
	}
	if s != "" && isQuote(s[len(s)-1]) {
		s = s[:len(s)-1]
	}
	return s
}

func isQuote(c byte) bool {
	return c == '\'' || c == '"'
}
