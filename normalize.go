package streamtool

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// normalize turns a rawCall into a StructuredCall. Inline calls are parsed
// with the informal literal grammar; marker calls carry a JSON object with
// "tool" and "input_schema" fields. Errors are CallError values the stream
// renders as validation_error annotations.
func normalize(rc rawCall) (StructuredCall, error) {
	if rc.malformed != "" {
		return StructuredCall{}, &CallError{Reason: rc.malformed, Err: ErrMalformedCall}
	}
	if rc.form == formMarker {
		return normalizeMarker(rc.args)
	}
	return normalizeInline(rc.name, rc.args)
}

func normalizeMarker(jsonText string) (StructuredCall, error) {
	var payload struct {
		Tool  string          `json:"tool"`
		Input json.RawMessage `json:"input_schema"`
	}
	if err := json.Unmarshal([]byte(jsonText), &payload); err != nil {
		return StructuredCall{}, &CallError{Reason: "json parse error: " + err.Error(), Err: ErrValidation}
	}
	if payload.Tool == "" || payload.Input == nil {
		return StructuredCall{}, &CallError{Reason: "tool call must have 'tool' and 'input_schema' fields", Err: ErrValidation}
	}
	var named map[string]any
	if err := json.Unmarshal(payload.Input, &named); err != nil {
		return StructuredCall{}, &CallError{Reason: "input_schema must be an object", Err: ErrValidation}
	}
	return StructuredCall{Tool: payload.Tool, Named: named}, nil
}

func normalizeInline(name, rawArgs string) (StructuredCall, error) {
	entries, err := splitArgs(rawArgs)
	if err != nil {
		return StructuredCall{}, err
	}
	call := StructuredCall{Tool: name}
	for _, entry := range entries {
		key, valueText, isNamed := splitNamed(entry)
		value, err := parseLiteral(valueText)
		if err != nil {
			return StructuredCall{}, err
		}
		if isNamed {
			if call.Named == nil {
				call.Named = make(map[string]any)
			}
			if _, dup := call.Named[key]; dup {
				return StructuredCall{}, &CallError{
					Reason: fmt.Sprintf("duplicate keyword argument %q", key),
					Err:    ErrValidation,
				}
			}
			call.Named[key] = value
			continue
		}
		if call.Named != nil {
			return StructuredCall{}, &CallError{
				Reason: "positional argument after keyword argument",
				Err:    ErrValidation,
			}
		}
		call.Positional = append(call.Positional, value)
	}
	return call, nil
}

// splitArgs splits the raw argument text on top-level commas, respecting
// quotes (single, double, triple), escapes, and paren/bracket/brace nesting.
// The same quote rules as the scanner, so a comma inside a quoted multi-line
// literal never splits an entry.
func splitArgs(raw string) ([]string, error) {
	var entries []string
	var depth int
	inQuote := false
	triple := false
	var delim byte
	escape := false
	start := 0

	i := 0
	for i < len(raw) {
		ch := raw[i]
		if escape {
			escape = false
			i++
			continue
		}
		if inQuote {
			switch {
			case ch == '\\':
				escape = true
				i++
			case triple && ch == delim && i+3 <= len(raw) && raw[i+1] == delim && raw[i+2] == delim:
				inQuote = false
				triple = false
				i += 3
			case !triple && ch == delim:
				inQuote = false
				i++
			default:
				i++
			}
			continue
		}
		if (ch == '"' || ch == '\'') && i+3 <= len(raw) && raw[i+1] == ch && raw[i+2] == ch {
			inQuote = true
			triple = true
			delim = ch
			i += 3
			continue
		}
		switch ch {
		case '"', '\'':
			inQuote = true
			triple = false
			delim = ch
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth < 0 {
				return nil, &CallError{Reason: "unbalanced delimiters in arguments", Err: ErrMalformedCall}
			}
		case ',':
			if depth == 0 {
				entries = append(entries, raw[start:i])
				start = i + 1
			}
		}
		i++
	}
	if inQuote || depth != 0 {
		return nil, &CallError{Reason: "unbalanced delimiters in arguments", Err: ErrMalformedCall}
	}
	entries = append(entries, raw[start:])
	// "f()" has a single all-whitespace entry, which means no arguments.
	if len(entries) == 1 && strings.TrimSpace(entries[0]) == "" {
		return nil, nil
	}
	return entries, nil
}

// splitNamed detects a top-level name=value entry. "==" never counts, and
// the name must be a bare identifier, so string values containing '=' are
// unaffected (they are quoted and never look like identifiers).
func splitNamed(entry string) (key, value string, ok bool) {
	s := strings.TrimSpace(entry)
	i := 0
	for i < len(s) && isWordChar(s[i]) {
		i++
	}
	if i == 0 {
		return "", entry, false
	}
	j := i
	for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
		j++
	}
	if j >= len(s) || s[j] != '=' || (j+1 < len(s) && s[j+1] == '=') {
		return "", entry, false
	}
	return s[:i], s[j+1:], true
}

// parseLiteral coerces one argument entry into a Go value. Quoted text is
// de-escaped; digit sequences become numbers; true/false become booleans;
// null/none become nil; bracket lists recurse; brace objects parse as JSON.
// Anything unrecognized is kept as a string — the call syntax is informal
// English-like code, not a strict language, so a bare token is still a value.
func parseLiteral(text string) (any, error) {
	s := strings.TrimSpace(text)
	switch {
	case s == "":
		return "", nil
	case len(s) >= 6 && (strings.HasPrefix(s, `"""`) || strings.HasPrefix(s, "'''")):
		delim := s[:3]
		if strings.HasSuffix(s, delim) {
			// Triple-quoted content is taken raw, newlines and all.
			return s[3 : len(s)-3], nil
		}
		return s, nil
	case s[0] == '"' || s[0] == '\'':
		if len(s) >= 2 && s[len(s)-1] == s[0] {
			return unescape(s[1 : len(s)-1]), nil
		}
		return nil, &CallError{Reason: "unterminated string literal", Err: ErrMalformedCall}
	case s == "true":
		return true, nil
	case s == "false":
		return false, nil
	case s == "null" || s == "none" || s == "None":
		return nil, nil
	case s[0] == '[':
		return parseList(s)
	case s[0] == '{':
		var m map[string]any
		if err := json.Unmarshal([]byte(s), &m); err == nil {
			return m, nil
		}
		return s, nil
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil && isNumeric(s) {
		return n, nil
	}
	return s, nil
}

func parseList(s string) (any, error) {
	if !strings.HasSuffix(s, "]") {
		return nil, &CallError{Reason: "unterminated list literal", Err: ErrMalformedCall}
	}
	inner := s[1 : len(s)-1]
	if strings.TrimSpace(inner) == "" {
		return []any{}, nil
	}
	parts, err := splitArgs(inner)
	if err != nil {
		return nil, err
	}
	items := make([]any, 0, len(parts))
	for _, p := range parts {
		v, err := parseLiteral(p)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}

// isNumeric restricts number coercion to optionally signed digit runs with
// at most one decimal point; ParseFloat alone would also accept exponents
// and hex floats, which the informal grammar does not define.
func isNumeric(s string) bool {
	i := 0
	if s[0] == '+' || s[0] == '-' {
		i = 1
	}
	digits := 0
	dots := 0
	for ; i < len(s); i++ {
		switch {
		case s[i] >= '0' && s[i] <= '9':
			digits++
		case s[i] == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\', '"', '\'':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
