package streamtool

import "strings"

// scanKind is the tri-state result of one scan pass over the buffer.
type scanKind int

const (
	// scanNoCall: no call candidate anywhere; a prefix of the buffer is safe
	// to emit as plain text (a suffix may still be held back as a possible
	// marker or identifier prefix).
	scanNoCall scanKind = iota
	// scanIncomplete: a call candidate starts in the buffer but its balanced
	// close has not arrived yet. Text before the candidate is safe to emit;
	// the candidate itself must stay buffered. Never treated as no-call,
	// otherwise calls split across chunks would be corrupted.
	scanIncomplete
	// scanComplete: a full call was found.
	scanComplete
)

type callForm int

const (
	formInline callForm = iota // tool_name(arg, key=value, ...)
	formMarker                 // TOOL_CALL:{"tool": ..., "input_schema": ...}
)

// rawCall is the ephemeral product of the scanner, consumed immediately by
// the normalizer. args is a substring of the buffer; the normalizer copies
// every value out before the buffer advances.
type rawCall struct {
	form callForm
	name string // inline form only
	args string // inline: text between the call parens; marker: the JSON object
	// malformed is set when the marker was present but not followed by a
	// JSON object; the call is consumed and rendered as a validation error.
	malformed string
	start     int // offset of the call start in the scanned buffer
	end       int // offset just past the call
}

// scanResult couples the kind with the extracted call (scanComplete) or the
// length of the emittable plain-text prefix (scanNoCall / scanIncomplete).
type scanResult struct {
	kind scanKind
	call rawCall
	safe int
}

// scanner locates call candidates in a buffer. It is stateless across calls:
// the stream rescans the retained buffer on every feed, which makes chunk
// boundary handling a non-issue by construction.
type scanner struct {
	marker string
	isTool func(name string) bool
	// isToolPrefix reports whether any registered tool name starts with the
	// given fragment; used to decide how much trailing text to hold back.
	isToolPrefix func(fragment string) bool
}

// scan finds the first call candidate (marker or inline, earliest wins) and
// determines its extent, tracking paren/bracket depth and quote state so
// delimiters inside quoted literals never terminate a call early.
func (s *scanner) scan(buf string) scanResult {
	mi := strings.Index(buf, s.marker)
	ii, name, open := s.findInline(buf, mi)

	switch {
	case mi < 0 && ii < 0:
		return scanResult{kind: scanNoCall, safe: len(buf) - s.holdback(buf)}
	case mi >= 0 && (ii < 0 || mi < ii):
		return s.scanMarker(buf, mi)
	default:
		return s.scanInline(buf, ii, name, open)
	}
}

// findInline returns the start of the earliest registered identifier
// followed (after optional spaces) by an open paren, searching only before
// limit (the marker position, or the whole buffer when limit < 0).
// Identifiers are maximal word runs, so "myshell(" never matches "shell".
func (s *scanner) findInline(buf string, limit int) (start int, name string, open int) {
	end := len(buf)
	if limit >= 0 && limit < end {
		end = limit
	}
	i := 0
	for i < end {
		if !isWordChar(buf[i]) {
			i++
			continue
		}
		j := i
		for j < len(buf) && isWordChar(buf[j]) {
			j++
		}
		k := j
		for k < len(buf) && (buf[k] == ' ' || buf[k] == '\t') {
			k++
		}
		if k < len(buf) && buf[k] == '(' && s.isTool(buf[i:j]) {
			return i, buf[i:j], k
		}
		i = j + 1
	}
	return -1, "", -1
}

// scanMarker determines the extent of a TOOL_CALL: JSON object starting at
// the marker position mi. Brace depth plus a string/escape machine mirrors
// JSON syntax; the object may span any number of chunks.
func (s *scanner) scanMarker(buf string, mi int) scanResult {
	i := mi + len(s.marker)
	for i < len(buf) && isSpace(buf[i]) {
		i++
	}
	if i == len(buf) {
		return scanResult{kind: scanIncomplete, safe: mi}
	}
	if buf[i] != '{' {
		return scanResult{kind: scanComplete, call: rawCall{
			form:      formMarker,
			malformed: "expected '{' after marker",
			start:     mi,
			end:       i,
		}}
	}
	depth := 0
	inString := false
	escape := false
	for j := i; j < len(buf); j++ {
		ch := buf[j]
		if inString {
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return scanResult{kind: scanComplete, call: rawCall{
					form:  formMarker,
					args:  buf[i : j+1],
					start: mi,
					end:   j + 1,
				}}
			}
		}
	}
	return scanResult{kind: scanIncomplete, safe: mi}
}

// scanInline determines the extent of an inline call whose identifier starts
// at start and whose open paren sits at open. Paren depth marks the call
// extent; single, double, and triple quotes (with backslash escapes) make
// their content opaque, so ")" inside a quoted literal never closes the call.
func (s *scanner) scanInline(buf string, start int, name string, open int) scanResult {
	depth := 1
	inQuote := false
	triple := false
	var delim byte
	escape := false

	i := open + 1
	for i < len(buf) {
		ch := buf[i]
		if escape {
			escape = false
			i++
			continue
		}
		if !inQuote {
			if (ch == '"' || ch == '\'') && i+3 <= len(buf) && buf[i+1] == ch && buf[i+2] == ch {
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
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					return scanResult{kind: scanComplete, call: rawCall{
						form:  formInline,
						name:  name,
						args:  buf[open+1 : i],
						start: start,
						end:   i + 1,
					}}
				}
			}
			i++
			continue
		}
		if ch == '\\' {
			escape = true
			i++
			continue
		}
		if triple {
			if ch == delim && i+3 <= len(buf) && buf[i+1] == delim && buf[i+2] == delim {
				inQuote = false
				triple = false
				i += 3
				continue
			}
		} else if ch == delim {
			inQuote = false
		}
		i++
	}
	return scanResult{kind: scanIncomplete, safe: start}
}

// holdback returns how many trailing bytes must stay buffered because they
// could be the start of a call that continues in the next chunk: a prefix of
// the marker, an identifier still being streamed, or a registered identifier
// waiting for its open paren.
func (s *scanner) holdback(buf string) int {
	n := len(buf)
	keep := n

	// Trailing word run: hold it only when it could still grow into a
	// registered tool name. A word run extends rightward only, so a run that
	// prefixes no tool name can never become a call start.
	i := n
	for i > 0 && isWordChar(buf[i-1]) {
		i--
	}
	if i < n && s.isToolPrefix(buf[i:]) {
		keep = i
	} else {
		// Trailing spaces after a registered identifier: "shell " may become
		// "shell (" on the next feed.
		j := n
		for j > 0 && (buf[j-1] == ' ' || buf[j-1] == '\t') {
			j--
		}
		if j < n {
			k := j
			for k > 0 && isWordChar(buf[k-1]) {
				k--
			}
			if k < j && s.isTool(buf[k:j]) {
				keep = k
			}
		}
	}

	// Trailing prefix of the marker itself.
	for l := min(len(s.marker)-1, n); l > 0; l-- {
		if buf[n-l:] == s.marker[:l] {
			if n-l < keep {
				keep = n - l
			}
			break
		}
	}
	return n - keep
}

func isWordChar(ch byte) bool {
	return ch == '_' ||
		(ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9')
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}
