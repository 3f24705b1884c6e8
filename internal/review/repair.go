package review

import (
	"bytes"
	"strings"
)

// frame is an open container while repairing.
type frame struct {
	close byte
	// keyPending is set in objects once a key string has been read and the
	// colon has not.
	keyPending bool
	// expectKey is set in objects after '{' or ','.
	expectKey bool
}

// Repair attempts to turn truncated or slightly malformed JSON into valid
// JSON. It closes an unterminated string, completes a dangling key or colon
// with null, finishes a cut-off true/false/null literal, drops trailing commas
// and closes every open object and array. Raw control characters inside
// strings are escaped.
//
// Only text that starts with '{' or '[' is repaired; ok is false otherwise.
// Anything after the top-level value is kept as-is, so repaired text with
// trailing prose still fails to parse.
func Repair(s string) (repaired string, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return "", false
	}

	var (
		out      = make([]byte, 0, len(s)+8)
		stack    []frame
		inString bool
		escaped  bool
		isKey    bool
	)

	top := func() *frame {
		if len(stack) == 0 {
			return nil
		}
		return &stack[len(stack)-1]
	}

	i := 0
	for ; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
				out = append(out, c)
			case c == '\\':
				escaped = true
				out = append(out, c)
			case c == '"':
				inString = false
				out = append(out, c)
				if isKey {
					if f := top(); f != nil {
						f.keyPending = true
					}
				}
			case c == '\n':
				out = append(out, `\n`...)
			case c == '\r':
				out = append(out, `\r`...)
			case c == '\t':
				out = append(out, `\t`...)
			default:
				out = append(out, c)
			}
			continue
		}

		switch c {
		case '"':
			inString = true
			f := top()
			isKey = f != nil && f.close == '}' && f.expectKey
			if isKey {
				f.expectKey = false
			}
		case '{':
			stack = append(stack, frame{close: '}', expectKey: true})
		case '[':
			stack = append(stack, frame{close: ']'})
		case ':':
			if f := top(); f != nil {
				f.keyPending = false
			}
		case ',':
			if f := top(); f != nil && f.close == '}' {
				f.expectKey = true
			}
		case '}', ']':
			out = trimTrailingComma(out)
			if f := top(); f != nil && f.close == c {
				out = completeDangling(out, f)
				stack = stack[:len(stack)-1]
			}
		}
		out = append(out, c)

		if len(stack) == 0 {
			i++
			break
		}
	}

	if i < len(s) {
		out = append(out, s[i:]...)
		return string(out), true
	}

	if inString {
		if escaped {
			out = out[:len(out)-1]
		}
		out = append(out, '"')
		if isKey {
			if f := top(); f != nil {
				f.keyPending = true
			}
		}
	}

	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		out = completeLiteral(out)
		out = trimTrailingComma(out)
		out = completeDangling(out, f)
		out = append(out, f.close)
		stack = stack[:len(stack)-1]
	}
	return string(out), true
}

func trimSpace(buf []byte) []byte {
	return bytes.TrimRight(buf, " \t\r\n")
}

// trimTrailingComma drops whitespace and a single comma from the end of buf.
func trimTrailingComma(buf []byte) []byte {
	buf = trimSpace(buf)
	if n := len(buf); n > 0 && buf[n-1] == ',' {
		buf = trimSpace(buf[:n-1])
	}
	return buf
}

// completeDangling finishes a key without a value before f is closed.
func completeDangling(buf []byte, f *frame) []byte {
	buf = trimSpace(buf)
	switch {
	case bytes.HasSuffix(buf, []byte(":")):
		buf = append(buf, "null"...)
	case f.close == '}' && f.keyPending:
		buf = append(buf, ":null"...)
	}
	f.keyPending = false
	return buf
}

// completeLiteral finishes a literal or number cut off at the end of buf.
func completeLiteral(buf []byte) []byte {
	buf = trimSpace(buf)
	start := len(buf)
	for start > 0 && isBareByte(buf[start-1]) {
		start--
	}
	word := string(buf[start:])
	if word == "" {
		return buf
	}

	if word[0] >= 'a' && word[0] <= 'z' {
		for _, lit := range []string{"true", "false", "null"} {
			if strings.HasPrefix(lit, word) {
				return append(buf[:start], lit...)
			}
		}
		return buf
	}
	return bytes.TrimRight(buf, "-+.eE")
}

func isBareByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.'
}
