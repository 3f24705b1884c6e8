package artifact

import (
	"regexp"
	"strings"
)

// fenceLine matches a fence delimiter with 0-3 spaces of indentation and
// captures the fence characters and the info string.
var fenceLine = regexp.MustCompile("^[ ]{0,3}(`{3,}|~{3,})[ \t]*([^`]*?)[ \t]*$")

// fence is one fenced region. Start and End are byte offsets of the region
// including its delimiter lines.
type fence struct {
	Info  string
	Body  string
	Start int
	End   int
}

// scanFences returns the fenced regions of text in source order. A closing
// fence must use the same character as the opening one and be at least as
// long; a fence left open runs to the end of the text.
func scanFences(text string) []fence {
	var (
		out      []fence
		open     bool
		openChar byte
		openLen  int
		current  fence
		body     []string
	)

	pos := 0
	for pos < len(text) {
		end := strings.IndexByte(text[pos:], '\n')
		next := len(text)
		if end >= 0 {
			next = pos + end + 1
		}
		line := strings.TrimRight(text[pos:next], "\r\n")

		m := fenceLine.FindStringSubmatch(line)
		switch {
		case !open && m != nil:
			open = true
			openChar = m[1][0]
			openLen = len(m[1])
			current = fence{Info: m[2], Start: pos}
			body = body[:0]
		case open && m != nil && m[1][0] == openChar && len(m[1]) >= openLen && m[2] == "":
			open = false
			current.Body = strings.Join(body, "\n")
			current.End = next
			out = append(out, current)
		case open:
			body = append(body, line)
		}
		pos = next
	}

	if open {
		current.Body = strings.Join(body, "\n")
		current.End = len(text)
		out = append(out, current)
	}
	return out
}

// fencedRanges returns the [start, end) byte ranges covered by fences.
func fencedRanges(text string) [][2]int {
	fences := scanFences(text)
	ranges := make([][2]int, len(fences))
	for i, f := range fences {
		ranges[i] = [2]int{f.Start, f.End}
	}
	return ranges
}

func insideFence(pos int, ranges [][2]int) bool {
	for _, r := range ranges {
		if pos >= r[0] && pos < r[1] {
			return true
		}
	}
	return false
}
