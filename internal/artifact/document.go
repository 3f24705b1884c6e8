package artifact

import (
	"regexp"
	"strings"
)

const (
	defaultDocumentTitle = "Documentation"
	overviewTitle        = "Overview"
)

var (
	titlePattern   = regexp.MustCompile(`(?m)^#[ \t]+([^\n]+?)[ \t]*\r?$`)
	sectionPattern = regexp.MustCompile(`(?m)^##[ \t]+([^\n]+?)[ \t]*\r?$`)
)

// ParseDocument splits text into sections at level-2 headings ("## Title").
// Headings inside fenced code blocks are ignored. Prose before the first
// section heading becomes an "Overview" section when it is not blank, and text
// with no section headings at all becomes a single "Overview" section. The
// document title is the first level-1 heading, or "Documentation".
func ParseDocument(text string) Document {
	fences := fencedRanges(text)
	doc := Document{Title: defaultDocumentTitle}

	titleStart, titleEnd := -1, -1
	for _, m := range titlePattern.FindAllStringSubmatchIndex(text, -1) {
		if insideFence(m[0], fences) {
			continue
		}
		doc.Title = strings.TrimSpace(text[m[2]:m[3]])
		titleStart, titleEnd = m[0], m[1]
		break
	}

	var headings [][]int
	for _, m := range sectionPattern.FindAllStringSubmatchIndex(text, -1) {
		if !insideFence(m[0], fences) {
			headings = append(headings, m)
		}
	}

	preambleEnd := len(text)
	if len(headings) > 0 {
		preambleEnd = headings[0][0]
	}
	preamble := text[:preambleEnd]
	if titleStart >= 0 && titleEnd <= preambleEnd {
		preamble = text[:titleStart] + text[titleEnd:preambleEnd]
	}
	if overview := strings.TrimSpace(preamble); overview != "" || len(headings) == 0 {
		doc.Sections = append(doc.Sections, Section{Title: overviewTitle, Content: overview})
	}

	for i, h := range headings {
		end := len(text)
		if i+1 < len(headings) {
			end = headings[i+1][0]
		}
		doc.Sections = append(doc.Sections, Section{
			Title:   strings.TrimSpace(text[h[2]:h[3]]),
			Content: strings.TrimSpace(text[h[1]:end]),
		})
	}
	return doc
}
