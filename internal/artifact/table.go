package artifact

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const defaultTableTitle = "Table"

var tableMarkdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// ParseTable returns the first GFM pipe table in text, or nil when there is
// none.
//
// Accepted grammar: a header row of pipe-separated cells immediately followed
// by a separator row of the form |---|---| (alignment colons allowed). Each
// body row becomes a record keyed by the header cell text; cells missing from
// a short row are "" and surplus cells are dropped. The title is the nearest
// heading before the table, or "Table".
func ParseTable(src string) *Table {
	source := []byte(src)
	doc := tableMarkdown.Parser().Parse(text.NewReader(source))

	var found *extast.Table
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*extast.Table); ok {
			found = t
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if found == nil {
		return nil
	}

	table := &Table{Title: precedingHeading(found, source), Rows: []map[string]string{}}
	for row := found.FirstChild(); row != nil; row = row.NextSibling() {
		cells := rowCells(row, source)
		if _, isHeader := row.(*extast.TableHeader); isHeader {
			for i, c := range cells {
				if c == "" {
					c = fmt.Sprintf("Column %d", i+1)
				}
				table.Columns = append(table.Columns, c)
			}
			continue
		}
		record := make(map[string]string, len(table.Columns))
		for i, col := range table.Columns {
			if i < len(cells) {
				record[col] = cells[i]
			} else {
				record[col] = ""
			}
		}
		table.Rows = append(table.Rows, record)
	}
	if len(table.Columns) == 0 {
		return nil
	}
	return table
}

func rowCells(row ast.Node, source []byte) []string {
	var cells []string
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		cells = append(cells, strings.TrimSpace(collectPlainText(cell, source)))
	}
	return cells
}

// precedingHeading walks backwards from n, then from each ancestor, and
// returns the text of the first heading it meets.
func precedingHeading(n ast.Node, source []byte) string {
	for cur := n; cur != nil; cur = cur.Parent() {
		for prev := cur.PreviousSibling(); prev != nil; prev = prev.PreviousSibling() {
			if h, ok := prev.(*ast.Heading); ok {
				if title := strings.TrimSpace(collectPlainText(h, source)); title != "" {
					return title
				}
			}
		}
	}
	return defaultTableTitle
}

func collectPlainText(node ast.Node, source []byte) string {
	var b strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		switch t := n.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			walk(child)
		}
	}
	walk(node)
	return b.String()
}
