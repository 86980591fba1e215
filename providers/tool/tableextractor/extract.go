package tableextractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Grid is the rows of a table in document order, each row holding the text of
// its cells. Rows keep their own length.
type Grid [][]string

// Rows returns the number of rows.
func (g Grid) Rows() int {
	return len(g)
}

// Columns returns the cell count of the widest row.
func (g Grid) Columns() int {
	widest := 0
	for _, row := range g {
		widest = max(widest, len(row))
	}
	return widest
}

// TableSummary describes one table of a document.
type TableSummary struct {
	Index   int    `json:"index"`
	Caption string `json:"caption,omitempty"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
}

// Extract returns the cells of the table at tableIndex, counting every
// <table> element in document order, nested ones included.
//
// Header and data cells are merged into one grid. Rows of tables nested in
// the selected one are not part of it; their text shows up flattened inside
// the enclosing cell instead.
func Extract(htmlContent string, tableIndex int) (Grid, error) {
	if tableIndex < 0 {
		return nil, fmt.Errorf("%w: table index must be >= 0, got %d", ErrInvalidArgument, tableIndex)
	}

	doc, err := parseDocument(htmlContent)
	if err != nil {
		return nil, err
	}

	tables := doc.Find("table")
	if tableIndex >= tables.Length() {
		return nil, fmt.Errorf("%w: no table at index %d (document has %d)", ErrNotFound, tableIndex, tables.Length())
	}

	return gridOf(tables.Eq(tableIndex)), nil
}

// ListTables summarises every table of the document in document order.
func ListTables(htmlContent string) ([]TableSummary, error) {
	doc, err := parseDocument(htmlContent)
	if err != nil {
		return nil, err
	}

	summaries := make([]TableSummary, 0)
	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		grid := gridOf(table)
		summary := TableSummary{
			Index:   i,
			Rows:    grid.Rows(),
			Columns: grid.Columns(),
		}
		if caption := table.ChildrenFiltered("caption").First(); caption.Length() > 0 {
			summary.Caption = visibleText(caption.Get(0))
		}
		summaries = append(summaries, summary)
	})
	return summaries, nil
}

func parseDocument(htmlContent string) (*goquery.Document, error) {
	if strings.TrimSpace(htmlContent) == "" {
		return nil, fmt.Errorf("%w: document is empty", ErrParse)
	}
	// The HTML5 parser accepts any byte sequence, so plain text would come
	// back as a valid document with zero tables.
	if !strings.Contains(htmlContent, "<") {
		return nil, fmt.Errorf("%w: document contains no markup", ErrParse)
	}

	root, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

func gridOf(table *goquery.Selection) Grid {
	grid := make(Grid, 0)
	table.Find("tr").
		FilterFunction(func(_ int, row *goquery.Selection) bool {
			return row.Closest("table").IsSelection(table)
		}).
		Each(func(_ int, row *goquery.Selection) {
			cells := make([]string, 0)
			row.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, visibleText(cell.Get(0)))
			})
			grid = append(grid, cells)
		})
	return grid
}

// visibleText flattens the text below n. Script and style content is dropped
// and <br> becomes a newline. The result is trimmed at both ends only.
func visibleText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Template:
				return
			case atom.Br:
				b.WriteByte('\n')
				return
			}
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return strings.TrimSpace(b.String())
}
