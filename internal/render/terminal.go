package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/JonMunkholm/tablekit/internal/column"
	"github.com/JonMunkholm/tablekit/internal/table"
)

const maxCellLen = 40

// Terminal renders views as text tables.
type Terminal struct {
	W io.Writer
	// MaxCell truncates longer cell values. Zero uses 40.
	MaxCell int
}

// Render writes the visible leaves of v followed by a pager line when v
// is paginated.
func (t Terminal) Render(v table.View) error {
	tw := tablewriter.NewWriter(t.W)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetRowLine(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)

	selected := make(map[string]bool, len(v.Selection))
	for _, k := range v.Selection {
		selected[k] = true
	}

	header := make([]string, 0, len(v.Leaves))
	for _, leaf := range v.Leaves {
		switch leaf.Type {
		case column.TypeSelection:
			header = append(header, "*")
		case column.TypeIndex:
			header = append(header, "#")
		case column.TypeExpand:
			continue
		default:
			header = append(header, leaf.Label)
		}
	}
	tw.SetHeader(header)

	for i, row := range v.Rows {
		key := ""
		if i < len(v.RowKeys) {
			key = v.RowKeys[i]
		}
		cells := make([]string, 0, len(header))
		for _, leaf := range v.Leaves {
			switch leaf.Type {
			case column.TypeSelection:
				mark := ""
				if selected[key] {
					mark = "*"
				}
				cells = append(cells, mark)
			case column.TypeIndex:
				cells = append(cells, strconv.Itoa(v.Offset+i+1))
			case column.TypeExpand:
			default:
				cells = append(cells, t.truncate(Cell(row, leaf.Prop)))
			}
		}
		tw.Append(cells)
	}
	tw.Render()

	if p := v.Pagination; p.Show {
		_, err := fmt.Fprintf(t.W, "page %d/%d, %d per page, %d total\n",
			p.State.CurrentPage, p.Pages, p.State.PageSize, p.State.Total)
		return err
	}
	return nil
}

func (t Terminal) truncate(s string) string {
	limit := t.MaxCell
	if limit <= 0 {
		limit = maxCellLen
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
