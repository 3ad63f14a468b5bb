// Package render turns table views into HTML and terminal output.
package render

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/tablekit/internal/column"
	"github.com/JonMunkholm/tablekit/internal/remote"
	"github.com/JonMunkholm/tablekit/internal/table"
)

// Table renders v as an HTML fragment, section by section in layout order.
func Table(v table.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.printf(`<div class="tablekit" data-name="%s" data-loading="%t"`, esc(v.Name), v.Loading)
		if v.MaxHeight > 0 {
			h.printf(` style="--tablekit-max-height:%dpx"`, v.MaxHeight)
		}
		h.raw(">")
		for _, section := range v.Layout {
			switch section {
			case table.SectionTool:
				writeFilter(h, v.Filter)
			case table.SectionTable:
				writeTable(h, v)
			case table.SectionExtra:
				h.raw(`<div class="tablekit__extra"></div>`)
			case table.SectionPagination:
				if v.Pagination.Show {
					writePager(h, v.Pagination)
				}
			}
		}
		h.raw("</div>")
		return h.err
	})
}

// Page wraps body in a minimal HTML document.
func Page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.printf(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>%s</title></head><body>`, esc(title))
		h.printf("<h1>%s</h1>", esc(title))
		if h.err != nil {
			return h.err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		h.raw("</body></html>")
		return h.err
	})
}

// Link is one entry of an index page.
type Link struct {
	Group string
	Label string
	Href  string
}

// Index renders links grouped under their group headings. Links must be
// sorted by group.
func Index(links []Link) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		group := ""
		open := false
		for _, l := range links {
			if !open || l.Group != group {
				if open {
					h.raw("</ul>")
				}
				h.printf("<h2>%s</h2><ul>", esc(l.Group))
				group, open = l.Group, true
			}
			h.printf(`<li><a href="%s">%s</a></li>`, esc(string(templ.URL(l.Href))), esc(l.Label))
		}
		if open {
			h.raw("</ul>")
		}
		return h.err
	})
}

func writeFilter(h *html, f table.FilterView) {
	if !f.Enabled {
		return
	}
	h.printf(`<div class="tablekit__filter" data-open="%t" style="width:%dpx">`, f.Open, f.Width)
	h.raw(`<div class="tablekit__filter-grid" style="display:grid;grid-template-columns:repeat(24,1fr)">`)
	checked := make(map[string]bool, len(f.Checked))
	for _, p := range f.Checked {
		checked[p] = true
	}
	for _, c := range f.Candidates {
		h.printf(`<label style="grid-column:span %d"><input type="checkbox" name="column" value="%s"`,
			f.CellSpan, esc(c.Prop))
		if checked[c.Prop] {
			h.raw(" checked")
		}
		h.printf(">%s</label>", esc(c.Label))
	}
	h.raw("</div>")
	if len(f.Buttons) > 0 {
		h.raw(`<div class="tablekit__filter-buttons">`)
		for _, b := range f.Buttons {
			h.printf(`<button type="button" data-filter="%s">%s</button>`, esc(string(b.Button)), esc(b.Label))
		}
		h.raw("</div>")
	}
	h.raw("</div>")
}

func writeTable(h *html, v table.View) {
	depth := treeDepth(v.Columns)
	h.raw("<table><thead>")
	for level := 0; level < depth; level++ {
		h.raw("<tr>")
		writeHeaderLevel(h, v.Columns, 0, level, depth)
		if level == 0 {
			if v.Actions != nil {
				h.printf(`<th class="%s" rowspan="%d" style="width:%s">%s</th>`,
					column.ActionColumnClass, depth, esc(v.Actions.Width), esc(v.Actions.Label))
			}
			if v.Filter.Enabled {
				h.printf(`<th class="%s" rowspan="%d"><button type="button" data-filter="toggle">&#8942;</button></th>`,
					column.FilterColumnClass, depth)
			}
		}
		h.raw("</tr>")
	}
	h.raw("</thead><tbody>")

	selected := make(map[string]bool, len(v.Selection))
	for _, k := range v.Selection {
		selected[k] = true
	}
	span := -1
	if v.Filter.Enabled {
		span = v.ColspanFix
	}
	for i, row := range v.Rows {
		key := ""
		if i < len(v.RowKeys) {
			key = v.RowKeys[i]
		}
		h.printf(`<tr data-key="%s">`, esc(key))
		for j, leaf := range v.Leaves {
			h.raw("<td")
			if j == span {
				h.raw(` colspan="2"`)
			}
			h.raw(">")
			switch leaf.Type {
			case column.TypeSelection:
				h.printf(`<input type="checkbox" name="row" value="%s"`, esc(key))
				if selected[key] {
					h.raw(" checked")
				}
				h.raw(">")
			case column.TypeIndex:
				h.raw(strconv.Itoa(v.Offset + i + 1))
			case column.TypeExpand:
				h.raw(`<button type="button" data-expand>&#9656;</button>`)
			default:
				h.raw(esc(Cell(row, leaf.Prop)))
			}
			h.raw("</td>")
		}
		if v.Actions != nil {
			h.raw("<td")
			if len(v.Leaves) == span {
				h.raw(` colspan="2"`)
			}
			h.printf(` class="%s">`, column.ActionColumnClass)
			for b, btn := range v.Actions.Buttons {
				typ := btn.Type
				if typ == "" {
					typ = "text"
				}
				h.printf(`<button type="button" class="tablekit__action tablekit__action--%s" data-action="%d">%s</button>`,
					esc(typ), b, esc(btn.Label))
			}
			h.raw("</td>")
		}
		h.raw("</tr>")
	}
	h.raw("</tbody></table>")
}

// writeHeaderLevel writes the header cells sitting at level. cur is the
// level of cols.
func writeHeaderLevel(h *html, cols []column.Column, cur, level, depth int) {
	for _, c := range cols {
		if cur < level {
			writeHeaderLevel(h, c.Children, cur+1, level, depth)
			continue
		}
		var classes []string
		h.raw("<th")
		if c.IsLeaf() {
			if rs := depth - cur; rs > 1 {
				h.printf(` rowspan="%d"`, rs)
			}
		} else {
			h.printf(` colspan="%d"`, column.NewTree(c.Children).LeafCount())
			classes = append(classes, column.ChildColumnClass)
		}
		if c.Type.IsStructural() {
			classes = append(classes, column.TypeColumnClass)
		}
		if len(classes) > 0 {
			h.printf(` class="%s"`, strings.Join(classes, " "))
		}
		h.raw(">")
		switch c.Type {
		case column.TypeSelection:
			h.raw(`<input type="checkbox" name="all">`)
		case column.TypeIndex:
			h.raw("#")
		default:
			h.raw(esc(c.Label))
		}
		h.raw("</th>")
	}
}

func writePager(h *html, p table.PaginationView) {
	st := p.State
	h.raw(`<div class="tablekit__pagination">`)
	for _, part := range strings.Split(p.Layout, ",") {
		switch strings.TrimSpace(part) {
		case "->":
			h.raw(`<span class="tablekit__spacer"></span>`)
		case "total":
			h.printf(`<span class="tablekit__total">Total %d</span>`, st.Total)
		case "sizes":
			h.raw(`<select name="pageSize">`)
			for _, n := range p.PageSizes {
				h.printf(`<option value="%d"`, n)
				if n == st.PageSize {
					h.raw(" selected")
				}
				h.printf(">%d / page</option>", n)
			}
			h.raw("</select>")
		case "prev":
			h.printf(`<button type="button" data-page="%d"%s>&lsaquo;</button>`, st.CurrentPage-1, disabled(st.CurrentPage <= 1))
		case "next":
			h.printf(`<button type="button" data-page="%d"%s>&rsaquo;</button>`, st.CurrentPage+1, disabled(st.CurrentPage >= p.Pages))
		case "pager":
			h.raw(`<ul class="tablekit__pager">`)
			for _, n := range PagerItems(st.CurrentPage, p.Pages) {
				switch {
				case n == 0:
					h.raw("<li>&hellip;</li>")
				case n == st.CurrentPage:
					h.printf(`<li class="is-active">%d</li>`, n)
				default:
					h.printf(`<li><button type="button" data-page="%d">%d</button></li>`, n, n)
				}
			}
			h.raw("</ul>")
		case "jumper":
			h.printf(`<input type="number" name="currentPage" min="1" max="%d" value="%d">`, p.Pages, st.CurrentPage)
		}
	}
	h.raw("</div>")
}

// PagerItems returns the page numbers to show around current, with 0
// marking a gap. The first and last page are always present.
func PagerItems(current, pages int) []int {
	if pages <= 7 {
		out := make([]int, pages)
		for i := range out {
			out[i] = i + 1
		}
		return out
	}
	from, to := max(2, current-2), min(pages-1, current+2)
	out := []int{1}
	if from > 2 {
		out = append(out, 0)
	}
	for n := from; n <= to; n++ {
		out = append(out, n)
	}
	if to < pages-1 {
		out = append(out, 0)
	}
	return append(out, pages)
}

// Cell formats the value at prop. Dotted props read nested objects.
func Cell(row column.Row, prop string) string {
	v, ok := row[prop]
	if !ok && strings.Contains(prop, ".") {
		v, ok = remote.Lookup(row, prop)
	}
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func treeDepth(cols []column.Column) int {
	d := 0
	for _, c := range cols {
		d = max(d, 1+treeDepth(c.Children))
	}
	return d
}

func disabled(b bool) string {
	if b {
		return " disabled"
	}
	return ""
}

func esc(s string) string {
	return templ.EscapeString(s)
}

// html accumulates the first write error.
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *html) printf(format string, args ...any) {
	if h.err != nil {
		return
	}
	_, h.err = fmt.Fprintf(h.w, format, args...)
}
