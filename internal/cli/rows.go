package cli

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tablekit/internal/filter"
	"github.com/JonMunkholm/tablekit/internal/remote"
	"github.com/JonMunkholm/tablekit/internal/render"
	"github.com/JonMunkholm/tablekit/internal/selection"
	"github.com/JonMunkholm/tablekit/internal/table"
)

type rowsFlags struct {
	page     int
	pageSize int
	search   string
	sort     string
	order    string
	columns  []string
	selected []string
	post     bool
	maxCell  int
}

func newRowsCommand(g *globals) *cobra.Command {
	f := &rowsFlags{}
	cmd := &cobra.Command{
		Use:   "rows <dataset>",
		Short: "Print one page of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRows(cmd, g, f, args[0])
		},
	}
	fl := cmd.Flags()
	fl.IntVarP(&f.page, "page", "p", 1, "page number")
	fl.IntVarP(&f.pageSize, "page-size", "n", 10, "rows per page")
	fl.StringVarP(&f.search, "search", "q", "", "search term")
	fl.StringVar(&f.sort, "sort", "", "sort field")
	fl.StringVar(&f.order, "order", "", "sort order: asc or desc")
	fl.StringSliceVar(&f.columns, "columns", nil, "columns to show (default all)")
	fl.StringSliceVar(&f.selected, "select", nil, "row keys to mark selected")
	fl.BoolVar(&f.post, "post", false, "send the query as a JSON POST body")
	fl.IntVar(&f.maxCell, "max-cell", 0, "truncate cells longer than this")
	return cmd
}

func runRows(cmd *cobra.Command, g *globals, f *rowsFlags, key string) error {
	if f.page < 1 || f.pageSize < 1 {
		return fmt.Errorf("--page and --page-size must be positive")
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
	defer cancel()
	logger := g.logger(cmd)

	tables, err := fetchTables(ctx, g)
	if err != nil {
		return err
	}
	var info *tableInfo
	for i := range tables {
		if tables[i].Key == key {
			info = &tables[i]
			break
		}
	}
	if info == nil {
		return fmt.Errorf("unknown dataset %q", key)
	}

	method := http.MethodGet
	if f.post {
		method = http.MethodPost
	}
	params := remote.Params{}
	for name, v := range map[string]string{"q": f.search, "sort": f.sort, "order": f.order} {
		if v != "" {
			params[name] = v
		}
	}

	fetchErr := make(chan error, 1)
	tbl, err := table.NewRemote(table.Options{
		Name:      info.Key,
		Columns:   info.Columns,
		RowKey:    selection.PathKey(info.RowKey),
		Selection: f.selected,
		PageSize:  f.pageSize,
		PageSizes: []int{f.pageSize},
		Filter:    filter.Options{Enabled: len(f.columns) > 0, Selected: f.columns, RowNum: 4},
		Logger:    logger,
	}, remote.Options{
		Fetcher: &remote.HTTPFetcher{
			Method: method,
			URL:    g.endpoint("/api/tables/" + url.PathEscape(key) + "/rows"),
			Header: g.header(),
		},
		Params:   params,
		AutoInit: true,
		OnError: func(err error) {
			select {
			case fetchErr <- err:
			default:
			}
		},
	})
	if err != nil {
		return err
	}
	defer tbl.Close()

	settle := func() error {
		if err := tbl.Coordinator().Settle(ctx); err != nil {
			return err
		}
		select {
		case err := <-fetchErr:
			return err
		default:
			return nil
		}
	}
	if err := settle(); err != nil {
		return err
	}
	if f.page > 1 {
		tbl.SetCurrentPage(f.page)
		if err := settle(); err != nil {
			return err
		}
	}

	return render.Terminal{W: cmd.OutOrStdout(), MaxCell: f.maxCell}.Render(tbl.View())
}
