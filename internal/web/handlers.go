package web

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/tablekit/internal/column"
	"github.com/JonMunkholm/tablekit/internal/dataset"
	"github.com/JonMunkholm/tablekit/internal/filter"
	"github.com/JonMunkholm/tablekit/internal/logging"
	"github.com/JonMunkholm/tablekit/internal/remote"
	"github.com/JonMunkholm/tablekit/internal/render"
	"github.com/JonMunkholm/tablekit/internal/selection"
	"github.com/JonMunkholm/tablekit/internal/store"
	"github.com/JonMunkholm/tablekit/internal/table"
)

// TableInfo describes a dataset to API clients.
type TableInfo struct {
	Key     string              `json:"key"`
	Group   string              `json:"group"`
	Label   string              `json:"label"`
	RowKey  string              `json:"rowKey"`
	Columns column.ConfigSource `json:"columns"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]string{"status": "ok"})
}

// handleIndex lists the datasets as links to their table pages.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var links []render.Link
	for _, d := range dataset.All() {
		links = append(links, render.Link{Group: d.Group, Label: d.Label, Href: "/tables/" + d.Key})
	}
	s.renderHTML(w, r, render.Page("Tables", render.Index(links)))
}

// handleListTables returns every dataset with its column declarations.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	all := dataset.All()
	out := make([]TableInfo, 0, len(all))
	for _, d := range all {
		out = append(out, TableInfo{
			Key:     d.Key,
			Group:   d.Group,
			Label:   d.Label,
			RowKey:  d.KeyProp(),
			Columns: d.Columns(),
		})
	}
	writeJSON(w, r, out)
}

// handleRows serves one page of rows as {data, total, pageSize, currentPage}.
// GET reads the query string; POST reads a JSON object body.
func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	get := queryGetter(r)
	if r.Method == http.MethodPost {
		var err error
		if get, err = bodyGetter(r); err != nil {
			respondError(w, r, err, statusFor(err))
			return
		}
	}

	q, err := parseQuery(get, s.cfg.Table.DefaultPageSize, s.cfg.Table.MaxPageSize)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	page, err := s.rows.Page(r.Context(), key, q)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	logging.WithFields(r.Context(), "dataset", key).Debug("rows page",
		"intent", r.Header.Get("X-Table-Intent"),
		"current_page", page.CurrentPage,
		"page_size", page.PageSize,
		"rows", len(page.Rows),
		"total", page.Total,
	)
	s.metrics.RecordRows(key, len(page.Rows))
	writeJSON(w, r, page)
}

// handleTableView renders a dataset page server side. The table runs in
// remote mode against the row source, so an out-of-range page is corrected
// the same way a browser table would correct it.
func (s *Server) handleTableView(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	d, ok := dataset.Get(key)
	if !ok {
		respondError(w, r, fmt.Errorf("%w: %s", store.ErrUnknownDataset, key), http.StatusNotFound)
		return
	}

	get := queryGetter(r)
	q, err := parseQuery(get, s.cfg.Table.DefaultPageSize, s.cfg.Table.MaxPageSize)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	if err := s.views.acquire(r.Context()); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	defer s.views.release()

	fetchErr := make(chan error, 1)
	tbl, err := table.NewRemote(s.tableOptions(r.Context(), d, get, q), remote.Options{
		Fetcher:        s.storeFetcher(key),
		Params:         instanceParams(get),
		CoalesceWindow: s.cfg.Table.CoalesceWindow,
		AutoInit:       true,
		Observer:       s.metrics.Observer(),
		OnError: func(err error) {
			select {
			case fetchErr <- err:
			default:
			}
		},
	})
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	defer tbl.Close()

	settle := func() error {
		if err := tbl.Coordinator().Settle(r.Context()); err != nil {
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
		respondError(w, r, err, statusFor(err))
		return
	}
	// The page count is unknown until the first response, so a later page
	// is requested once the total is in. Pages past the end clamp to the
	// last page.
	if q.Page > 1 {
		tbl.SetCurrentPage(q.Page)
		if err := settle(); err != nil {
			respondError(w, r, err, statusFor(err))
			return
		}
	}

	if h, err := intParam(get, ParamHeight, 0); err == nil && h > 0 {
		tbl.Measure(h, 0)
	}

	s.renderHTML(w, r, render.Page(d.Label, render.Table(tbl.View())))
}

func (s *Server) tableOptions(ctx context.Context, d dataset.Dataset, get getter, q store.Query) table.Options {
	return table.Options{
		Name:      d.Key,
		Columns:   d.Columns(),
		RowKey:    selection.PathKey(d.KeyProp()),
		Selection: listParam(get, ParamSelected),
		PageSize:  q.PageSize,
		PageSizes: withPageSize(s.cfg.Table.PageSizes, q.PageSize),

		AutoHeight:     get(ParamHeight) != "",
		MinHeight:      s.cfg.Table.MinHeight,
		FixHeight:      s.cfg.Table.FixHeight,
		ResizeDebounce: s.cfg.Table.ResizeDebounce,

		Filter: filter.Options{
			Enabled:  true,
			Selected: listParam(get, ParamColumns),
			RowNum:   s.cfg.Table.FilterRowNum,
		},
		Logger: logging.FromContext(ctx),
	}
}

// withPageSize adds size to sizes when missing, so the page honours any size
// the rows endpoint accepts.
func withPageSize(sizes []int, size int) []int {
	if size <= 0 || slices.Contains(sizes, size) {
		return sizes
	}
	out := append(slices.Clone(sizes), size)
	slices.Sort(out)
	return out
}

// instanceParams forwards the request's sort and search to every fetch.
func instanceParams(get getter) remote.Params {
	p := remote.Params{}
	for _, name := range []string{ParamSort, ParamOrder, ParamSearch} {
		if v := get(name); v != "" {
			p[name] = v
		}
	}
	return p
}

// storeFetcher adapts the row source to a remote fetcher, in process.
func (s *Server) storeFetcher(key string) remote.Fetcher {
	return remote.FetchFunc(func(ctx context.Context, params remote.Params, _ remote.Intent) (remote.Response, error) {
		get := func(name string) string {
			if v, ok := params[name]; ok && v != nil {
				return fmt.Sprint(v)
			}
			return ""
		}
		q, err := parseQuery(get, s.cfg.Table.DefaultPageSize, s.cfg.Table.MaxPageSize)
		if err != nil {
			return remote.Response{}, err
		}
		page, err := s.rows.Page(ctx, key, q)
		if err != nil {
			return remote.Response{}, err
		}
		return remote.Object(map[string]any{
			"data":        page.Rows,
			"total":       page.Total,
			"pageSize":    page.PageSize,
			"currentPage": page.CurrentPage,
		}), nil
	})
}

// renderHTML renders c fully before writing, so a failed render can still
// become an error response.
func (s *Server) renderHTML(w http.ResponseWriter, r *http.Request, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		respondError(w, r, fmt.Errorf("render: %w", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
