package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/tablekit/internal/store"
)

// Request parameters shared by the rows endpoint and the table pages.
const (
	ParamCurrentPage = "currentPage"
	ParamPageSize    = "pageSize"
	ParamSort        = "sort"
	ParamOrder       = "order"
	ParamSearch      = "q"
	ParamColumns     = "columns"
	ParamSelected    = "selected"
	// ParamHeight is the client's viewport height in pixels.
	ParamHeight      = "height"
)

const maxBodyBytes = 64 << 10

// getter reads one parameter; "" means unset.
type getter func(name string) string

// queryGetter reads URL query parameters.
func queryGetter(r *http.Request) getter {
	q := r.URL.Query()
	return q.Get
}

// bodyGetter reads the parameters of a JSON object body.
func bodyGetter(r *http.Request) (getter, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	params := map[string]any{}
	if len(bytes.TrimSpace(data)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&params); err != nil {
			return nil, fmt.Errorf("%w: body: %v", errBadQuery, err)
		}
	}
	return func(name string) string {
		v, ok := params[name]
		if !ok || v == nil {
			return ""
		}
		return fmt.Sprint(v)
	}, nil
}

// parseQuery builds a page query. A missing page size uses defSize; a
// larger one than maxSize is capped.
func parseQuery(get getter, defSize, maxSize int) (store.Query, error) {
	page, err := intParam(get, ParamCurrentPage, 1)
	if err != nil {
		return store.Query{}, err
	}
	size, err := intParam(get, ParamPageSize, defSize)
	if err != nil {
		return store.Query{}, err
	}
	if maxSize > 0 && size > maxSize {
		size = maxSize
	}

	q := store.Query{
		Page:     page,
		PageSize: size,
		Sort:     get(ParamSort),
		Search:   get(ParamSearch),
	}
	switch strings.ToLower(strings.TrimSpace(get(ParamOrder))) {
	case "", "asc", "ascending":
	case "desc", "descending":
		q.Desc = true
	default:
		return store.Query{}, fmt.Errorf("%w: %s must be asc or desc", errBadQuery, ParamOrder)
	}
	return q.Normalize(), nil
}

func intParam(get getter, name string, def int) (int, error) {
	raw := strings.TrimSpace(get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", errBadQuery, name, raw)
	}
	return n, nil
}

// listParam splits a comma-separated parameter, dropping blanks.
func listParam(get getter, name string) []string {
	raw := get(name)
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
