package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/tablekit/internal/store"
)

func mapGetter(m map[string]string) getter {
	return func(name string) string { return m[name] }
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]string
		want    store.Query
		wantErr bool
	}{
		{"defaults", nil, store.Query{Page: 1, PageSize: 10}, false},
		{"all fields", map[string]string{
			"currentPage": "3", "pageSize": "20", "sort": " name ", "order": "DESC", "q": " acme ",
		}, store.Query{Page: 3, PageSize: 20, Sort: "name", Desc: true, Search: "acme"}, false},
		{"ascending", map[string]string{"order": "ascending"}, store.Query{Page: 1, PageSize: 10}, false},
		{"capped size", map[string]string{"pageSize": "900"}, store.Query{Page: 1, PageSize: 100}, false},
		{"zero page", map[string]string{"currentPage": "0"}, store.Query{}, true},
		{"negative size", map[string]string{"pageSize": "-5"}, store.Query{}, true},
		{"not a number", map[string]string{"currentPage": "two"}, store.Query{}, true},
		{"bad order", map[string]string{"order": "up"}, store.Query{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseQuery(mapGetter(tt.params), 10, 100)
			if tt.wantErr {
				if !errors.Is(err, errBadQuery) {
					t.Fatalf("parseQuery() error = %v, want errBadQuery", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseQuery() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseQuery() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBodyGetter(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"currentPage": 2, "q": "x", "extra": null}`))
	get, err := bodyGetter(req)
	if err != nil {
		t.Fatalf("bodyGetter() error = %v", err)
	}
	if got := get("currentPage"); got != "2" {
		t.Errorf("currentPage = %q, want 2", got)
	}
	if got := get("q"); got != "x" {
		t.Errorf("q = %q, want x", got)
	}
	if got := get("extra"); got != "" {
		t.Errorf("null param = %q, want empty", got)
	}

	empty := httptest.NewRequest(http.MethodPost, "/", nil)
	if _, err := bodyGetter(empty); err != nil {
		t.Errorf("empty body error = %v", err)
	}

	bad := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`[1,2]`))
	if _, err := bodyGetter(bad); !errors.Is(err, errBadQuery) {
		t.Errorf("array body error = %v, want errBadQuery", err)
	}
}

func TestListParam(t *testing.T) {
	get := mapGetter(map[string]string{"columns": "name, ,age,", "empty": ""})
	if diff := cmp.Diff([]string{"name", "age"}, listParam(get, "columns")); diff != "" {
		t.Errorf("listParam mismatch (-want +got):\n%s", diff)
	}
	if got := listParam(get, "empty"); got != nil {
		t.Errorf("listParam(empty) = %v, want nil", got)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
		code string
	}{
		{fmt.Errorf("x: %w", store.ErrUnknownDataset), http.StatusNotFound, "TBL001"},
		{fmt.Errorf("x: %w", store.ErrUnknownField), http.StatusBadRequest, "TBL002"},
		{errBadQuery, http.StatusBadRequest, "TBL002"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "DB006"},
		{ErrTooManyViews, http.StatusServiceUnavailable, "SRV001"},
		{errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "DB004"},
		{errors.New("boom"), http.StatusInternalServerError, "ERR000"},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
		if got := mapError(tt.err).Code; got != tt.code {
			t.Errorf("mapError(%v).Code = %q, want %q", tt.err, got, tt.code)
		}
	}
}
