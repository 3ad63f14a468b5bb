package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHTTPFetcher_GetUsesQuery(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":1}],"total":"12"}`))
	}))
	defer srv.Close()

	f := &HTTPFetcher{URL: srv.URL + "/rows?fixed=x", Params: Params{"scope": "all", "pageSize": 1}}
	resp, err := f.Fetch(context.Background(), Params{"pageSize": 5, "currentPage": 2}, IntentPage)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	want := map[string]string{"fixed": "x", "scope": "all", "pageSize": "5", "currentPage": "2"}
	if diff := cmp.Diff(want, gotQuery); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}
	rows, total, ok := DefaultFieldMap.extract(resp)
	if len(rows) != 1 || total != 12 || !ok {
		t.Errorf("extract() = %v, %d, %v", rows, total, ok)
	}
}

func TestHTTPFetcher_PostUsesJSONBody(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`[{"id":1},{"id":2}]`))
	}))
	defer srv.Close()

	f := &HTTPFetcher{Method: "post", URL: srv.URL, Body: Params{"owner": "ops"}}
	resp, err := f.Fetch(context.Background(), Params{"pageSize": 10}, IntentReload)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !resp.IsList() || len(resp.Rows()) != 2 {
		t.Errorf("response = %+v, want a two row list", resp)
	}
	if body["owner"] != "ops" || body["pageSize"] != float64(10) {
		t.Errorf("body = %v", body)
	}
}

func TestHTTPFetcher_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	f := &HTTPFetcher{URL: srv.URL}
	_, err := f.Fetch(context.Background(), nil, IntentInit)
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("Fetch() error = %v, want ErrStatus", err)
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("error %q should carry the status code", err)
	}
}

func TestDecode(t *testing.T) {
	resp, err := Decode([]byte(`{"data":[],"total":3}`))
	if err != nil || resp.IsList() {
		t.Fatalf("Decode(object) = %+v, %v", resp, err)
	}
	if _, err := Decode([]byte(`[1, 2]`)); err == nil {
		t.Error("Decode of a scalar list should fail")
	}
	if _, err := Decode([]byte(`"text"`)); err == nil {
		t.Error("Decode of a string should fail")
	}
}

func TestFieldMap_Validate(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	if got := (FieldMap{}).Validate(logger); got != DefaultFieldMap {
		t.Errorf("empty map = %+v, want defaults", got)
	}
	if buf.Len() != 0 {
		t.Errorf("empty map should not warn: %s", buf.String())
	}

	got := FieldMap{Data: "rows"}.Validate(logger)
	if got != DefaultFieldMap {
		t.Errorf("map without total = %+v, want defaults", got)
	}
	if !strings.Contains(buf.String(), "data and total") {
		t.Errorf("expected diagnostic, got %q", buf.String())
	}

	got = FieldMap{Data: "rows", Total: "meta.count"}.Validate(logger)
	want := FieldMap{Data: "rows", Total: "meta.count", PageSize: "pageSize", CurrentPage: "currentPage"}
	if got != want {
		t.Errorf("Validate() = %+v, want %+v", got, want)
	}
}

func TestToInt(t *testing.T) {
	tests := []struct {
		in   any
		want int
		ok   bool
	}{
		{3, 3, true},
		{int64(4), 4, true},
		{5.9, 5, true},
		{json.Number("6"), 6, true},
		{" 7 ", 7, true},
		{"8.0", 8, true},
		{"x", 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := toInt(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("toInt(%#v) = %d, %v, want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLookup(t *testing.T) {
	m := map[string]any{"a": map[string]any{"b": map[string]any{"c": 1}}}
	if v, ok := Lookup(m, "a.b.c"); !ok || v != 1 {
		t.Errorf("Lookup(a.b.c) = %v, %v", v, ok)
	}
	if _, ok := Lookup(m, "a.x.c"); ok {
		t.Error("Lookup(a.x.c) should miss")
	}
	if _, ok := Lookup(m, "a.b.c.d"); ok {
		t.Error("Lookup through a scalar should miss")
	}
}
