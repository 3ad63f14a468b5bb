package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/JonMunkholm/tablekit/internal/column"
)

// ErrStatus is returned by HTTPFetcher for non-2xx responses.
var ErrStatus = errors.New("unexpected response status")

// Params are request parameters.
type Params map[string]any

// Clone returns a shallow copy of p. A nil receiver yields an empty map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// merge copies every entry of each layer into one map, later layers winning.
func merge(layers ...Params) Params {
	out := make(Params)
	for _, l := range layers {
		for k, v := range l {
			out[k] = v
		}
	}
	return out
}

// Intent tells a fetcher why a request was issued.
type Intent string

const (
	IntentInit       Intent = "init"
	IntentSize       Intent = "size"
	IntentPage       Intent = "page"
	IntentReload     Intent = "reload"
	IntentReset      Intent = "reset"
	IntentRequest    Intent = "request"
	IntentCorrection Intent = "correction"
)

// Response is either a bare row list or an object that is mapped through a
// FieldMap.
type Response struct {
	rows   []column.Row
	object map[string]any
	list   bool
}

// RowList wraps a bare list of rows. The table total is left as it is.
func RowList(rows []column.Row) Response {
	return Response{rows: rows, list: true}
}

// Object wraps a response object.
func Object(m map[string]any) Response {
	return Response{object: m}
}

// IsList reports whether r is a bare row list.
func (r Response) IsList() bool { return r.list }

// Rows returns the rows of a RowList response.
func (r Response) Rows() []column.Row { return r.rows }

// Map returns the object of an Object response.
func (r Response) Map() map[string]any { return r.object }

// Decode parses a JSON body into a Response. A top-level array becomes a
// RowList, an object becomes an Object. Numbers are kept as json.Number.
func Decode(body []byte) (Response, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}

	switch t := v.(type) {
	case map[string]any:
		return Object(t), nil
	case []any:
		rows, err := toRows(t)
		if err != nil {
			return Response{}, err
		}
		return RowList(rows), nil
	default:
		return Response{}, fmt.Errorf("decode response: unsupported top-level %T", v)
	}
}

// Fetcher loads one page of rows.
type Fetcher interface {
	Fetch(ctx context.Context, params Params, intent Intent) (Response, error)
}

// FetchFunc adapts a function to Fetcher.
type FetchFunc func(ctx context.Context, params Params, intent Intent) (Response, error)

// Fetch calls f.
func (f FetchFunc) Fetch(ctx context.Context, params Params, intent Intent) (Response, error) {
	return f(ctx, params, intent)
}

// HTTPFetcher is a request descriptor. GET requests carry the parameters in
// the query string; every other method sends them as a JSON body merged over
// Body.
type HTTPFetcher struct {
	Method string
	URL    string

	// Params are merged under the request parameters of a GET.
	Params Params
	// Body is merged under the request parameters of a non-GET.
	Body Params

	Header http.Header
	Client *http.Client
}

// Fetch performs the request and decodes the body.
func (f *HTTPFetcher) Fetch(ctx context.Context, params Params, intent Intent) (Response, error) {
	method := strings.ToUpper(strings.TrimSpace(f.Method))
	if method == "" {
		method = http.MethodGet
	}

	u, err := url.Parse(f.URL)
	if err != nil {
		return Response{}, fmt.Errorf("parse url: %w", err)
	}

	var body io.Reader
	if method == http.MethodGet {
		q := u.Query()
		for k, v := range merge(f.Params, params) {
			q.Set(k, fmt.Sprint(v))
		}
		u.RawQuery = q.Encode()
	} else {
		payload, err := json.Marshal(merge(f.Body, params))
		if err != nil {
			return Response{}, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range f.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Table-Intent", string(intent))

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%s %s: %w", method, u.Redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, fmt.Errorf("%s %s: %w: %d", method, u.Redacted(), ErrStatus, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read body: %w", err)
	}
	return Decode(data)
}

func toRows(items []any) ([]column.Row, error) {
	rows := make([]column.Row, 0, len(items))
	for i, it := range items {
		switch r := it.(type) {
		case map[string]any:
			rows = append(rows, column.Row(r))
		case column.Row:
			rows = append(rows, r)
		default:
			return nil, fmt.Errorf("row %d: expected object, got %T", i, it)
		}
	}
	return rows, nil
}
