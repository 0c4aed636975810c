// Package urlparam reads and writes the query parameters that page
// navigation carries.
//
// Params wraps url.Values with typed accessors. Structs map to flat
// parameters through `url` field tags, slices are comma-joined, and any
// value can be packed into one parameter as base64 JSON:
//
//	type Filters struct {
//	    Category string   `url:"cat"`
//	    Tags     []string `url:"tags"`
//	    Page     int      `url:"page"`
//	}
//
//	p, _ := urlparam.Parse("/todos?cat=home&tags=a,b&page=2")
//	var f Filters
//	err := p.Decode(&f)
package urlparam

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Encoding specifies how a value is serialized into one parameter.
type Encoding int

const (
	// EncodingFlat writes scalars as text and structs as one parameter per
	// field: ?cat=tech&sort=asc
	EncodingFlat Encoding = iota

	// EncodingJSON writes base64-encoded JSON: ?filter=eyJjYXQiOiJ0ZWNoIn0
	EncodingJSON

	// EncodingComma writes slices comma-separated: ?tags=go,web,api
	EncodingComma
)

// Params is a set of query parameters.
type Params struct {
	values url.Values
}

// New returns empty Params.
func New() Params {
	return Params{values: url.Values{}}
}

// Parse reads the query of rawURL. rawURL may be a full URL, a path with a
// query, or a bare query with or without the leading "?".
func Parse(rawURL string) (Params, error) {
	query := rawURL
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		query = rawURL[i+1:]
	} else if strings.Contains(rawURL, "/") || !strings.Contains(rawURL, "=") {
		query = ""
	}
	if i := strings.IndexByte(query, '#'); i >= 0 {
		query = query[:i]
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return Params{}, err
	}
	return Params{values: values}, nil
}

// FromMap builds Params from plain values. Slices are comma-joined.
func FromMap(m map[string]any) Params {
	p := New()
	for k, v := range m {
		p.Set(k, v)
	}
	return p
}

func (p *Params) init() {
	if p.values == nil {
		p.values = url.Values{}
	}
}

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Get returns the first value of key, or "".
func (p Params) Get(key string) string {
	return p.values.Get(key)
}

// Int returns key parsed as an int, or def when missing or malformed.
func (p Params) Int(key string, def int) int {
	v, err := strconv.Atoi(p.Get(key))
	if err != nil {
		return def
	}
	return v
}

// Bool returns key parsed as a bool. A present key with an empty value
// (?draft) is true.
func (p Params) Bool(key string) bool {
	if !p.Has(key) {
		return false
	}
	v := p.Get(key)
	if v == "" {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}

// Strings returns every value of key, splitting comma lists.
func (p Params) Strings(key string) []string {
	var out []string
	for _, v := range p.values[key] {
		if v == "" {
			continue
		}
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}

// Set replaces key with v formatted for a URL.
func (p *Params) Set(key string, v any) {
	p.init()
	p.values.Set(key, format(v))
}

// Del removes key.
func (p *Params) Del(key string) {
	p.values.Del(key)
}

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of parameter names.
func (p Params) Len() int { return len(p.values) }

// Encode returns the query string, sorted by key, without the leading "?".
func (p Params) Encode() string {
	return p.values.Encode()
}

// Map returns the first value of each key.
func (p Params) Map() map[string]any {
	m := make(map[string]any, len(p.values))
	for k := range p.values {
		m[k] = p.Get(k)
	}
	return m
}

// With returns rawURL with params merged into its query. Keys in params
// replace existing ones.
func With(rawURL string, params Params) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, vs := range params.values {
		q[k] = append([]string(nil), vs...)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func format(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		return strings.Join(val, ",")
	case fmt.Stringer:
		return val.String()
	}
	return formatValue(reflectValue(v))
}
