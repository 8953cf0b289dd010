// Package jsonview provides an immutable, typed accessor facade over a
// decoded JSON object, used where a response's shape isn't known ahead
// of unmarshalling into a concrete struct (the directory resource,
// before its resource map is extracted; a challenge object, before its
// "type" field selects a concrete variant).
//
// jsonview is deliberately thin: the JSON codec itself is
// encoding/json, named by the spec as external plumbing. This package
// just adds panic-free, well-typed field access on top of the
// map[string]interface{} encoding/json already produces.
package jsonview

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// View wraps a decoded JSON value. The zero View is an empty object.
type View struct {
	v interface{}
}

// Parse decodes data as JSON and returns a View over the result.
func Parse(data []byte) (View, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return View{}, fmt.Errorf("jsonview: %w", err)
	}
	return View{v: v}, nil
}

func (v View) object() (map[string]interface{}, bool) {
	m, ok := v.v.(map[string]interface{})
	return m, ok
}

func (v View) field(key string) (interface{}, bool) {
	m, ok := v.object()
	if !ok {
		return nil, false
	}
	x, ok := m[key]
	return x, ok
}

// String returns the string value of key, or ("", false) if absent or
// not a string.
func (v View) String(key string) (string, bool) {
	x, ok := v.field(key)
	if !ok {
		return "", false
	}
	s, ok := x.(string)
	return s, ok
}

// Bool returns the boolean value of key, or (false, false) if absent or
// not a boolean.
func (v View) Bool(key string) (bool, bool) {
	x, ok := v.field(key)
	if !ok {
		return false, false
	}
	b, ok := x.(bool)
	return b, ok
}

// URL returns the string value of key if it parses as an absolute
// http(s) URL, or ("", false) otherwise.
func (v View) URL(key string) (string, bool) {
	s, ok := v.String(key)
	if !ok || s == "" {
		return "", false
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return "", false
	}
	return s, true
}

// Instant returns the value of key parsed as an RFC 3339 timestamp.
func (v View) Instant(key string) (time.Time, bool) {
	s, ok := v.String(key)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Object returns the value of key as a nested View, if it is a JSON
// object.
func (v View) Object(key string) (View, bool) {
	x, ok := v.field(key)
	if !ok {
		return View{}, false
	}
	if _, ok := x.(map[string]interface{}); !ok {
		return View{}, false
	}
	return View{v: x}, true
}

// Array returns the value of key as a slice of Views, if it is a JSON
// array.
func (v View) Array(key string) ([]View, bool) {
	x, ok := v.field(key)
	if !ok {
		return nil, false
	}
	a, ok := x.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]View, len(a))
	for i, e := range a {
		out[i] = View{v: e}
	}
	return out, true
}

// Str returns the View's own wrapped value as a string, if it directly
// wraps one (as an element of an array returned by Array does, rather
// than a field of an object).
func (v View) Str() (string, bool) {
	s, ok := v.v.(string)
	return s, ok
}

// Has reports whether key is present, regardless of its value's type.
func (v View) Has(key string) bool {
	_, ok := v.field(key)
	return ok
}

// Raw returns the decoded value as a map, or nil if the View does not
// wrap a JSON object.
func (v View) Raw() map[string]interface{} {
	m, _ := v.object()
	return m
}
