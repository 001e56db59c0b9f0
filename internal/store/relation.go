package store

import (
	"bytes"
	"encoding/json"
)

// One is a zero-or-one nested relation. Depending on join cardinality PostgreSQL
// hands back a lone object or a single-element array; both decode here, so callers
// never normalise again.
type One[T any] struct {
	Value T
	Valid bool
}

// Some wraps a present value.
func Some[T any](v T) One[T] {
	return One[T]{Value: v, Valid: true}
}

func (o *One[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = One[T]{}
		return nil
	}
	if data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		if len(items) == 0 {
			*o = One[T]{}
			return nil
		}
		*o = Some(items[0])
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

func (o One[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Ptr returns nil when the relation is absent.
func (o One[T]) Ptr() *T {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// Many is a zero-or-many nested relation; a lone object decodes as one element.
type Many[T any] []T

func (m *Many[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = nil
		return nil
	}
	if data[0] != '[' {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*m = Many[T]{v}
		return nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*m = items
	return nil
}

// First behaves like One for callers that only want the head of the list.
func (m Many[T]) First() One[T] {
	if len(m) == 0 {
		return One[T]{}
	}
	return Some(m[0])
}
