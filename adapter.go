package prefstore

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Adapter converts between a typed preference value and the host store's
// byte representation. Adapters are stateless; the same adapter instance is
// shared by every handle of its type.
type Adapter[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(data []byte) (T, error)
}

var (
	BoolAdapter      Adapter[bool]     = boolAdapter{}
	IntAdapter       Adapter[int]      = intAdapter{}
	Int64Adapter     Adapter[int64]    = int64Adapter{}
	Float64Adapter   Adapter[float64]  = float64Adapter{}
	StringAdapter    Adapter[string]   = stringAdapter{}
	StringSetAdapter Adapter[[]string] = stringSetAdapter{}
)

type boolAdapter struct{}

func (boolAdapter) Encode(v bool) ([]byte, error) {
	return []byte(strconv.FormatBool(v)), nil
}

func (boolAdapter) Decode(data []byte) (bool, error) {
	v, err := strconv.ParseBool(string(data))
	if err != nil {
		return false, fmt.Errorf("%w: %q is not a bool", ErrTypeMismatch, data)
	}
	return v, nil
}

type intAdapter struct{}

func (intAdapter) Encode(v int) ([]byte, error) {
	return []byte(strconv.Itoa(v)), nil
}

func (intAdapter) Decode(data []byte) (int, error) {
	v, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an int", ErrTypeMismatch, data)
	}
	return v, nil
}

type int64Adapter struct{}

func (int64Adapter) Encode(v int64) ([]byte, error) {
	return []byte(strconv.FormatInt(v, 10)), nil
}

func (int64Adapter) Decode(data []byte) (int64, error) {
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an int64", ErrTypeMismatch, data)
	}
	return v, nil
}

type float64Adapter struct{}

func (float64Adapter) Encode(v float64) ([]byte, error) {
	return []byte(strconv.FormatFloat(v, 'g', -1, 64)), nil
}

func (float64Adapter) Decode(data []byte) (float64, error) {
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a float64", ErrTypeMismatch, data)
	}
	return v, nil
}

type stringAdapter struct{}

func (stringAdapter) Encode(v string) ([]byte, error) {
	return []byte(v), nil
}

func (stringAdapter) Decode(data []byte) (string, error) {
	return string(data), nil
}

// stringSetAdapter stores a set as a sorted JSON array of unique strings.
type stringSetAdapter struct{}

func (stringSetAdapter) Encode(v []string) ([]byte, error) {
	set := make([]string, 0, len(v))
	seen := make(map[string]struct{}, len(v))
	for _, s := range v {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		set = append(set, s)
	}
	sort.Strings(set)
	return json.Marshal(set)
}

func (stringSetAdapter) Decode(data []byte) ([]string, error) {
	var v []string
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %q is not a string set", ErrTypeMismatch, data)
	}
	return v, nil
}

// JSON returns an adapter that stores T as its JSON encoding. Use it with
// Object for structured preference payloads.
func JSON[T any]() Adapter[T] {
	return jsonAdapter[T]{}
}

type jsonAdapter[T any] struct{}

func (jsonAdapter[T]) Encode(v T) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonAdapter[T]) Decode(data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
	}
	return v, nil
}
