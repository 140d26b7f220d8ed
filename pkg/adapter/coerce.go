package adapter

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/leapstack-labs/slickdata/pkg/core"
)

// ErrTypeMismatch is returned by a Decoder that cannot accept a value.
// FormatValue treats it as "try the next decoder"; it never reaches callers.
var ErrTypeMismatch = errors.New("type mismatch")

// Decoder renders one driver value as text, or returns ErrTypeMismatch.
type Decoder struct {
	Name   string
	Decode func(v any) (string, error)
}

// decoders is the probe order. Narrow numeric types come first so a value
// the driver hands over as a number is never rendered through a wider
// type's formatting.
var decoders = []Decoder{
	{Name: "int32", Decode: decodeInt32},
	{Name: "int64", Decode: decodeInt64},
	{Name: "float64", Decode: decodeFloat64},
	{Name: "text", Decode: decodeText},
	{Name: "bool", Decode: decodeBool},
}

// Decoders returns the probe order used by FormatValue.
func Decoders() []Decoder {
	return append([]Decoder(nil), decoders...)
}

// FormatValue renders a driver value of unknown type as display text.
// The first decoder that accepts the value wins; NULL and values no
// decoder accepts render as core.NullCell.
func FormatValue(v any) string {
	if v == nil {
		return core.NullCell
	}
	for _, d := range decoders {
		s, err := d.Decode(v)
		if err == nil {
			return s
		}
	}
	return core.NullCell
}

func decodeInt32(v any) (string, error) {
	var n int64
	switch x := v.(type) {
	case int8:
		n = int64(x)
	case int16:
		n = int64(x)
	case int32:
		n = int64(x)
	case uint8:
		n = int64(x)
	case uint16:
		n = int64(x)
	case int:
		n = int64(x)
	case int64:
		n = x
	case uint32:
		n = int64(x)
	case uint:
		if uint64(x) > math.MaxInt32 {
			return "", ErrTypeMismatch
		}
		n = int64(x)
	case uint64:
		if x > math.MaxInt32 {
			return "", ErrTypeMismatch
		}
		n = int64(x)
	default:
		return "", ErrTypeMismatch
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return "", ErrTypeMismatch
	}
	return strconv.FormatInt(n, 10), nil
}

func decodeInt64(v any) (string, error) {
	switch x := v.(type) {
	case int:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint:
		if uint64(x) > math.MaxInt64 {
			return "", ErrTypeMismatch
		}
		return strconv.FormatUint(uint64(x), 10), nil
	case uint64:
		if x > math.MaxInt64 {
			return "", ErrTypeMismatch
		}
		return strconv.FormatUint(x, 10), nil
	}
	return "", ErrTypeMismatch
}

func decodeFloat64(v any) (string, error) {
	switch x := v.(type) {
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	}
	return "", ErrTypeMismatch
}

func decodeText(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		if !utf8.Valid(x) {
			return "", ErrTypeMismatch
		}
		return string(x), nil
	case time.Time:
		return x.Format(time.RFC3339Nano), nil
	case fmt.Stringer:
		return x.String(), nil
	}
	return "", ErrTypeMismatch
}

func decodeBool(v any) (string, error) {
	if b, ok := v.(bool); ok {
		return strconv.FormatBool(b), nil
	}
	return "", ErrTypeMismatch
}
