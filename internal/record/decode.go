package record

import (
	"fmt"
	"strings"
	"time"

	"db-check/internal/schema"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// LookupEncoding resolves an encoding name such as "gbk" or "euc-kr".
// An empty name means no override and returns nil.
func LookupEncoding(name string) (encoding.Encoding, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return enc, nil
}

// Decode converts a raw driver value into the Go type used for comparison:
// int64, decimal.Decimal, float64, bool, time.Time, []byte or string.
// When enc is set, text values are taken as bytes in that encoding.
func Decode(raw any, col *schema.Column, enc encoding.Encoding) (ColumnValue, error) {
	cv := ColumnValue{Column: col}
	if raw == nil {
		return cv, nil
	}

	var err error
	switch col.Kind() {
	case schema.KindInteger:
		cv.Value, err = cast.ToInt64E(asScalar(raw))
	case schema.KindDecimal:
		cv.Value, err = toDecimal(raw)
	case schema.KindFloat:
		cv.Value, err = cast.ToFloat64E(asScalar(raw))
	case schema.KindBool:
		cv.Value, err = toBool(raw)
	case schema.KindTime:
		cv.Value, err = toTime(raw)
	case schema.KindBinary:
		cv.Value = toBytes(raw)
	case schema.KindText:
		cv.Value, err = toText(raw, enc)
	default:
		cv.Value = asScalar(raw)
	}
	if err != nil {
		return cv, fmt.Errorf("decode column %s (%s): %w", col.Name, col.DataType, err)
	}
	return cv, nil
}

// asScalar turns driver byte slices into strings; other values pass through.
func asScalar(raw any) any {
	if b, ok := raw.([]byte); ok {
		return string(b)
	}
	return raw
}

func toDecimal(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, nil
	case []byte:
		return decimal.NewFromString(string(v))
	case string:
		return decimal.NewFromString(v)
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	}
	n, err := cast.ToInt64E(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromInt(n), nil
}

func toBool(raw any) (bool, error) {
	// MySQL BIT(1) arrives as a single raw byte.
	if b, ok := raw.([]byte); ok && len(b) == 1 && b[0] <= 1 {
		return b[0] == 1, nil
	}
	return cast.ToBoolE(asScalar(raw))
}

func toTime(raw any) (time.Time, error) {
	if t, ok := raw.(time.Time); ok {
		return t, nil
	}
	return cast.ToTimeE(asScalar(raw))
}

func toBytes(raw any) []byte {
	switch v := raw.(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	}
	return []byte(cast.ToString(raw))
}

func toText(raw any, enc encoding.Encoding) (string, error) {
	var b []byte
	switch v := raw.(type) {
	case []byte:
		b = v
	case string:
		if enc == nil {
			return v, nil
		}
		b = []byte(v)
	default:
		return cast.ToStringE(raw)
	}
	if enc == nil {
		return string(b), nil
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Text is the canonical textual form of a decoded value, used for keys and
// for comparing values of otherwise unrelated types. Times render in UTC so
// one instant has one key whatever zone the driver returned.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case decimal.Decimal:
		return t.String()
	}
	return cast.ToString(v)
}
