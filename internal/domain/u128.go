package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// U128 is an on-chain balance. Stored documents carry it either as a
// 0x-prefixed hex string or as a plain number; it is always emitted as an
// even-length 0x-prefixed hex string, so zero encodes as "0x00".
type U128 struct {
	i *big.Int // nil means zero
}

// NewU128 returns a U128 holding v.
func NewU128(v uint64) U128 {
	return U128{i: new(big.Int).SetUint64(v)}
}

// ParseU128 parses a hex ("0x...") or decimal string.
// An empty string or a bare "0x" parses as zero.
func ParseU128(s string) (U128, error) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	if s == "" {
		return U128{}, nil
	}

	v, ok := new(big.Int).SetString(s, base)
	if !ok {
		if base == 10 {
			return parseU128Float(s)
		}
		return U128{}, fmt.Errorf("parse u128 %q: invalid hex", s)
	}
	if v.Sign() < 0 {
		return U128{}, fmt.Errorf("parse u128 %q: negative value", s)
	}
	return U128{i: v}, nil
}

// parseU128Float handles numbers written in exponent form (e.g. 1.5e+21).
func parseU128Float(s string) (U128, error) {
	f, _, err := big.ParseFloat(s, 10, 256, big.ToNearestEven)
	if err != nil {
		return U128{}, fmt.Errorf("parse u128 %q: %w", s, err)
	}
	if f.Sign() < 0 {
		return U128{}, fmt.Errorf("parse u128 %q: negative value", s)
	}
	v, _ := f.Int(nil)
	return U128{i: v}, nil
}

// MustU128 is ParseU128 for literals known to be valid. It panics otherwise.
func MustU128(s string) U128 {
	u, err := ParseU128(s)
	if err != nil {
		panic(err)
	}
	return u
}

// Big returns a copy of the value.
func (u U128) Big() *big.Int {
	if u.i == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(u.i)
}

// IsZero reports whether the value is zero.
func (u U128) IsZero() bool {
	return u.i == nil || u.i.Sign() == 0
}

// Cmp compares u and o.
func (u U128) Cmp(o U128) int {
	return u.Big().Cmp(o.Big())
}

// String returns the canonical 0x-prefixed hex form.
func (u U128) String() string {
	h := "0"
	if u.i != nil {
		h = u.i.Text(16)
	}
	if len(h)%2 == 1 {
		h = "0" + h
	}
	return "0x" + h
}

// MarshalJSON implements json.Marshaler.
func (u U128) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON accepts a hex/decimal string or a JSON number.
func (u *U128) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*u = U128{}
		return nil
	}
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	v, err := ParseU128(s)
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// MarshalBSONValue implements bson.ValueMarshaler.
func (u U128) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(u.String())
}

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (u *U128) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.String:
		v, err := ParseU128(rv.StringValue())
		if err != nil {
			return err
		}
		*u = v
	case bsontype.Int32:
		return u.setInt64(int64(rv.Int32()))
	case bsontype.Int64:
		return u.setInt64(rv.Int64())
	case bsontype.Double:
		f := rv.Double()
		if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("decode u128: invalid double %v", f)
		}
		v, _ := big.NewFloat(math.Round(f)).Int(nil)
		*u = U128{i: v}
	case bsontype.Decimal128:
		v, err := ParseU128(rv.Decimal128().String())
		if err != nil {
			return err
		}
		*u = v
	case bsontype.Null, bsontype.Undefined:
		*u = U128{}
	default:
		return fmt.Errorf("decode u128: unsupported bson type %s", t)
	}
	return nil
}

func (u *U128) setInt64(v int64) error {
	if v < 0 {
		return fmt.Errorf("decode u128: negative value %d", v)
	}
	*u = U128{i: big.NewInt(v)}
	return nil
}

// Millis is a unix timestamp in milliseconds. Ingestion writes it either as
// an integer or as a float; both decode to the rounded integer.
type Millis int64

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (m *Millis) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Int32:
		*m = Millis(rv.Int32())
	case bsontype.Int64:
		*m = Millis(rv.Int64())
	case bsontype.Double:
		*m = Millis(math.Round(rv.Double()))
	case bsontype.DateTime:
		*m = Millis(rv.DateTime())
	case bsontype.Null, bsontype.Undefined:
		*m = 0
	default:
		return fmt.Errorf("decode timestamp: unsupported bson type %s", t)
	}
	return nil
}

// UnmarshalJSON accepts integer or float milliseconds.
func (m *Millis) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = 0
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode timestamp: %w", err)
	}
	*m = Millis(math.Round(f))
	return nil
}
