// Package jsonval implements a tagged JSON value type that keeps the
// integer/float distinction encoding/json's interface{} decoding loses.
// It is the currency of the whole processing pipeline: extraction,
// coercion, and line-protocol encoding all operate on jsonval.Value
// instead of raw interface{}.
package jsonval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Kind discriminates the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindUInt
	KindFloat
	KindString
	KindArray
	KindObject
)

// Value is a tagged sum over the JSON data model plus the Int/UInt split
// the pipeline needs for type coercion (§4.5) and line-protocol field
// typing (§4.8).
type Value struct {
	Kind Kind
	B    bool
	I    int64
	U    uint64
	F    float64
	S    string
	Arr  []Value
	Obj  map[string]Value
}

func Null() Value             { return Value{Kind: KindNull} }
func Bool(b bool) Value       { return Value{Kind: KindBool, B: b} }
func Int(i int64) Value       { return Value{Kind: KindInt, I: i} }
func UInt(u uint64) Value     { return Value{Kind: KindUInt, U: u} }
func Float(f float64) Value   { return Value{Kind: KindFloat, F: f} }
func String(s string) Value   { return Value{Kind: KindString, S: s} }
func Array(v []Value) Value   { return Value{Kind: KindArray, Arr: v} }
func Object(m map[string]Value) Value {
	return Value{Kind: KindObject, Obj: m}
}

func (v Value) IsNull() bool { return v.Kind == KindNull }

// IsNumber reports whether v holds a numeric variant (Int, UInt or
// Float); a Float holding NaN or an infinity also counts.
func (v Value) IsNumber() bool {
	switch v.Kind {
	case KindInt, KindUInt, KindFloat:
		return true
	default:
		return false
	}
}

// AsFloat returns v's numeric value and true if v is numeric.
func (v Value) AsFloat() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.I), true
	case KindUInt:
		return float64(v.U), true
	case KindFloat:
		return v.F, true
	default:
		return 0, false
	}
}

// Decode parses raw bytes into a Value, preserving integer/float
// distinctions via json.Number.
func Decode(raw []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var x interface{}
	if err := dec.Decode(&x); err != nil {
		return Value{}, err
	}
	return fromGeneric(x), nil
}

func fromGeneric(x interface{}) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case json.Number:
		return numberValue(t)
	case string:
		return String(t)
	case []interface{}:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = fromGeneric(e)
		}
		return Array(out)
	case map[string]interface{}:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			out[k] = fromGeneric(e)
		}
		return Object(out)
	default:
		return Null()
	}
}

func numberValue(n json.Number) Value {
	if i, err := n.Int64(); err == nil {
		return Int(i)
	}
	f, err := n.Float64()
	if err != nil {
		return Null()
	}
	return Float(f)
}

// Get performs a map lookup on an Object value; the second return is
// false for anything else (including a missing key).
func (v Value) Get(key string) (Value, bool) {
	if v.Kind != KindObject {
		return Value{}, false
	}
	got, ok := v.Obj[key]
	return got, ok
}

// Index performs an array index lookup; false on out-of-range or
// non-array input.
func (v Value) Index(i int) (Value, bool) {
	if v.Kind != KindArray || i < 0 || i >= len(v.Arr) {
		return Value{}, false
	}
	return v.Arr[i], true
}

// JSON renders v as canonical JSON text. Object keys are sorted so output
// is deterministic, matching the line-protocol encoder's sort discipline.
func (v Value) JSON() string {
	bs, _ := json.Marshal(v)
	return string(bs)
}

// MarshalJSON implements json.Marshaler. Object keys are written in
// sorted order, and floats use their shortest representation, so a
// whole-number float decoded from "5.0" renders as 5.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		if v.B {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case KindInt:
		return []byte(strconv.FormatInt(v.I, 10)), nil
	case KindUInt:
		return []byte(strconv.FormatUint(v.U, 10)), nil
	case KindFloat:
		return []byte(strconv.FormatFloat(v.F, 'g', -1, 64)), nil
	case KindString:
		return json.Marshal(v.S)
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range v.Arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			bs, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(bs)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindObject:
		keys := make([]string, 0, len(v.Obj))
		for k := range v.Obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := v.Obj[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("jsonval: unknown kind %d", v.Kind)
	}
}

// BytesToByteArray converts a byte slice to a Value holding an array of
// Int values 0-255, matching how the original bridge's base64-decoded raw
// bytes serialize into the composed message object.
func BytesToByteArray(raw []byte) Value {
	out := make([]Value, len(raw))
	for i, b := range raw {
		out[i] = Int(int64(b))
	}
	return Array(out)
}
