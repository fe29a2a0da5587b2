// Package coerce implements the type-coercion tags applied to a
// value-spec's evaluated result: float, int, str/string, bool, booltoint.
// Every coercion failure yields "absent" rather than an error, since
// coercions run inside a best-effort per-field pipeline.
package coerce

import (
	"strconv"
	"strings"

	"github.com/sinqtt-labs/tsbridge/internal/jsonval"
)

var truthyStrings = map[string]bool{"true": true, "1": true, "yes": true, "on": true}
var falsyStrings = map[string]bool{"false": true, "0": true, "no": true, "off": true}

// Apply runs the named coercion tag against v, returning the coerced
// value and false if the tag is unknown or the coercion fails.
func Apply(tag string, v jsonval.Value) (jsonval.Value, bool) {
	switch tag {
	case "float":
		return toFloat(v)
	case "int":
		return toInt(v)
	case "str", "string":
		return toStr(v), true
	case "bool":
		return toBool(v)
	case "booltoint":
		b, ok := toBool(v)
		if !ok {
			return jsonval.Value{}, false
		}
		if b.B {
			return jsonval.Int(1), true
		}
		return jsonval.Int(0), true
	default:
		return jsonval.Value{}, false
	}
}

func toFloat(v jsonval.Value) (jsonval.Value, bool) {
	switch v.Kind {
	case jsonval.KindFloat:
		return v, true
	case jsonval.KindInt:
		return jsonval.Float(float64(v.I)), true
	case jsonval.KindUInt:
		return jsonval.Float(float64(v.U)), true
	case jsonval.KindString:
		f, err := strconv.ParseFloat(v.S, 64)
		if err != nil {
			return jsonval.Value{}, false
		}
		return jsonval.Float(f), true
	default:
		return jsonval.Value{}, false
	}
}

func toInt(v jsonval.Value) (jsonval.Value, bool) {
	switch v.Kind {
	case jsonval.KindInt:
		return v, true
	case jsonval.KindUInt:
		return jsonval.Int(int64(v.U)), true
	case jsonval.KindFloat:
		return jsonval.Int(int64(v.F)), true
	case jsonval.KindString:
		i, err := strconv.ParseInt(v.S, 10, 64)
		if err != nil {
			return jsonval.Value{}, false
		}
		return jsonval.Int(i), true
	default:
		return jsonval.Value{}, false
	}
}

func toStr(v jsonval.Value) jsonval.Value {
	if v.Kind == jsonval.KindString {
		return v
	}
	return jsonval.String(v.JSON())
}

func toBool(v jsonval.Value) (jsonval.Value, bool) {
	switch v.Kind {
	case jsonval.KindBool:
		return v, true
	case jsonval.KindString:
		lower := strings.ToLower(v.S)
		if truthyStrings[lower] {
			return jsonval.Bool(true), true
		}
		if falsyStrings[lower] {
			return jsonval.Bool(false), true
		}
		return jsonval.Value{}, false
	case jsonval.KindInt:
		return jsonval.Bool(v.I != 0), true
	case jsonval.KindUInt:
		return jsonval.Bool(v.U != 0), true
	case jsonval.KindFloat:
		return jsonval.Bool(v.F != 0), true
	default:
		return jsonval.Value{}, false
	}
}
