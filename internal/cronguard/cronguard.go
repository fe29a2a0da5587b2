// Package cronguard implements the schedule gate: does a cron expression
// designate the minute a given wall-clock instant falls in. Unlike a
// general-purpose cron library, this only ever answers "is now", never
// "when next" — and treats any parse failure as "does not match" rather
// than raising an error, since schedules are best-effort dispatch
// filters.
package cronguard

import (
	"strconv"
	"strings"
	"time"
)

type field struct {
	values map[int]bool
	any    bool
}

func (f field) matches(v int) bool {
	if f.any {
		return true
	}
	return f.values[v]
}

// Expression is a parsed 6-field cron expression: second minute hour
// day-of-month month day-of-week. The second field is validated at parse
// time but not stored or used for matching, since a minute-window gate
// only needs the minute-granularity fields to agree — any second field
// designates some instant within a matching minute.
type Expression struct {
	minute field
	hour   field
	dom    field
	month  field
	dow    field
}

// Parse accepts a 5-field (minute hour dom month dow, normalized by
// prepending second 0), 6-field, or 7-field (trailing year, ignored)
// cron expression.
func Parse(expr string) (*Expression, bool) {
	parts := strings.Fields(expr)
	switch len(parts) {
	case 5:
		parts = append([]string{"0"}, parts...)
	case 6, 7:
		// already has seconds; 7th (year) field is ignored
	default:
		return nil, false
	}

	if _, ok := parseField(parts[0], 0, 59); !ok {
		return nil, false
	}
	minute, ok := parseField(parts[1], 0, 59)
	if !ok {
		return nil, false
	}
	hour, ok := parseField(parts[2], 0, 23)
	if !ok {
		return nil, false
	}
	dom, ok := parseField(parts[3], 1, 31)
	if !ok {
		return nil, false
	}
	month, ok := parseField(parts[4], 1, 12)
	if !ok {
		return nil, false
	}
	dow, ok := parseField(parts[5], 1, 7)
	if !ok {
		return nil, false
	}

	return &Expression{minute: minute, hour: hour, dom: dom, month: month, dow: dow}, true
}

func parseField(spec string, lo, hi int) (field, bool) {
	if spec == "*" {
		return field{any: true}, true
	}

	values := map[int]bool{}
	for _, part := range strings.Split(spec, ",") {
		base := part
		step := 1
		if idx := strings.IndexByte(part, '/'); idx >= 0 {
			base = part[:idx]
			n, err := strconv.Atoi(part[idx+1:])
			if err != nil || n <= 0 {
				return field{}, false
			}
			step = n
		}

		rangeLo, rangeHi := lo, hi
		switch {
		case base == "*":
			// full range, already defaulted
		case strings.Contains(base, "-"):
			bounds := strings.SplitN(base, "-", 2)
			if len(bounds) != 2 {
				return field{}, false
			}
			a, err1 := strconv.Atoi(bounds[0])
			b, err2 := strconv.Atoi(bounds[1])
			if err1 != nil || err2 != nil {
				return field{}, false
			}
			rangeLo, rangeHi = a, b
		default:
			n, err := strconv.Atoi(base)
			if err != nil {
				return field{}, false
			}
			rangeLo, rangeHi = n, n
		}

		if rangeLo < lo || rangeHi > hi || rangeLo > rangeHi {
			return field{}, false
		}
		for v := rangeLo; v <= rangeHi; v += step {
			values[v] = true
		}
	}
	return field{values: values}, true
}

// Matches reports whether schedule designates the minute t falls in.
// Invalid expressions return false rather than erroring.
func Matches(schedule string, t time.Time) bool {
	expr, ok := Parse(schedule)
	if !ok {
		return false
	}
	return expr.MatchesMinute(t)
}

// MatchesMinute reports whether the parsed expression designates the
// minute t falls in, using spec's 1=Sunday..7=Saturday numbering.
func (e *Expression) MatchesMinute(t time.Time) bool {
	dow := int(t.Weekday()) + 1 // time.Sunday == 0 -> spec's 1
	return e.minute.matches(t.Minute()) &&
		e.hour.matches(t.Hour()) &&
		e.dom.matches(t.Day()) &&
		e.month.matches(int(t.Month())) &&
		e.dow.matches(dow)
}
