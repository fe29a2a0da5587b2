// Package lineproto implements the line-oriented ingestion text format a
// Point renders to: escaping, field type suffixes, and lexicographic
// ordering of tags and fields.
package lineproto

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FieldValue is a typed field value; exactly one of the payload fields
// below is meaningful, discriminated by kind.
type FieldValue struct {
	kind fieldKind
	f    float64
	i    int64
	u    uint64
	s    string
	b    bool
}

type fieldKind int

const (
	fieldFloat fieldKind = iota
	fieldInt
	fieldUInt
	fieldString
	fieldBool
)

func Float(f float64) FieldValue { return FieldValue{kind: fieldFloat, f: f} }
func Int(i int64) FieldValue     { return FieldValue{kind: fieldInt, i: i} }
func UInt(u uint64) FieldValue   { return FieldValue{kind: fieldUInt, u: u} }
func String(s string) FieldValue { return FieldValue{kind: fieldString, s: s} }
func Bool(b bool) FieldValue     { return FieldValue{kind: fieldBool, b: b} }

// Point is a mutable point builder; Render produces its immutable
// line-protocol text.
type Point struct {
	Measurement string
	Tags        map[string]string
	Fields      map[string]FieldValue
	Timestamp   *int64
}

func New(measurement string) *Point {
	return &Point{
		Measurement: measurement,
		Tags:        map[string]string{},
		Fields:      map[string]FieldValue{},
	}
}

func (p *Point) Tag(key, value string) *Point {
	p.Tags[key] = value
	return p
}

func (p *Point) Field(key string, value FieldValue) *Point {
	p.Fields[key] = value
	return p
}

func (p *Point) WithTimestamp(ts int64) *Point {
	p.Timestamp = &ts
	return p
}

// HasFields reports whether the point has at least one field; a point
// with zero fields must not be written per the data model invariant.
func (p *Point) HasFields() bool {
	return len(p.Fields) > 0
}

// Render renders the point to line-protocol text.
func (p *Point) Render() string {
	var b strings.Builder
	b.WriteString(escapeMeasurement(p.Measurement))

	tagKeys := sortedKeys(p.Tags)
	for _, k := range tagKeys {
		v := p.Tags[k]
		if v == "" {
			continue
		}
		b.WriteByte(',')
		b.WriteString(escapeKV(k))
		b.WriteByte('=')
		b.WriteString(escapeKV(v))
	}

	b.WriteByte(' ')
	fieldKeys := make([]string, 0, len(p.Fields))
	for k := range p.Fields {
		fieldKeys = append(fieldKeys, k)
	}
	sort.Strings(fieldKeys)
	for i, k := range fieldKeys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escapeKV(k))
		b.WriteByte('=')
		b.WriteString(renderFieldValue(p.Fields[k]))
	}

	if p.Timestamp != nil {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatInt(*p.Timestamp, 10))
	}
	return b.String()
}

func renderFieldValue(v FieldValue) string {
	switch v.kind {
	case fieldFloat:
		return renderFloat(v.f)
	case fieldInt:
		return strconv.FormatInt(v.i, 10) + "i"
	case fieldUInt:
		return strconv.FormatUint(v.u, 10) + "u"
	case fieldBool:
		if v.b {
			return "true"
		}
		return "false"
	case fieldString:
		return `"` + escapeStringValue(v.s) + `"`
	default:
		return ""
	}
}

// renderFloat prints a whole-number float with a trailing ".0" so the
// ingestion backend parses the value as a float rather than an int.
func renderFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func escapeMeasurement(s string) string {
	r := strings.NewReplacer(",", `\,`, " ", `\ `)
	return r.Replace(s)
}

func escapeKV(s string) string {
	r := strings.NewReplacer(",", `\,`, "=", `\=`, " ", `\ `)
	return r.Replace(s)
}

func escapeStringValue(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return r.Replace(s)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RenderBatch joins multiple points' line-protocol text with newlines; an
// empty slice renders to the empty string.
func RenderBatch(points []*Point) string {
	lines := make([]string, len(points))
	for i, p := range points {
		lines[i] = p.Render()
	}
	return strings.Join(lines, "\n")
}

// ValidationError reports that a point could not be rendered for write.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("lineproto: %s", e.Reason)
}
