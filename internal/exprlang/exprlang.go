// Package exprlang implements value-spec evaluation: the three-mode
// dispatch (literal / JSONPath / arithmetic expression) described for
// point field, tag, and HTTP-content specifications. Arithmetic
// expressions embed JSONPath references as variables and are evaluated
// by a small embedded ECMAScript VM (github.com/dop251/goja), mirroring
// how the JS-exec step of a scripted test phase binds variables before
// running.
package exprlang

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dop251/goja"

	"github.com/sinqtt-labs/tsbridge/internal/bridgeerr"
	"github.com/sinqtt-labs/tsbridge/internal/jsonpath"
	"github.com/sinqtt-labs/tsbridge/internal/jsonval"
)

// Eval evaluates a value-spec string against the composed message
// object, dispatching on spec.md §4.1's three modes. It returns the
// resolved value and true, or false if evaluation yields "absent".
func Eval(spec string, msgObj jsonval.Value) (jsonval.Value, bool, error) {
	if spec == "" {
		return jsonval.Value{}, false, nil
	}
	switch {
	case strings.HasPrefix(spec, "="):
		return evalExpression(spec, msgObj)
	case strings.Contains(spec, "$."):
		v, ok := jsonpath.Extract(msgObj, spec)
		return v, ok, nil
	default:
		return jsonval.String(spec), true, nil
	}
}

func evalExpression(spec string, msgObj jsonval.Value) (jsonval.Value, bool, error) {
	body := strings.TrimSpace(strings.TrimPrefix(spec, "="))
	if body == "" {
		return jsonval.Value{}, false, bridgeerr.Expressionf("empty expression body")
	}

	paths := findPaths(body)
	rewritten := rewritePaths(body, paths)
	rewritten = lowerPower(rewritten)

	vm := goja.New()
	for _, p := range paths {
		name := variableName(p)
		resolved, ok := jsonpath.Extract(msgObj, p)
		if !ok {
			continue
		}
		f, isNum := resolved.AsFloat()
		if !isNum {
			continue
		}
		if err := vm.Set(name, f); err != nil {
			return jsonval.Value{}, false, bridgeerr.Wrap(bridgeerr.CategoryExpression, "binding "+name, err)
		}
	}

	result, err := vm.RunString(rewritten)
	if err != nil {
		// An unbound variable reference surfaces here as a
		// ReferenceError; treat it as absent, per §4.2.
		return jsonval.Value{}, false, nil
	}
	f, ok := result.Export().(float64)
	if !ok {
		if n, isInt := result.Export().(int64); isInt {
			return jsonval.Float(float64(n)), true, nil
		}
		return jsonval.Value{}, false, bridgeerr.Expressionf("non-numeric expression result")
	}
	return jsonval.Float(f), true, nil
}

// findPaths scans body for every "$.<segments>" occurrence and returns
// the distinct paths found, longest-first so rewriting never rewrites a
// prefix of a longer path before the longer path itself.
func findPaths(body string) []string {
	seen := map[string]bool{}
	var out []string
	i := 0
	for i < len(body) {
		if body[i] == '$' && i+1 < len(body) && body[i+1] == '.' {
			j := i + 2
			for j < len(body) && isPathChar(body[j]) {
				j++
			}
			p := body[i:j]
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
			i = j
			continue
		}
		i++
	}
	sort.Slice(out, func(a, b int) bool { return len(out[a]) > len(out[b]) })
	return out
}

func isPathChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '.' || c == '_' || c == '[' || c == ']' || c == '\'' || c == '"':
		return true
	default:
		return false
	}
}

func rewritePaths(body string, paths []string) string {
	out := body
	for _, p := range paths {
		out = strings.ReplaceAll(out, p, variableName(p))
	}
	return out
}

// variableName renders a JSONPath as the synthetic identifier it binds
// to: '$' -> "JSON_", '.' -> '_', bracket/quote punctuation stripped.
func variableName(path string) string {
	var b strings.Builder
	for i := 0; i < len(path); i++ {
		switch path[i] {
		case '$':
			b.WriteString("JSON_")
		case '.':
			b.WriteByte('_')
		case '[', ']', '\'', '"':
			// dropped
		default:
			b.WriteByte(path[i])
		}
	}
	return b.String()
}

// lowerPower rewrites "base ^ exponent" occurrences into Math.pow calls.
// Operands are identifiers, number literals, parenthesised groups, or
// call expressions (e.g. a previously-lowered "Math.pow(...)"). "^" is
// right-associative, so the rightmost occurrence is lowered first: it
// becomes the innermost call and ends up nested as the right operand of
// whatever "^" sits to its left, matching "a^b^c" meaning "a^(b^c)".
func lowerPower(expr string) string {
	for {
		idx := strings.LastIndexByte(expr, '^')
		if idx < 0 {
			return expr
		}
		left, lstart := scanOperandLeft(expr, idx-1)
		right, rend := scanOperandRight(expr, idx+1)
		expr = expr[:lstart] + fmt.Sprintf("Math.pow(%s,%s)", strings.TrimSpace(left), strings.TrimSpace(right)) + expr[rend:]
	}
}

func scanOperandLeft(s string, end int) (string, int) {
	for end >= 0 && s[end] == ' ' {
		end--
	}
	if end >= 0 && s[end] == ')' {
		depth := 0
		i := end
		for ; i >= 0; i-- {
			if s[i] == ')' {
				depth++
			} else if s[i] == '(' {
				depth--
				if depth == 0 {
					break
				}
			}
		}
		// Include a call-name prefix directly preceding the opening
		// paren (e.g. "Math.pow" in "...Math.pow(2,3)").
		for i > 0 && isOperandChar(s[i-1]) {
			i--
		}
		return s[i : end+1], i
	}
	i := end
	for i >= 0 && isOperandChar(s[i]) {
		i--
	}
	return s[i+1 : end+1], i + 1
}

func scanOperandRight(s string, start int) (string, int) {
	for start < len(s) && s[start] == ' ' {
		start++
	}
	if start < len(s) && s[start] == '(' {
		_, end := scanParenGroup(s, start)
		return s[start:end], end
	}
	i := start
	for i < len(s) && isOperandChar(s[i]) {
		i++
	}
	if i < len(s) && s[i] == '(' {
		// An identifier immediately followed by '(' is a call, e.g.
		// "Math.pow(3,2)"; consume its parenthesised argument list too.
		_, end := scanParenGroup(s, i)
		i = end
	}
	return s[start:i], i
}

// scanParenGroup returns the balanced "(...)" group starting at s[start]
// (which must be '(') and the index just past its closing ')'.
func scanParenGroup(s string, start int) (string, int) {
	depth := 0
	i := start
	for ; i < len(s); i++ {
		if s[i] == '(' {
			depth++
		} else if s[i] == ')' {
			depth--
			if depth == 0 {
				i++
				break
			}
		}
	}
	return s[start:i], i
}

func isOperandChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_' || c == '.':
		return true
	default:
		return false
	}
}
