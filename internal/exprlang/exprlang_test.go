package exprlang

import (
	"testing"

	"github.com/sinqtt-labs/tsbridge/internal/jsonval"
)

func mustDecode(t *testing.T, s string) jsonval.Value {
	t.Helper()
	v, err := jsonval.Decode([]byte(s))
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestLiteralMode(t *testing.T) {
	got, ok, err := Eval("sensor_name", jsonval.Null())
	if err != nil || !ok || got.S != "sensor_name" {
		t.Fatalf("got %+v, %v, %v", got, ok, err)
	}
}

func TestJSONPathMode(t *testing.T) {
	msg := mustDecode(t, `{"payload":{"value":42}}`)
	got, ok, err := Eval("$.payload.value", msg)
	if err != nil || !ok || got.I != 42 {
		t.Fatalf("got %+v, %v, %v", got, ok, err)
	}
}

func TestJSONPathModeAbsent(t *testing.T) {
	msg := mustDecode(t, `{"payload":{}}`)
	_, ok, err := Eval("$.payload.missing", msg)
	if err != nil || ok {
		t.Fatalf("expected absent, got ok=%v err=%v", ok, err)
	}
}

func TestExpressionModeCelsiusToFahrenheit(t *testing.T) {
	msg := mustDecode(t, `{"payload":{"celsius":100}}`)
	got, ok, err := Eval("=$.payload.celsius * 9 / 5 + 32", msg)
	if err != nil || !ok {
		t.Fatalf("got %+v, %v, %v", got, ok, err)
	}
	if got.F != 212 {
		t.Fatalf("want 212, got %v", got.F)
	}
}

func TestExpressionModeEmptyBodyFails(t *testing.T) {
	_, _, err := Eval("=", jsonval.Null())
	if err == nil {
		t.Fatal("expected Expression/Parse error")
	}
}

func TestExpressionModeUnboundVariableIsAbsent(t *testing.T) {
	msg := mustDecode(t, `{"payload":{}}`)
	_, ok, err := Eval("=$.payload.missing + 1", msg)
	if err != nil || ok {
		t.Fatalf("expected absent, got ok=%v err=%v", ok, err)
	}
}

func TestExpressionModePowerOperator(t *testing.T) {
	msg := mustDecode(t, `{"payload":{"base":2}}`)
	got, ok, err := Eval("=$.payload.base ^ 8", msg)
	if err != nil || !ok || got.F != 256 {
		t.Fatalf("got %+v, %v, %v", got, ok, err)
	}
}

func TestExpressionModePowerIsRightAssociative(t *testing.T) {
	got, ok, err := Eval("=2 ^ 3 ^ 2", jsonval.Null())
	if err != nil || !ok {
		t.Fatalf("got %+v, %v, %v", got, ok, err)
	}
	if got.F != 512 {
		t.Fatalf("want 2^(3^2)=512, got %v", got.F)
	}
}

func TestExpressionModeLongestFirstRewrite(t *testing.T) {
	msg := mustDecode(t, `{"payload":{"offset":5}}`)
	got, ok, err := Eval("=$.payload.offset + 1", msg)
	if err != nil || !ok || got.F != 6 {
		t.Fatalf("got %+v, %v, %v", got, ok, err)
	}
}

func TestExpressionModePrefixCollisionAvoided(t *testing.T) {
	paths := findPaths("$.payload.offset + $.payload")
	if len(paths) != 2 || paths[0] != "$.payload.offset" {
		t.Fatalf("want longest-first ordering, got %v", paths)
	}
}

func TestEmptySpecIsAbsent(t *testing.T) {
	_, ok, err := Eval("", jsonval.Null())
	if err != nil || ok {
		t.Fatalf("expected absent, got ok=%v err=%v", ok, err)
	}
}
