package jsonpath

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

func TestExtractDotted(t *testing.T) {
	v := mustDecode(t, `{"a":{"b":{"c":42}}}`)
	got, ok := Extract(v, "$.a.b.c")
	if !ok || got.I != 42 {
		t.Fatalf("got %+v, %v", got, ok)
	}
}

func TestExtractArrayIndex(t *testing.T) {
	v := mustDecode(t, `{"list":[10,20,30]}`)
	got, ok := Extract(v, "$.list[1]")
	if !ok || got.I != 20 {
		t.Fatalf("got %+v, %v", got, ok)
	}
}

func TestExtractBracketQuotedKey(t *testing.T) {
	v := mustDecode(t, `{"obj":{"weird.name":7}}`)
	got, ok := Extract(v, "$.obj['weird.name']")
	if !ok || got.I != 7 {
		t.Fatalf("got %+v, %v", got, ok)
	}
}

func TestExtractMissingIntermediateIsAbsent(t *testing.T) {
	v := mustDecode(t, `{"a":1}`)
	if _, ok := Extract(v, "$.a.b.c"); ok {
		t.Fatal("expected absent")
	}
}

func TestExtractOutOfRangeIndexIsAbsent(t *testing.T) {
	v := mustDecode(t, `{"list":[1,2]}`)
	if _, ok := Extract(v, "$.list[5]"); ok {
		t.Fatal("expected absent")
	}
}

func TestExtractRoot(t *testing.T) {
	v := mustDecode(t, `{"a":1}`)
	got, ok := Extract(v, "$")
	if !ok || got.Kind != jsonval.KindObject {
		t.Fatalf("got %+v, %v", got, ok)
	}
}
