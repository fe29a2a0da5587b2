package schemaguard

import "testing"

const sampleSchema = `{
  "type": "object",
  "properties": {"value": {"type": "number"}},
  "required": ["value"]
}`

func TestValidateAcceptsConformingPayload(t *testing.T) {
	g := New(sampleSchema)
	if err := g.Validate(`{"value": 42}`); err != nil {
		t.Fatal(err)
	}
}

func TestValidateRejectsNonConformingPayload(t *testing.T) {
	g := New(sampleSchema)
	if err := g.Validate(`{"value": "not-a-number"}`); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestValidateRejectsMissingRequiredField(t *testing.T) {
	g := New(sampleSchema)
	if err := g.Validate(`{}`); err == nil {
		t.Fatal("expected validation error")
	}
}
