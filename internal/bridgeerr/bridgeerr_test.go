package bridgeerr

import (
	"errors"
	"testing"
)

func TestIsMatchesByCategory(t *testing.T) {
	err := Expressionf("empty expression body")
	if !errors.Is(err, Expression) {
		t.Fatal("expected errors.Is to match category sentinel")
	}
	if errors.Is(err, Config) {
		t.Fatal("expected no match against a different category")
	}
}

func TestWrapUnwrapsCause(t *testing.T) {
	cause := errors.New("boom")
	wrapped := Wrap(CategoryBroker, "subscribe failed", cause)
	if !errors.Is(wrapped, cause) {
		t.Fatal("expected Unwrap to expose the original cause")
	}
}
