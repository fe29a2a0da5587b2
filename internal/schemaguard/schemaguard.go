// Package schemaguard implements the optional per-point-specification
// JSON Schema validation guard applied to an inbound payload before
// extraction proceeds.
package schemaguard

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/sinqtt-labs/tsbridge/internal/bridgeerr"
)

// Guard validates a payload document against a single schema. It keeps
// only the schema's loader, so the schema is loaded and compiled again on
// every Validate call.
type Guard struct {
	schema gojsonschema.JSONLoader
}

// New builds a Guard from a schema reference: a "file://" or "http(s)://"
// URI, or an inline JSON schema document.
func New(schemaRefOrDoc string) *Guard {
	if strings.HasPrefix(schemaRefOrDoc, "file://") || strings.HasPrefix(schemaRefOrDoc, "http://") || strings.HasPrefix(schemaRefOrDoc, "https://") {
		return &Guard{schema: gojsonschema.NewReferenceLoader(schemaRefOrDoc)}
	}
	return &Guard{schema: gojsonschema.NewStringLoader(schemaRefOrDoc)}
}

// Validate reports whether payloadJSON conforms to the guard's schema.
// A schema-load failure or validation failure both return a non-nil
// error; callers in the dispatch loop treat this as log-and-skip.
func (g *Guard) Validate(payloadJSON string) error {
	doc := gojsonschema.NewStringLoader(payloadJSON)
	result, err := gojsonschema.Validate(g.schema, doc)
	if err != nil {
		return bridgeerr.Wrap(bridgeerr.CategoryIngestion, "schema validation error", err)
	}
	if result.Valid() {
		return nil
	}

	complaints := make([]string, len(result.Errors()))
	for i, e := range result.Errors() {
		complaints[i] = e.String()
	}
	return bridgeerr.Ingestionf("schema validation failed: %s", strings.Join(complaints, "; "))
}
