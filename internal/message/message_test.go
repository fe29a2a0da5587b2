package message

import (
	"encoding/base64"
	"testing"

	"github.com/sinqtt-labs/tsbridge/internal/jsonval"
)

func TestParseJSONPayload(t *testing.T) {
	msg := Parse("test/topic", []byte(`{"value": 42}`), 0, nil)
	if len(msg.Topic) != 2 || msg.Topic[0] != "test" || msg.Topic[1] != "topic" {
		t.Fatalf("got topic %v", msg.Topic)
	}
	v, ok := msg.Payload.Get("value")
	if !ok || v.I != 42 {
		t.Fatalf("got %+v, %v", v, ok)
	}
}

func TestParseRawStringFallback(t *testing.T) {
	msg := Parse("test/topic", []byte("hello"), 0, nil)
	if msg.Payload.Kind != jsonval.KindString || msg.Payload.S != "hello" {
		t.Fatalf("got %+v", msg.Payload)
	}
}

func TestParseEmptyPayloadIsNull(t *testing.T) {
	msg := Parse("test/topic", []byte(""), 0, nil)
	if !msg.Payload.IsNull() {
		t.Fatalf("got %+v", msg.Payload)
	}
}

func TestBase64PreDecodeSuccess(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte{0, 255, 65})
	payload := []byte(`{"data":"` + encoded + `"}`)
	msg := Parse("t", payload, 0, &Base64Config{Source: "$.payload.data", Target: "decoded"})
	d, ok := msg.Base64Decoded["decoded"]
	if !ok {
		t.Fatal("expected base64decoded entry")
	}
	if d.Hex != "00ff41" {
		t.Fatalf("got hex %q", d.Hex)
	}
}

func TestBase64PreDecodeSilentFailureOnInvalidInput(t *testing.T) {
	msg := Parse("t", []byte(`{"data":"not-base64!!"}`), 0, &Base64Config{Source: "$.payload.data", Target: "decoded"})
	if msg.Base64Decoded != nil {
		t.Fatalf("expected no base64decoded entry, got %+v", msg.Base64Decoded)
	}
}

func TestBase64PreDecodeSilentFailureOnAbsentSource(t *testing.T) {
	msg := Parse("t", []byte(`{}`), 0, &Base64Config{Source: "$.payload.missing", Target: "decoded"})
	if msg.Base64Decoded != nil {
		t.Fatalf("expected no base64decoded entry")
	}
}

func TestComposeRendersRawAsByteArray(t *testing.T) {
	msg := Parse("t", []byte(`{}`), 1, nil)
	msg.Base64Decoded = map[string]Base64Decoded{"x": {Raw: []byte{0, 255}, Hex: "00ff"}}
	obj := Compose(msg)
	decoded, ok := obj.Get("base64decoded")
	if !ok {
		t.Fatal("expected base64decoded key")
	}
	entry, _ := decoded.Get("x")
	raw, _ := entry.Get("raw")
	if raw.Kind != jsonval.KindArray || len(raw.Arr) != 2 || raw.Arr[1].I != 255 {
		t.Fatalf("got %+v", raw)
	}
}

func TestComposeTopLevelKeys(t *testing.T) {
	msg := Parse("a/b", []byte(`1`), 2, nil)
	obj := Compose(msg)
	for _, k := range []string{"topic", "payload", "timestamp", "qos"} {
		if _, ok := obj.Get(k); !ok {
			t.Fatalf("missing key %s", k)
		}
	}
}
