// Package message implements per-delivery message parsing and the
// composed message object used by JSONPath and expression evaluation.
package message

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/sinqtt-labs/tsbridge/internal/jsonpath"
	"github.com/sinqtt-labs/tsbridge/internal/jsonval"
)

// Base64Decoded holds the decoded bytes and their hex encoding for one
// configured base64 pre-decode target.
type Base64Decoded struct {
	Raw []byte
	Hex string
}

// Parsed is an immutable record produced once per inbound delivery.
type Parsed struct {
	Topic         []string
	Payload       jsonval.Value
	Timestamp     *int64
	QoS           int
	Base64Decoded map[string]Base64Decoded
}

// Base64Config names a value-spec to read a base64 string from and a
// target name to store its decoding under.
type Base64Config struct {
	Source string
	Target string
}

// Parse decodes a raw broker delivery into a Parsed message: UTF-8 lossy
// decode, then JSON parse with string fallback, per §3's decoding policy.
func Parse(topic string, payload []byte, qos int, b64 *Base64Config) Parsed {
	msg := Parsed{
		Topic: strings.Split(topic, "/"),
		QoS:   qos,
	}

	text := toUTF8Lossy(payload)
	if text == "" {
		msg.Payload = jsonval.Null()
	} else if v, err := jsonval.Decode([]byte(text)); err == nil {
		msg.Payload = v
	} else {
		msg.Payload = jsonval.String(text)
	}

	if b64 != nil {
		if decoded, ok := decodeBase64(msg, *b64); ok {
			msg.Base64Decoded = map[string]Base64Decoded{b64.Target: decoded}
		}
	}

	return msg
}

func toUTF8Lossy(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	var b strings.Builder
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteRune(utf8.RuneError)
			i++
			continue
		}
		b.WriteRune(r)
		i += size
	}
	return b.String()
}

func decodeBase64(msg Parsed, cfg Base64Config) (Base64Decoded, bool) {
	obj := Compose(msg)
	v, ok := jsonpath.Extract(obj, cfg.Source)
	if !ok || v.Kind != jsonval.KindString {
		return Base64Decoded{}, false
	}
	raw, err := base64.StdEncoding.DecodeString(v.S)
	if err != nil {
		return Base64Decoded{}, false
	}
	return Base64Decoded{Raw: raw, Hex: hex.EncodeToString(raw)}, true
}

// Compose builds the JSON object representation of msg used for
// JSONPath/expression evaluation. base64decoded.<target>.raw renders as
// a JSON array of byte values, matching how the bridge this was modeled
// on serializes a raw byte buffer.
func Compose(msg Parsed) jsonval.Value {
	topic := make([]jsonval.Value, len(msg.Topic))
	for i, seg := range msg.Topic {
		topic[i] = jsonval.String(seg)
	}

	obj := map[string]jsonval.Value{
		"topic":   jsonval.Array(topic),
		"payload": msg.Payload,
		"qos":     jsonval.Int(int64(msg.QoS)),
	}
	if msg.Timestamp != nil {
		obj["timestamp"] = jsonval.Int(*msg.Timestamp)
	} else {
		obj["timestamp"] = jsonval.Null()
	}

	if len(msg.Base64Decoded) > 0 {
		decodedObj := make(map[string]jsonval.Value, len(msg.Base64Decoded))
		for target, d := range msg.Base64Decoded {
			decodedObj[target] = jsonval.Object(map[string]jsonval.Value{
				"raw": jsonval.BytesToByteArray(d.Raw),
				"hex": jsonval.String(d.Hex),
			})
		}
		obj["base64decoded"] = jsonval.Object(decodedObj)
	}

	return jsonval.Object(obj)
}
