// Package dispatch implements the bridge's two long-lived tasks: the
// broker task enqueuing deliveries onto a bounded channel, and the
// dispatch task draining it and running §4.9's per-point pipeline
// sequentially, with no intra-message parallelism.
package dispatch

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/sinqtt-labs/tsbridge/internal/broker"
	"github.com/sinqtt-labs/tsbridge/internal/coerce"
	"github.com/sinqtt-labs/tsbridge/internal/config"
	"github.com/sinqtt-labs/tsbridge/internal/cronguard"
	"github.com/sinqtt-labs/tsbridge/internal/exprlang"
	"github.com/sinqtt-labs/tsbridge/internal/jsonval"
	"github.com/sinqtt-labs/tsbridge/internal/lineproto"
	"github.com/sinqtt-labs/tsbridge/internal/message"
	"github.com/sinqtt-labs/tsbridge/internal/schemaguard"
	"github.com/sinqtt-labs/tsbridge/internal/topicmatch"
)

// Writer is the subset of writer.Writer the dispatch loop calls.
type Writer interface {
	WritePoint(ctx context.Context, p *lineproto.Point, bucket string) error
}

// Forwarder is the subset of forwarder.Forwarder the dispatch loop calls.
type Forwarder interface {
	ForwardJSON(ctx context.Context, data interface{}) error
}

// Loop wires a broker subscriber, the configured point specs, a writer,
// an optional forwarder, and an optional schema guard into the
// dispatch pipeline.
type Loop struct {
	Sub       broker.Subscriber
	Points    []config.PointConfig
	Base64    *message.Base64Config
	Writer    Writer
	Forwarder Forwarder
	Log       zerolog.Logger
	NowNanos  func() int64
	Now       func() time.Time

	guards map[string]*schemaguard.Guard
}

// guardFor returns the cached schema guard for a point's schema
// reference, building and caching it on first use.
func (l *Loop) guardFor(schema string) *schemaguard.Guard {
	if schema == "" {
		return nil
	}
	if l.guards == nil {
		l.guards = map[string]*schemaguard.Guard{}
	}
	if g, ok := l.guards[schema]; ok {
		return g
	}
	g := schemaguard.New(schema)
	l.guards[schema] = g
	return g
}

func defaultNowNanos() int64 {
	ns := time.Now().UnixNano()
	if ns < 0 {
		return 0
	}
	return ns
}

// Topics returns the sorted, deduplicated set of topic patterns the
// configured points bind to, suitable for broker.Subscribe.
func Topics(points []config.PointConfig) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range points {
		if !seen[p.Topic] {
			seen[p.Topic] = true
			out = append(out, p.Topic)
		}
	}
	sort.Strings(out)
	return out
}

// Run starts the broker task and drives the dispatch task until ctx is
// canceled. It returns when the broker's delivery channel closes or ctx
// is done.
func (l *Loop) Run(ctx context.Context) error {
	if l.NowNanos == nil {
		l.NowNanos = defaultNowNanos
	}
	if l.Now == nil {
		l.Now = time.Now
	}

	if err := l.Sub.Connect(ctx); err != nil {
		return err
	}
	if err := l.Sub.Subscribe(ctx, Topics(l.Points)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-l.Sub.Deliveries():
			if !ok {
				return nil
			}
			l.handleDelivery(ctx, delivery)
		}
	}
}

func (l *Loop) handleDelivery(ctx context.Context, d broker.Delivery) {
	msg := message.Parse(d.Topic, d.Payload, d.QoS, l.Base64)

	for i, pc := range l.Points {
		if !topicmatch.Matches(pc.Topic, d.Topic) {
			continue
		}
		if guard := l.guardFor(pc.Schema); guard != nil {
			if err := guard.Validate(string(d.Payload)); err != nil {
				l.Log.Warn().Err(err).Int("point", i).Msg("payload failed schema validation, skipping point")
				continue
			}
		}
		if pc.Schedule != "" && !cronguard.Matches(pc.Schedule, l.Now()) {
			l.Log.Debug().Str("schedule", pc.Schedule).Msg("schedule gate closed, skipping point")
			continue
		}
		l.processPoint(ctx, i, pc, msg)
	}
}

func (l *Loop) processPoint(ctx context.Context, idx int, pc config.PointConfig, msg message.Parsed) {
	obj := message.Compose(msg)

	measurement, ok, err := exprlang.Eval(pc.Measurement, obj)
	if err != nil {
		l.Log.Debug().Err(err).Int("point", idx).Msg("measurement evaluation error")
	}
	if !ok {
		l.Log.Warn().Int("point", idx).Msg("measurement absent, skipping point")
		return
	}
	measurementText := toText(measurement)

	point := lineproto.New(measurementText)

	for name, spec := range pc.Tags {
		v, ok, err := exprlang.Eval(spec, obj)
		if err != nil {
			l.Log.Debug().Err(err).Str("tag", name).Msg("tag evaluation error")
			continue
		}
		if !ok {
			continue
		}
		text := toText(v)
		if text != "" {
			point.Tag(name, text)
		}
	}

	fieldCount := 0
	for name, spec := range pc.Fields {
		fv, ok := l.evalField(spec, obj, name)
		if !ok {
			continue
		}
		point.Field(name, fv)
		fieldCount++
	}
	if fieldCount == 0 {
		l.Log.Warn().Int("point", idx).Msg("no fields extracted, skipping point")
		return
	}

	point.WithTimestamp(l.NowNanos())

	if l.Writer != nil {
		if err := l.Writer.WritePoint(ctx, point, pc.Bucket); err != nil {
			l.Log.Error().Err(err).Str("measurement", measurementText).Msg("write failed")
		}
	}

	if l.Forwarder != nil && len(pc.HTTPContent) > 0 {
		content := map[string]string{}
		for name, spec := range pc.HTTPContent {
			v, ok, err := exprlang.Eval(spec, obj)
			if err != nil || !ok {
				continue
			}
			content[name] = httpContentString(v)
		}
		if len(content) > 0 {
			if err := l.Forwarder.ForwardJSON(ctx, content); err != nil {
				l.Log.Error().Err(err).Msg("HTTP forward failed")
			}
		}
	}
}

func (l *Loop) evalField(spec config.FieldSpec, obj jsonval.Value, name string) (lineproto.FieldValue, bool) {
	v, ok, err := exprlang.Eval(spec.Value, obj)
	if err != nil {
		l.Log.Debug().Err(err).Str("field", name).Msg("field evaluation error")
	}
	if !ok {
		return lineproto.FieldValue{}, false
	}
	if spec.Type != "" {
		coerced, ok := coerce.Apply(spec.Type, v)
		if !ok {
			return lineproto.FieldValue{}, false
		}
		v = coerced
	}
	return toFieldValue(v)
}

func toFieldValue(v jsonval.Value) (lineproto.FieldValue, bool) {
	switch v.Kind {
	case jsonval.KindFloat:
		return lineproto.Float(v.F), true
	case jsonval.KindInt:
		return lineproto.Int(v.I), true
	case jsonval.KindUInt:
		return lineproto.UInt(v.U), true
	case jsonval.KindBool:
		return lineproto.Bool(v.B), true
	case jsonval.KindString:
		return lineproto.String(v.S), true
	default:
		return lineproto.FieldValue{}, false
	}
}

func toText(v jsonval.Value) string {
	if v.Kind == jsonval.KindString {
		return v.S
	}
	return v.JSON()
}

// httpContentString stringifies a value for the httpcontent map: string
// values pass through, bool/number render as their literal text, null
// becomes empty, and composites render as JSON text.
func httpContentString(v jsonval.Value) string {
	switch v.Kind {
	case jsonval.KindString:
		return v.S
	case jsonval.KindNull:
		return ""
	default:
		bs, _ := json.Marshal(v)
		return string(bs)
	}
}

