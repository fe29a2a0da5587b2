// Package writer implements the time-series line-protocol HTTP writer:
// single and bulk point writes against the ingestion endpoint, bearer
// token auth, and optional gzip-compressed bodies.
package writer

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/sinqtt-labs/tsbridge/internal/bridgeerr"
	"github.com/sinqtt-labs/tsbridge/internal/lineproto"
)

// Config configures a Writer.
type Config struct {
	Host          string
	Port          int
	Token         string
	Org           string
	DefaultBucket string
	EnableGzip    bool
}

// Writer writes points to the ingestion endpoint over HTTP.
type Writer struct {
	client *http.Client
	cfg    Config
}

func New(cfg Config) *Writer {
	return &Writer{client: &http.Client{}, cfg: cfg}
}

// WritePoint renders and sends a single point. bucket overrides the
// writer's default bucket when non-empty.
func (w *Writer) WritePoint(ctx context.Context, p *lineproto.Point, bucket string) error {
	if !p.HasFields() {
		return bridgeerr.Ingestionf("point %q has no fields, refusing to write", p.Measurement)
	}
	return w.send(ctx, p.Render(), bucket)
}

// WritePoints renders and sends several points as one batched body; an
// empty slice is a no-op success.
func (w *Writer) WritePoints(ctx context.Context, points []*lineproto.Point, bucket string) error {
	if len(points) == 0 {
		return nil
	}
	return w.send(ctx, lineproto.RenderBatch(points), bucket)
}

func (w *Writer) send(ctx context.Context, line string, bucket string) error {
	if bucket == "" {
		bucket = w.cfg.DefaultBucket
	}
	url := fmt.Sprintf("%s:%d/api/v2/write?org=%s&bucket=%s&precision=ns", w.cfg.Host, w.cfg.Port, w.cfg.Org, bucket)

	body := []byte(line)
	contentEncoding := ""
	if w.cfg.EnableGzip {
		compressed, err := gzipCompress(body)
		if err != nil {
			return bridgeerr.Wrap(bridgeerr.CategoryIngestion, "gzip compressing body", err)
		}
		body = compressed
		contentEncoding = "gzip"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return bridgeerr.Wrap(bridgeerr.CategoryIngestion, "building write request", err)
	}
	req.Header.Set("Authorization", "Token "+w.cfg.Token)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if contentEncoding != "" {
		req.Header.Set("Content-Encoding", contentEncoding)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return bridgeerr.Wrap(bridgeerr.CategoryIngestion, "sending write request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	respBody, _ := io.ReadAll(resp.Body)
	return bridgeerr.Ingestionf("write to %s failed: %d - %s", url, resp.StatusCode, respBody)
}

func gzipCompress(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(body); err != nil {
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
