package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validConfigYAML = `
mqtt:
  host: broker.example.com
  port: 1883
influxdb:
  host: influx.example.com
  token: secret-token
  org: myorg
  bucket: mybucket
points:
  - measurement: temperature
    topic: sensors/+/temp
    fields:
      value: "$.payload.value"
`

func TestLoadValidConfig(t *testing.T) {
	path := writeTempConfig(t, validConfigYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MQTT.Host != "broker.example.com" {
		t.Fatalf("got %+v", cfg.MQTT)
	}
	if cfg.InfluxDB.Port != defaultInfluxDBPort {
		t.Fatalf("expected default influxdb port, got %d", cfg.InfluxDB.Port)
	}
	if len(cfg.Points) != 1 || cfg.Points[0].Fields["value"].Value != "$.payload.value" {
		t.Fatalf("got %+v", cfg.Points)
	}
}

func TestLoadEmptyFileFails(t *testing.T) {
	path := writeTempConfig(t, "   \n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for empty config")
	}
}

func TestLoadExpandsEnvVarsWithDefault(t *testing.T) {
	content := `
mqtt:
  host: ${BRIDGE_HOST:default-host}
  port: 1883
influxdb:
  host: influx.example.com
  token: secret
  org: o
  bucket: b
points:
  - measurement: m
    topic: t
    fields:
      v: "1"
`
	path := writeTempConfig(t, content)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MQTT.Host != "default-host" {
		t.Fatalf("got %q", cfg.MQTT.Host)
	}
}

func TestLoadMissingEnvVarWithoutDefaultFails(t *testing.T) {
	content := `
mqtt:
  host: ${DEFINITELY_UNSET_VAR}
  port: 1883
influxdb:
  host: influx.example.com
  token: secret
  org: o
  bucket: b
points:
  - measurement: m
    topic: t
    fields:
      v: "1"
`
	path := writeTempConfig(t, content)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing env var")
	}
}

func TestLoadTypedFieldSpec(t *testing.T) {
	content := `
mqtt:
  host: h
  port: 1883
influxdb:
  host: h
  token: t
  org: o
  bucket: b
points:
  - measurement: m
    topic: t
    fields:
      v:
        value: "$.payload.value"
        type: float
`
	path := writeTempConfig(t, content)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	f := cfg.Points[0].Fields["v"]
	if f.Value != "$.payload.value" || f.Type != "float" {
		t.Fatalf("got %+v", f)
	}
}

func TestValidateRejectsEmptyHost(t *testing.T) {
	cfg := &Config{
		MQTT:     MQTTConfig{Host: ""},
		InfluxDB: InfluxDBConfig{Host: "h", Token: "t", Org: "o", Bucket: "b"},
		Points:   []PointConfig{{Measurement: "m", Topic: "t", Fields: map[string]FieldSpec{"v": {Value: "1"}}}},
	}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestValidateRejectsZeroPoints(t *testing.T) {
	cfg := &Config{
		MQTT:     MQTTConfig{Host: "h"},
		InfluxDB: InfluxDBConfig{Host: "h", Token: "t", Org: "o", Bucket: "b"},
	}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestValidateRejectsInvalidCronSchedule(t *testing.T) {
	cfg := &Config{
		MQTT:     MQTTConfig{Host: "h"},
		InfluxDB: InfluxDBConfig{Host: "h", Token: "t", Org: "o", Bucket: "b"},
		Points: []PointConfig{{
			Measurement: "m", Topic: "t", Schedule: "not a cron",
			Fields: map[string]FieldSpec{"v": {Value: "1"}},
		}},
	}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestValidateKinesisSourceSkipsMQTTHostCheck(t *testing.T) {
	cfg := &Config{
		Source:   SourceKinesis,
		Kinesis:  &KinesisConfig{StreamName: "my-stream"},
		InfluxDB: InfluxDBConfig{Host: "h", Token: "t", Org: "o", Bucket: "b"},
		Points:   []PointConfig{{Measurement: "m", Topic: "t", Fields: map[string]FieldSpec{"v": {Value: "1"}}}},
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected kinesis source to validate without MQTT host, got %v", err)
	}
}

func TestValidateRejectsKinesisSourceWithoutStreamName(t *testing.T) {
	cfg := &Config{
		Source:   SourceKinesis,
		InfluxDB: InfluxDBConfig{Host: "h", Token: "t", Org: "o", Bucket: "b"},
		Points:   []PointConfig{{Measurement: "m", Topic: "t", Fields: map[string]FieldSpec{"v": {Value: "1"}}}},
	}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for missing kinesis stream name")
	}
}
