package config

import (
	"os"
	"strings"

	"github.com/sinqtt-labs/tsbridge/internal/bridgeerr"
	"github.com/sinqtt-labs/tsbridge/internal/cronguard"
	"github.com/sinqtt-labs/tsbridge/internal/jsonpath"
)

// Validate checks the decoded configuration against every rule in the
// data model: non-empty hosts/tokens, at least one point with at least
// one field, JSONPath sanity in measurements, cron sanity in schedules,
// and TLS file existence.
func Validate(cfg *Config) error {
	if cfg.Source == SourceKinesis {
		if cfg.Kinesis == nil || cfg.Kinesis.StreamName == "" {
			return bridgeerr.Configf("kinesis.stream_name cannot be empty when source is kinesis")
		}
	} else if cfg.MQTT.Host == "" {
		return bridgeerr.Configf("MQTT host cannot be empty")
	}
	if cfg.InfluxDB.Host == "" {
		return bridgeerr.Configf("InfluxDB host cannot be empty")
	}
	if cfg.InfluxDB.Token == "" {
		return bridgeerr.Configf("InfluxDB token cannot be empty")
	}
	if cfg.InfluxDB.Org == "" {
		return bridgeerr.Configf("InfluxDB org cannot be empty")
	}
	if cfg.InfluxDB.Bucket == "" {
		return bridgeerr.Configf("InfluxDB bucket cannot be empty")
	}

	if len(cfg.Points) == 0 {
		return bridgeerr.Configf("at least one point must be configured")
	}

	for i, p := range cfg.Points {
		if p.Measurement == "" {
			return bridgeerr.Configf("point %d measurement cannot be empty", i)
		}
		if strings.Contains(p.Measurement, "$.") {
			if err := validateJSONPath(p.Measurement); err != nil {
				return err
			}
		}
		if p.Topic == "" {
			return bridgeerr.Configf("point %d topic cannot be empty", i)
		}
		if len(p.Fields) == 0 {
			return bridgeerr.Configf("point %d must have at least one field", i)
		}
		if p.Schedule != "" {
			if _, ok := cronguard.Parse(p.Schedule); !ok {
				return bridgeerr.Configf("point %d has an invalid cron schedule: %q", i, p.Schedule)
			}
		}
	}

	if cfg.MQTT.CAFile != "" {
		if err := requireFileExists(cfg.MQTT.CAFile); err != nil {
			return err
		}
	}
	if cfg.MQTT.CertFile != "" {
		if err := requireFileExists(cfg.MQTT.CertFile); err != nil {
			return err
		}
	}
	if cfg.MQTT.KeyFile != "" {
		if err := requireFileExists(cfg.MQTT.KeyFile); err != nil {
			return err
		}
	}

	return nil
}

// validateJSONPath rejects a measurement whose embedded JSONPath parses
// to zero segments (malformed root, empty path, or otherwise
// unparseable); resolution to "absent" for a well-formed but
// non-matching path still happens lazily at extraction time.
func validateJSONPath(measurement string) error {
	if len(jsonpath.Parse(measurement)) == 0 {
		return bridgeerr.Configf("invalid JSONPath in measurement: %q", measurement)
	}
	return nil
}

func requireFileExists(path string) error {
	if _, err := os.Stat(path); err != nil {
		return bridgeerr.Configf("file not found: %s", path)
	}
	return nil
}
