// Package config implements configuration loading: YAML decoding with
// strict unknown-key rejection, ${VAR}/${VAR:default} environment
// expansion, and full validation of the decoded tree.
package config

import (
	"bytes"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sinqtt-labs/tsbridge/internal/bridgeerr"
)

// Config is the root configuration structure.
type Config struct {
	Source       string              `yaml:"source,omitempty"`
	MQTT         MQTTConfig          `yaml:"mqtt"`
	Kinesis      *KinesisConfig      `yaml:"kinesis,omitempty"`
	InfluxDB     InfluxDBConfig      `yaml:"influxdb"`
	HTTP         *HTTPConfig         `yaml:"http,omitempty"`
	Base64Decode *Base64DecodeConfig `yaml:"base64decode,omitempty"`
	Points       []PointConfig       `yaml:"points"`
}

// SourceKinesis selects the Kinesis broker transport; any other (or
// empty) Source value keeps the default MQTT transport.
const SourceKinesis = "kinesis"

type MQTTConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	CAFile   string `yaml:"cafile,omitempty"`
	CertFile string `yaml:"certfile,omitempty"`
	KeyFile  string `yaml:"keyfile,omitempty"`
}

const defaultInfluxDBPort = 8181

type InfluxDBConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Token      string `yaml:"token"`
	Org        string `yaml:"org"`
	Bucket     string `yaml:"bucket"`
	EnableGzip bool   `yaml:"enable_gzip,omitempty"`
}

type HTTPConfig struct {
	Destination string `yaml:"destination"`
	Action      string `yaml:"action"`
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
}

type Base64DecodeConfig struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

type KinesisConfig struct {
	StreamName string `yaml:"stream_name"`
	Region     string `yaml:"region,omitempty"`
}

type PointConfig struct {
	Measurement string               `yaml:"measurement"`
	Topic       string               `yaml:"topic"`
	Bucket      string               `yaml:"bucket,omitempty"`
	Schedule    string               `yaml:"schedule,omitempty"`
	Schema      string               `yaml:"schema,omitempty"`
	Fields      map[string]FieldSpec `yaml:"fields"`
	Tags        map[string]string    `yaml:"tags,omitempty"`
	HTTPContent map[string]string    `yaml:"httpcontent,omitempty"`
}

// FieldSpec is either a bare value-spec string or a typed
// {value, type} mapping. yaml.v3 decodes into whichever shape the node
// actually has, mirroring the original's untagged enum.
type FieldSpec struct {
	Value string
	Type  string
}

func (f *FieldSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		f.Value = node.Value
		return nil
	}
	var typed struct {
		Value string `yaml:"value"`
		Type  string `yaml:"type,omitempty"`
	}
	if err := node.Decode(&typed); err != nil {
		return err
	}
	f.Value = typed.Value
	f.Type = typed.Type
	return nil
}

func (f FieldSpec) MarshalYAML() (interface{}, error) {
	if f.Type == "" {
		return f.Value, nil
	}
	return struct {
		Value string `yaml:"value"`
		Type  string `yaml:"type"`
	}{f.Value, f.Type}, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// Load reads, env-expands, decodes, and validates the configuration file
// at path.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.CategoryConfig, "reading config file", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(content, &root); err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.CategoryConfig, "parsing YAML", err)
	}
	if len(root.Content) == 0 {
		return nil, bridgeerr.Configf("empty configuration file")
	}

	expanded, err := expandEnvNode(root.Content[0])
	if err != nil {
		return nil, err
	}

	expandedYAML, err := yaml.Marshal(expanded)
	if err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.CategoryConfig, "re-encoding expanded configuration", err)
	}

	var cfg Config
	strict := yaml.NewDecoder(bytes.NewReader(expandedYAML))
	strict.KnownFields(true)
	if err := strict.Decode(&cfg); err != nil {
		return nil, bridgeerr.Wrap(bridgeerr.CategoryConfig, "decoding configuration", err)
	}
	if cfg.InfluxDB.Port == 0 {
		cfg.InfluxDB.Port = defaultInfluxDBPort
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func expandEnvNode(node *yaml.Node) (*yaml.Node, error) {
	out := *node
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!str" || node.Tag == "" {
			expanded, err := expandEnvVars(node.Value)
			if err != nil {
				return nil, err
			}
			out.Value = expanded
		}
	case yaml.MappingNode, yaml.SequenceNode, yaml.DocumentNode:
		children := make([]*yaml.Node, len(node.Content))
		for i, c := range node.Content {
			expanded, err := expandEnvNode(c)
			if err != nil {
				return nil, err
			}
			children[i] = expanded
		}
		out.Content = children
	}
	return &out, nil
}

func expandEnvVars(input string) (string, error) {
	var firstErr error
	matches := envVarPattern.FindAllStringSubmatchIndex(input, -1)
	if matches == nil {
		return input, nil
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(input[last:m[0]])
		last = m[1]

		name := input[m[2]:m[3]]
		hasDefault := m[4] >= 0
		if v, ok := os.LookupEnv(name); ok {
			b.WriteString(v)
			continue
		}
		if hasDefault {
			b.WriteString(input[m[4]:m[5]])
			continue
		}
		if firstErr == nil {
			firstErr = bridgeerr.Configf("environment variable %q is not set", name)
		}
	}
	b.WriteString(input[last:])

	if firstErr != nil {
		return "", firstErr
	}
	return b.String(), nil
}
