package broker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/sinqtt-labs/tsbridge/internal/bridgeerr"
)

// MQTTConfig configures an MQTT-backed Subscriber.
type MQTTConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	CAFile   string
	CertFile string
	KeyFile  string
	ClientID string
	QoS      byte
}

// MQTTSubscriber subscribes to one or more topic filters on a single
// broker connection and republishes deliveries on a single channel.
type MQTTSubscriber struct {
	cfg        MQTTConfig
	client     mqtt.Client
	deliveries chan Delivery
}

func NewMQTTSubscriber(cfg MQTTConfig) *MQTTSubscriber {
	if cfg.ClientID == "" {
		cfg.ClientID = "tsbridge"
	}
	return &MQTTSubscriber{
		cfg:        cfg,
		deliveries: make(chan Delivery, 100),
	}
}

func (s *MQTTSubscriber) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", s.cfg.Host, s.cfg.Port))
	opts.SetClientID(s.cfg.ClientID)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetAutoReconnect(true)

	if s.cfg.Username != "" {
		opts.SetUsername(s.cfg.Username)
		opts.SetPassword(s.cfg.Password)
	}

	if s.cfg.CAFile != "" || s.cfg.CertFile != "" {
		tlsConfig, err := buildTLSConfig(s.cfg)
		if err != nil {
			return err
		}
		opts.SetTLSConfig(tlsConfig)
	}

	s.client = mqtt.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(30 * time.Second) {
		return bridgeerr.Brokerf("connect timed out")
	}
	if err := token.Error(); err != nil {
		return bridgeerr.Wrap(bridgeerr.CategoryBroker, "connecting", err)
	}
	return nil
}

func buildTLSConfig(cfg MQTTConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{}

	if cfg.CAFile != "" {
		pem, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, bridgeerr.Wrap(bridgeerr.CategoryBroker, "reading CA file", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, bridgeerr.Brokerf("no certificates found in %s", cfg.CAFile)
		}
		tlsConfig.RootCAs = pool
	}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, bridgeerr.Wrap(bridgeerr.CategoryBroker, "loading client certificate", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

func (s *MQTTSubscriber) Subscribe(ctx context.Context, topics []string) error {
	for _, topic := range topics {
		t := topic
		token := s.client.Subscribe(t, s.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
			delivery := Delivery{Topic: msg.Topic(), Payload: msg.Payload(), QoS: int(msg.Qos())}
			select {
			case s.deliveries <- delivery:
			case <-ctx.Done():
			}
		})
		if !token.WaitTimeout(10 * time.Second) {
			return bridgeerr.Brokerf("subscribe to %s timed out", t)
		}
		if err := token.Error(); err != nil {
			return bridgeerr.Wrap(bridgeerr.CategoryBroker, fmt.Sprintf("subscribing to %s", t), err)
		}
	}
	return nil
}

func (s *MQTTSubscriber) Deliveries() <-chan Delivery {
	return s.deliveries
}

func (s *MQTTSubscriber) Close() error {
	if s.client != nil && s.client.IsConnected() {
		s.client.Disconnect(250)
	}
	close(s.deliveries)
	return nil
}
