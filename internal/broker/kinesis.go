// Kinesis-backed Subscriber: an alternate pub/sub transport behind the
// same interface MQTT satisfies, for deployments that read from a
// Kinesis stream instead of an MQTT broker. Kinesis has no topic tree,
// so every delivery carries the configured stream name as its Topic.
package broker

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/kinesis"
	consumer "github.com/harlow/kinesis-consumer"

	"github.com/sinqtt-labs/tsbridge/internal/bridgeerr"
)

// KinesisConfig configures a Kinesis-backed Subscriber.
type KinesisConfig struct {
	StreamName string
	Region     string
}

// KinesisSubscriber reads records from a single Kinesis stream and
// republishes them as deliveries, tagging each with the stream name as
// its topic so the existing topic-matcher-based point specs still
// apply unmodified.
type KinesisSubscriber struct {
	cfg        KinesisConfig
	client     *kinesis.Kinesis
	consumer   *consumer.Consumer
	deliveries chan Delivery
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

func NewKinesisSubscriber(cfg KinesisConfig) *KinesisSubscriber {
	return &KinesisSubscriber{
		cfg:        cfg,
		deliveries: make(chan Delivery, 100),
	}
}

func (s *KinesisSubscriber) Connect(ctx context.Context) error {
	awsCfg := aws.NewConfig()
	if s.cfg.Region != "" {
		awsCfg = awsCfg.WithRegion(s.cfg.Region)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return bridgeerr.Wrap(bridgeerr.CategoryBroker, "creating AWS session", err)
	}
	s.client = kinesis.New(sess)

	c, err := consumer.New(s.cfg.StreamName, consumer.WithClient(s.client))
	if err != nil {
		return bridgeerr.Wrap(bridgeerr.CategoryBroker, "creating kinesis consumer", err)
	}
	s.consumer = c
	return nil
}

// Subscribe ignores its topics argument: a Kinesis stream has no
// topic-level subscription concept, only a single always-on scan.
func (s *KinesisSubscriber) Subscribe(ctx context.Context, _ []string) error {
	scanCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.consumer.Scan(scanCtx, func(r *consumer.Record) error {
			delivery := Delivery{Topic: s.cfg.StreamName, Payload: r.Data, QoS: 0}
			select {
			case s.deliveries <- delivery:
			case <-scanCtx.Done():
			}
			return nil
		})
	}()
	return nil
}

func (s *KinesisSubscriber) Deliveries() <-chan Delivery {
	return s.deliveries
}

func (s *KinesisSubscriber) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	close(s.deliveries)
	return nil
}
