// Command tsbridge runs the broker-to-time-series bridge: subscribe to a
// configured topic tree, transform inbound messages into points via a
// JSONPath+expression mini-language, and write them to a time-series
// backend, optionally forwarding a derived JSON object over HTTP.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/jsonschema"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sinqtt-labs/tsbridge/internal/broker"
	"github.com/sinqtt-labs/tsbridge/internal/config"
	"github.com/sinqtt-labs/tsbridge/internal/dispatch"
	"github.com/sinqtt-labs/tsbridge/internal/forwarder"
	"github.com/sinqtt-labs/tsbridge/internal/logx"
	"github.com/sinqtt-labs/tsbridge/internal/message"
	"github.com/sinqtt-labs/tsbridge/internal/writer"
)

const retryDelay = 30 * time.Second

func main() {
	var (
		configPath string
		debug      bool
		testOnly   bool
		daemon     bool
	)

	rootCmd := &cobra.Command{
		Use:           "tsbridge",
		Short:         "Broker-to-time-series bridge with JSONPath/expression transformation",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, debug, testOnly, daemon)
		},
	}
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to configuration file (YAML)")
	rootCmd.Flags().BoolVarP(&debug, "debug", "D", false, "enable debug logging")
	rootCmd.Flags().BoolVarP(&testOnly, "test", "t", false, "validate configuration without running")
	rootCmd.Flags().BoolVarP(&daemon, "daemon", "d", false, "daemon mode: retry on error instead of exiting")
	_ = rootCmd.MarkFlagRequired("config")

	rootCmd.AddCommand(schemaCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the configuration file's JSON Schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema := jsonschema.Reflect(&config.Config{})
			out, err := json.MarshalIndent(schema, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func run(configPath string, debug, testOnly, daemon bool) error {
	log := logx.New(logx.Config{Debug: debug, Format: logx.FormatPretty})

	log.Info().Str("path", configPath).Msg("loading configuration")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if testOnly {
		fmt.Println("Configuration file is valid.")
		return nil
	}

	log.Info().Int("points", len(cfg.Points)).Msg("configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("shutdown signal received, stopping")
		cancel()
	}()

	for {
		runErr := runBridge(ctx, cfg, log)
		if ctx.Err() != nil {
			log.Info().Msg("shutdown requested, exiting")
			return nil
		}
		if runErr == nil {
			return nil
		}
		if !daemon {
			return runErr
		}
		log.Error().Err(runErr).Dur("retry_in", retryDelay).Msg("bridge run failed, retrying")
		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			log.Info().Msg("shutdown requested during retry wait")
			return nil
		}
	}
}

func runBridge(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	sub := newSubscriber(cfg)

	tsWriter := writer.New(writer.Config{
		Host:          cfg.InfluxDB.Host,
		Port:          cfg.InfluxDB.Port,
		Token:         cfg.InfluxDB.Token,
		Org:           cfg.InfluxDB.Org,
		DefaultBucket: cfg.InfluxDB.Bucket,
		EnableGzip:    cfg.InfluxDB.EnableGzip,
	})

	var fwd *forwarder.Forwarder
	if cfg.HTTP != nil {
		fwd = forwarder.New(forwarder.Config{
			Destination: cfg.HTTP.Destination,
			Action:      forwarder.ParseAction(cfg.HTTP.Action),
			Username:    cfg.HTTP.Username,
			Password:    cfg.HTTP.Password,
		})
		log.Info().Str("destination", cfg.HTTP.Destination).Msg("HTTP forwarding enabled")
	}

	loop := &dispatch.Loop{
		Sub:    sub,
		Points: cfg.Points,
		Writer: tsWriter,
		Log:    log,
	}
	if cfg.Base64Decode != nil {
		loop.Base64 = &message.Base64Config{
			Source: cfg.Base64Decode.Source,
			Target: cfg.Base64Decode.Target,
		}
	}
	if fwd != nil {
		loop.Forwarder = fwd
	}

	defer sub.Close()
	return loop.Run(ctx)
}

func newSubscriber(cfg *config.Config) broker.Subscriber {
	if cfg.Source == config.SourceKinesis && cfg.Kinesis != nil {
		return broker.NewKinesisSubscriber(broker.KinesisConfig{
			StreamName: cfg.Kinesis.StreamName,
			Region:     cfg.Kinesis.Region,
		})
	}
	return broker.NewMQTTSubscriber(broker.MQTTConfig{
		Host:     cfg.MQTT.Host,
		Port:     cfg.MQTT.Port,
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
		CAFile:   cfg.MQTT.CAFile,
		CertFile: cfg.MQTT.CertFile,
		KeyFile:  cfg.MQTT.KeyFile,
	})
}
