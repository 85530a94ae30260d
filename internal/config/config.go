package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	OutputBucket string
	CatalogFile  string

	AWSRegion        string
	S3Endpoint       string
	S3ForcePathStyle bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Completion notification sinks. Each is enabled by setting its broker.
	KafkaBrokers []string
	KafkaTopic   string

	MQTTBroker   string
	MQTTPort     int
	MQTTTopic    string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mqttPort, err := parseMQTTPort()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		OutputBucket: os.Getenv("OUTPUT_BUCKET"),
		CatalogFile:  os.Getenv("CATALOG_FILE"),

		AWSRegion:        envOrDefault("AWS_REGION", "us-west-2"),
		S3Endpoint:       os.Getenv("S3_ENDPOINT"),
		S3ForcePathStyle: os.Getenv("S3_FORCE_PATH_STYLE") == "true",

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers: parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "usage-csv-completions"),

		MQTTBroker:   os.Getenv("MQTT_BROKER"),
		MQTTPort:     mqttPort,
		MQTTTopic:    envOrDefault("MQTT_TOPIC", "usagecsv/completions"),
		MQTTClientID: envOrDefault("MQTT_CLIENT_ID", "usagecsv"),
		MQTTUsername: os.Getenv("MQTT_USERNAME"),
		MQTTPassword: os.Getenv("MQTT_PASSWORD"),
	}

	if cfg.OutputBucket == "" {
		return nil, errors.New("OUTPUT_BUCKET is required")
	}

	return cfg, nil
}

// KafkaEnabled reports whether completion events go to Kafka.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// MQTTEnabled reports whether completion events go to MQTT.
func (c *Config) MQTTEnabled() bool { return c.MQTTBroker != "" }

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseBrokers splits a comma-separated broker list, dropping empty entries.
func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseShutdownTimeout() (time.Duration, error) {
	s := envOrDefault("SHUTDOWN_TIMEOUT", "10s")
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid SHUTDOWN_TIMEOUT %q", s)
	}
	return d, nil
}

func parseMQTTPort() (int, error) {
	s := envOrDefault("MQTT_PORT", "1883")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 65535 {
		return 0, fmt.Errorf("invalid MQTT_PORT %q", s)
	}
	return n, nil
}
