package config

import (
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	mu sync.Mutex `yaml:"-"`

	VendorID     string `yaml:"vendor_id"`
	VendorName   string `yaml:"vendor_name"`
	DatabasePath string `yaml:"database_path"`

	Marketplace MarketplaceConfig `yaml:"marketplace"`
	Alerting    AlertingConfig    `yaml:"alerting"`
	Lifecycle   LifecycleConfig   `yaml:"lifecycle"`
	Web         WebConfig         `yaml:"web"`
	Messaging   MessagingConfig   `yaml:"messaging"`
}

// MarketplaceConfig defines the vendor API connection.
type MarketplaceConfig struct {
	URL           string        `yaml:"url"            json:"url"`
	Token         string        `yaml:"token"          json:"-"`
	PollInterval  time.Duration `yaml:"poll_interval"  json:"poll_interval"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout"  json:"fetch_timeout"`
	ActionTimeout time.Duration `yaml:"action_timeout" json:"action_timeout"`
}

// AlertingConfig defines local alert behavior.
type AlertingConfig struct {
	SinkMode string `yaml:"sink_mode"` // "none" or "log"
}

// LifecycleConfig defines suspend/resume detection.
type LifecycleConfig struct {
	SampleInterval  time.Duration `yaml:"sample_interval"`
	ResumeThreshold time.Duration `yaml:"resume_threshold"`
}

// WebConfig defines the operator console server settings.
type WebConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	SessionSecret string `yaml:"session_secret"`
}

// MessagingConfig defines the audit messaging backend.
type MessagingConfig struct {
	Backend             string        `yaml:"backend"` // "mqtt" or "kafka"
	MQTT                MQTTConfig    `yaml:"mqtt"`
	Kafka               KafkaConfig   `yaml:"kafka"`
	AuditTopic          string        `yaml:"audit_topic"`
	OutboxDrainInterval time.Duration `yaml:"outbox_drain_interval"`
	NodeID              string        `yaml:"node_id"`
}

// MQTTConfig defines MQTT broker settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
}

// KafkaConfig defines Kafka broker settings.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		VendorID:     "vendor-1",
		VendorName:   "Vendor Terminal",
		DatabasePath: "vendoredge.db",
		Marketplace: MarketplaceConfig{
			URL:           "http://localhost:8080/api/v1",
			PollInterval:  15 * time.Second,
			FetchTimeout:  10 * time.Second,
			ActionTimeout: 10 * time.Second,
		},
		Alerting: AlertingConfig{
			SinkMode: "log",
		},
		Lifecycle: LifecycleConfig{
			SampleInterval:  5 * time.Second,
			ResumeThreshold: 15 * time.Second,
		},
		Web: WebConfig{
			Host: "0.0.0.0",
			Port: 8082,
		},
		Messaging: MessagingConfig{
			Backend:             "mqtt",
			AuditTopic:          "vendoredge/decisions",
			OutboxDrainInterval: 5 * time.Second,
			MQTT: MQTTConfig{
				Broker: "localhost",
				Port:   1883,
			},
		},
	}
}

// Load reads a YAML config file. If the file doesn't exist, defaults are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to a YAML file.
func (c *Config) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// NodeID returns the configured node ID, or the vendor ID when unset.
func (c *Config) NodeID() string {
	if c.Messaging.NodeID != "" {
		return c.Messaging.NodeID
	}
	return c.VendorID
}

// Lock acquires the config mutex for multi-step mutations.
func (c *Config) Lock() { c.mu.Lock() }

// Unlock releases the config mutex.
func (c *Config) Unlock() { c.mu.Unlock() }
