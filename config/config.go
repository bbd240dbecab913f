package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	TrackDesk TrackDeskConfig `yaml:"trackdesk"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) ConnString() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.Username, d.Password, d.Host, d.Port, d.DBName, sslMode)
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type KafkaConfig struct {
	Host                     string `yaml:"host"`
	Port                     int    `yaml:"port"`
	TrackingChangedTopicName string `yaml:"tracking_changed_topic_name"`
	CarrierScansTopicName    string `yaml:"carrier_scans_topic_name"`
}

// Enabled reports whether a broker is configured at all.
func (k KafkaConfig) Enabled() bool {
	return k.Host != ""
}

func (k KafkaConfig) Brokers() []string {
	return []string{fmt.Sprintf("%s:%d", k.Host, k.Port)}
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type TrackDeskConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	// memory | postgres | sqlite
	Storage      string `yaml:"storage"`
	SeedDemoData bool   `yaml:"seed_demo_data"`

	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`

	PublicLookupRateLimitPerMinute int `yaml:"public_lookup_rate_limit_per_minute"`

	// Включать только за reverse proxy, который сам выставляет X-Forwarded-For.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`

	// IANA-зона для отображаемых дат и границы месяца в статистике.
	Timezone string `yaml:"timezone"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}
