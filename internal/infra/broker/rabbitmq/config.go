package rabbitmq

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the canonical RabbitMQ configuration consumed by every producer,
// consumer, and topology declaration in this module. It replaces the three
// parallel configuration shapes the teacher carried in
// internal/infra/{message,messaging,queue}/rabbitmq.
type Config struct {
	Enabled    bool             `mapstructure:"enabled"`
	Connection ConnectionConfig `mapstructure:"connection"`
	Exchanges  []ExchangeConfig `mapstructure:"exchanges"`
	Consumers  []ConsumerConfig `mapstructure:"consumers"`
}

type ConnectionConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	ConnectionName string `mapstructure:"connection_name"`
}

type ExchangeConfig struct {
	Name       string `mapstructure:"name"`
	Type       string `mapstructure:"type"` // direct, topic, fanout, headers
	Durable    bool   `mapstructure:"durable"`
	AutoDelete bool   `mapstructure:"auto_delete"`
	Internal   bool   `mapstructure:"internal"`
	NoWait     bool   `mapstructure:"no_wait"`
}

type QueueConfig struct {
	Name       string `mapstructure:"name"`
	Durable    bool   `mapstructure:"durable"`
	AutoDelete bool   `mapstructure:"auto_delete"`
	Exclusive  bool   `mapstructure:"exclusive"`
	NoWait     bool   `mapstructure:"no_wait"`
}

type ConsumerConfig struct {
	Name           string      `mapstructure:"name"`
	Enabled        bool        `mapstructure:"enabled"`
	Queue          QueueConfig `mapstructure:"queue"`
	ExchangeName   string      `mapstructure:"exchange_name"`
	RoutingKeys    []string    `mapstructure:"routing_keys"`
	PrefetchCount  int         `mapstructure:"prefetch_count"`
	WorkerPoolSize int         `mapstructure:"worker_pool_size"`
	AutoAck        bool        `mapstructure:"auto_ack"`
	Exclusive      bool        `mapstructure:"exclusive"`
	ConsumerTag    string      `mapstructure:"consumer_tag"`
}

func SetDefault() {
	viper.SetDefault("broker.enabled", true)
	viper.SetDefault("broker.connection.host", "localhost")
	viper.SetDefault("broker.connection.port", 5672)
	viper.SetDefault("broker.connection.username", "admin")
	viper.SetDefault("broker.connection.password", "admin")
	viper.SetDefault("broker.connection.connection_name", "notifbroker")
}

func (c ConnectionConfig) URI() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d", c.Username, c.Password, c.Host, c.Port)
}

func GetExchangeByName(cfg *Config, name string) (*ExchangeConfig, error) {
	for _, ex := range cfg.Exchanges {
		if ex.Name == name {
			return &ex, nil
		}
	}
	return nil, fmt.Errorf("exchange %q not found", name)
}

func GetConsumerByName(cfg *Config, name string) (*ConsumerConfig, error) {
	for _, c := range cfg.Consumers {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, fmt.Errorf("consumer %q not found", name)
}
