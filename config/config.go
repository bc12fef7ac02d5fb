package config

import (
	"fmt"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/spf13/viper"

	appConfig "ichi-go/config/app"
	cacheConfig "ichi-go/config/cache"
	dbConfig "ichi-go/config/database"
	httpConfig "ichi-go/config/http"
	logConfig "ichi-go/config/log"
	notifbrokerConfig "ichi-go/config/notifbroker"
	brokerrabbitmq "ichi-go/internal/infra/broker/rabbitmq"
)

type Config struct {
	App         appConfig.AppConfig
	Database    dbConfig.DatabaseConfig
	Cache       cacheConfig.CacheConfig
	Log         logConfig.LogConfig
	Http        httpConfig.HttpConfig
	Broker      brokerrabbitmq.Config
	NotifBroker notifbrokerConfig.Config
}

var Cfg *Config

func setDefault() {
	appConfig.SetDefault()
	dbConfig.SetDefault()
	cacheConfig.SetDefault()
	logConfig.SetDefault()
	httpConfig.SetDefault()
	brokerrabbitmq.SetDefault()
	notifbrokerConfig.SetDefault()
}

func LoadConfig(e *echo.Echo) *Config {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}

	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	setDefault()
	var cfg Config
	err := viper.Unmarshal(&cfg)
	if err != nil {
		log.Fatalf("Error parsing config: %v", err)
	}
	Cfg = &cfg
	SetDebugMode(e, Cfg.App.Debug)
	if e.Debug {
		log.SetLevel(log.DEBUG)
		log.Debugf("Debugging enabled")
		log.Debugf("Configuration loaded successfully for environment: %s", env)
		log.Debugf("Loaded Config: %+v", *Cfg)
	} else {
		log.SetLevel(log.INFO)
	}
	return Cfg
}

func App() appConfig.AppConfig {
	return Cfg.App
}

func SetDebugMode(e *echo.Echo, debug bool) {
	Cfg.App.Debug = debug
	e.Debug = debug
	if debug {
		log.SetLevel(log.DEBUG)
	} else {
		log.SetLevel(log.INFO)
	}
	log.Debugf("Debug mode set to %v", debug)
}

func Database() dbConfig.DatabaseConfig {
	return Cfg.Database
}

func Cache() cacheConfig.CacheConfig {
	return Cfg.Cache
}

func Http() httpConfig.HttpConfig {
	return Cfg.Http
}

func Log() logConfig.LogConfig {
	return Cfg.Log
}

func Broker() brokerrabbitmq.Config {
	return Cfg.Broker
}

func NotifBroker() notifbrokerConfig.Config {
	return Cfg.NotifBroker
}
