// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env"`
	StorageConnectionString string `yaml:"storage_connection_string"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Rabbit                  `yaml:"rabbit"`
	Scheduler               `yaml:"scheduler"`
	PushGateway             `yaml:"push_gateway"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

// Rabbit структура для настройки подключения к rabbitmq
type Rabbit struct {
	AddressRabbit  string        `yaml:"addressrabbit"`
	ConnectRetries int           `yaml:"connect_retries"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
}

// Scheduler структура для настройки планировщика напоминаний
type Scheduler struct {
	Tick time.Duration `yaml:"tick"`
	// TrialDays — длительность пробного периода в днях.
	TrialDays int `yaml:"trial_days"`
	// NotificationsAllowed имитирует системное разрешение на уведомления:
	// при false RequestPermission возвращает отказ.
	NotificationsAllowed bool `yaml:"notifications_allowed"`
}

// PushGateway структура для настройки шлюза доставки push-уведомлений
type PushGateway struct {
	GatewayURL     string        `yaml:"gateway_url"`
	GatewayToken   string        `yaml:"gateway_token"`
	GatewayTimeout time.Duration `yaml:"gateway_timeout"`
}

// MustLoad функция для загрузки конфига, путь берется из переменной окружения CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	if cfg.Tick == 0 {
		cfg.Tick = 30 * time.Second
	}
	if cfg.TrialDays == 0 {
		cfg.TrialDays = 7
	}
	return &cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"StorageConnectionString: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Rabbit:\n"+
			"  Addr: %s\n"+
			"Scheduler:\n"+
			"  Tick: %s\n"+
			"  TrialDays: %d\n"+
			"  NotificationsAllowed: %t\n"+
			"PushGateway:\n"+
			"  URL: %s\n",
		c.Env,
		c.StorageConnectionString,
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.AddressRabbit,
		c.Tick,
		c.TrialDays,
		c.NotificationsAllowed,
		c.GatewayURL,
	)
}
