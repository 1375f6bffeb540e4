// Package config provides configuration management for the client host.
// It loads environment variables and makes them available throughout the
// application.
package config

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the host process
type Config struct {
	// Discord
	BotToken string
	ClientID string

	// Audio nodes. Nodes is a comma separated "host:port" list sharing
	// NodePassword; per-node identifiers come from NodeNames in order.
	Nodes        string
	NodeNames    string
	NodePassword string
	NodeSecure   bool

	// State store
	StoreBackend  string // memory, redis or mongo
	StorePath     string
	RedisAddr     string
	RedisPassword string
	MongoDBURL    string
	DBName        string

	// MQTT telemetry
	MQTTHost     string
	MQTTPort     string
	MQTTUser     string
	MQTTPassword string

	// Web Server
	Port string

	// Environment
	Environment string
	Debug       bool
}

// NodeSpec is one parsed audio-node address.
type NodeSpec struct {
	Identifier string
	Host       string
	Port       string
	Password   string
	Secure     bool
}

var (
	Version   = "Dev-Local"
	BuildTime = "Hoy"
)

// cfg holds the global configuration instance
var (
	cfg     *Config
	cfgOnce sync.Once
)

// resetForTesting resets the configuration for testing purposes.
// This function should only be called from test code.
func resetForTesting() {
	cfg = nil
	cfgOnce = sync.Once{}
}

// loadConfig performs the actual configuration loading
func loadConfig() {
	// Load .env file if it exists (ignoring error if it doesn't)
	_ = godotenv.Load()

	cfg = &Config{
		// Discord
		BotToken: getEnv("botToken", ""),
		ClientID: getEnv("clientId", ""),

		// Audio nodes
		Nodes:        getEnv("linkNodes", "localhost:2333"),
		NodeNames:    getEnv("linkNodeNames", ""),
		NodePassword: getEnv("linkPassword", "youshallnotpass"),
		NodeSecure:   getEnvBool("linkSecure", false),

		// State store
		StoreBackend:  getEnv("storeBackend", "memory"),
		StorePath:     getEnv("storePath", "data/lunalink.json"),
		RedisAddr:     getEnv("redisAddr", "localhost:6379"),
		RedisPassword: getEnv("redisPassword", ""),
		MongoDBURL:    getEnv("mongodbUrl", "mongodb://localhost:27017"),
		DBName:        getEnv("dbName", "lunalink"),

		// MQTT
		MQTTHost:     getEnv("MQTT_Host", ""),
		MQTTPort:     getEnv("MQTT_Port", "1883"),
		MQTTUser:     getEnv("MQTT_User", ""),
		MQTTPassword: getEnv("MQTT_Password", ""),

		// Web Server
		Port: getEnv("PORT", "3000"),

		// Environment
		Environment: getEnv("enviroment", "dev"),
		Debug:       getEnvBool("debug", false),
	}
}

// Load initializes the configuration from environment variables
func Load() (*Config, error) {
	cfgOnce.Do(loadConfig)
	return cfg, nil
}

// Get returns the current configuration
func Get() *Config {
	// Use sync.Once to ensure thread-safe initialization if Load wasn't called
	cfgOnce.Do(loadConfig)
	return cfg
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// ParseNodes expands the Nodes/NodeNames lists into per-node specs.
// Entries without an explicit port fall back to 2333.
func (c *Config) ParseNodes() []NodeSpec {
	var names []string
	if c.NodeNames != "" {
		names = strings.Split(c.NodeNames, ",")
	}

	var specs []NodeSpec
	for i, entry := range strings.Split(c.Nodes, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		host, port := entry, "2333"
		if idx := strings.LastIndex(entry, ":"); idx >= 0 {
			host, port = entry[:idx], entry[idx+1:]
		}
		spec := NodeSpec{
			Host:     host,
			Port:     port,
			Password: c.NodePassword,
			Secure:   c.NodeSecure,
		}
		if i < len(names) {
			spec.Identifier = strings.TrimSpace(names[i])
		}
		specs = append(specs, spec)
	}
	return specs
}

// IsProd returns true if the environment is production
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}
