package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	// Set up test environment variables
	os.Setenv("botToken", "test-token")
	os.Setenv("PORT", "3001")
	os.Setenv("enviroment", "test")
	defer func() {
		os.Unsetenv("botToken")
		os.Unsetenv("PORT")
		os.Unsetenv("enviroment")
	}()

	// Reset global config
	resetForTesting()

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if config.BotToken != "test-token" {
		t.Errorf("BotToken = %v, want %v", config.BotToken, "test-token")
	}

	if config.Port != "3001" {
		t.Errorf("Port = %v, want %v", config.Port, "3001")
	}

	if config.Environment != "test" {
		t.Errorf("Environment = %v, want %v", config.Environment, "test")
	}
}

func TestGetEnv(t *testing.T) {
	os.Setenv("TEST_VAR", "test-value")
	defer os.Unsetenv("TEST_VAR")

	if got := getEnv("TEST_VAR", "default"); got != "test-value" {
		t.Errorf("getEnv() = %v, want %v", got, "test-value")
	}

	if got := getEnv("NON_EXISTENT_VAR", "default"); got != "default" {
		t.Errorf("getEnv() = %v, want %v", got, "default")
	}
}

func TestGetEnvBool(t *testing.T) {
	os.Setenv("TEST_BOOL", "true")
	defer os.Unsetenv("TEST_BOOL")

	if got := getEnvBool("TEST_BOOL", false); !got {
		t.Error("getEnvBool() should parse 'true'")
	}

	os.Setenv("TEST_BOOL", "not-a-bool")
	if got := getEnvBool("TEST_BOOL", true); !got {
		t.Error("getEnvBool() should fall back to the default on bad input")
	}

	if got := getEnvBool("NON_EXISTENT_VAR", true); !got {
		t.Error("getEnvBool() should return the default when unset")
	}
}

func TestIsProd(t *testing.T) {
	resetForTesting()
	os.Setenv("enviroment", "prod")
	config, _ := Load()

	if !config.IsProd() {
		t.Error("IsProd() should return true when environment is 'prod'")
	}

	resetForTesting()
	os.Setenv("enviroment", "dev")
	config, _ = Load()

	if config.IsProd() {
		t.Error("IsProd() should return false when environment is not 'prod'")
	}

	os.Unsetenv("enviroment")
}

func TestGet(t *testing.T) {
	resetForTesting()

	// Get should create a new config if none exists
	config := Get()
	if config == nil {
		t.Fatal("Get() returned nil")
	}

	// Get should return the same config on subsequent calls
	config2 := Get()
	if config != config2 {
		t.Error("Get() should return the same config on subsequent calls")
	}
}

func TestDefaultValues(t *testing.T) {
	// Clear all environment variables
	os.Unsetenv("botToken")
	os.Unsetenv("linkNodes")
	os.Unsetenv("linkPassword")
	os.Unsetenv("storeBackend")
	os.Unsetenv("mongodbUrl")
	os.Unsetenv("dbName")
	os.Unsetenv("MQTT_Port")
	os.Unsetenv("PORT")
	os.Unsetenv("enviroment")

	resetForTesting()
	config, _ := Load()

	// Check default values
	if config.Nodes != "localhost:2333" {
		t.Errorf("Nodes default = %v, want %v", config.Nodes, "localhost:2333")
	}

	if config.StoreBackend != "memory" {
		t.Errorf("StoreBackend default = %v, want %v", config.StoreBackend, "memory")
	}

	if config.MongoDBURL != "mongodb://localhost:27017" {
		t.Errorf("MongoDBURL default = %v, want %v", config.MongoDBURL, "mongodb://localhost:27017")
	}

	if config.DBName != "lunalink" {
		t.Errorf("DBName default = %v, want %v", config.DBName, "lunalink")
	}

	if config.MQTTPort != "1883" {
		t.Errorf("MQTTPort default = %v, want %v", config.MQTTPort, "1883")
	}

	if config.Port != "3000" {
		t.Errorf("Port default = %v, want %v", config.Port, "3000")
	}

	if config.Environment != "dev" {
		t.Errorf("Environment default = %v, want %v", config.Environment, "dev")
	}
}

func TestParseNodes(t *testing.T) {
	resetForTesting()
	c := &Config{
		Nodes:        "node-a.example.com:443, node-b.example.com",
		NodeNames:    "primary,backup",
		NodePassword: "hunter2",
		NodeSecure:   true,
	}

	specs := c.ParseNodes()
	if len(specs) != 2 {
		t.Fatalf("ParseNodes() len = %v, want 2", len(specs))
	}

	if specs[0].Host != "node-a.example.com" || specs[0].Port != "443" {
		t.Errorf("specs[0] = %v:%v, want node-a.example.com:443", specs[0].Host, specs[0].Port)
	}
	if specs[0].Identifier != "primary" {
		t.Errorf("specs[0].Identifier = %v, want primary", specs[0].Identifier)
	}
	if specs[1].Port != "2333" {
		t.Errorf("specs[1].Port = %v, want default 2333", specs[1].Port)
	}
	if !specs[1].Secure || specs[1].Password != "hunter2" {
		t.Error("ParseNodes() should propagate password and secure flag")
	}
}
