package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/terrasense/regolith/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8080
read_timeout = "1m"
write_timeout = "5m"
shutdown_timeout = "30s"

[database]
host = "localhost"
port = 5432
name = "regolith"
user = "regolith"
password = "regolith"
ssl_mode = "disable"

[storage]
container_name = "soil-images"
connection_string = "DefaultEndpointsProtocol=http;AccountName=regolithstore;AccountKey=key;BlobEndpoint=http://127.0.0.1:10000/regolithstore;"

[device]
endpoint = "http://192.168.1.50:5000"
timeout = "15s"

[model]
path = "models/soil_classifier.rgsm"
threshold = 0.8

[auth]
issuer = "https://auth.example.com"
audience = "regolith-api"

[api]
base_path = "/api"

[api.cors]
enabled = false

[api.pagination]
default_page_size = 25
max_page_size = 50
`

const overlayConfig = `
[server]
port = 9090

[database]
host = "prodhost"
`

// minimalConfig carries only the fields validation requires.
const minimalConfig = `
[database]
name = "regolith"
user = "regolith"

[storage]
connection_string = "conn"

[device]
endpoint = "http://192.168.1.50:5000"

[auth]
issuer = "https://auth.example.com"
audience = "regolith-api"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("db host: got %s, want localhost", cfg.Database.Host)
	}
	if cfg.Storage.ContainerName != "soil-images" {
		t.Errorf("storage container: got %s, want soil-images", cfg.Storage.ContainerName)
	}
	if cfg.Device.Endpoint != "http://192.168.1.50:5000" {
		t.Errorf("device endpoint: got %s", cfg.Device.Endpoint)
	}
	if cfg.Model.Threshold != 0.8 {
		t.Errorf("model threshold: got %f, want 0.8", cfg.Model.Threshold)
	}
	if cfg.Auth.Issuer != "https://auth.example.com" {
		t.Errorf("auth issuer: got %s", cfg.Auth.Issuer)
	}
	if cfg.API.BasePath != "/api" {
		t.Errorf("api base_path: got %s, want /api", cfg.API.BasePath)
	}
	if cfg.API.Pagination.DefaultPageSize != 25 {
		t.Errorf("pagination default_page_size: got %d, want 25", cfg.API.Pagination.DefaultPageSize)
	}
	if cfg.API.Pagination.MaxPageSize != 50 {
		t.Errorf("pagination max_page_size: got %d, want 50", cfg.API.Pagination.MaxPageSize)
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	chdir(t, dir)

	t.Setenv("REGOLITH_ENV", "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090 (from overlay)", cfg.Server.Port)
	}
	if cfg.Database.Host != "prodhost" {
		t.Errorf("db host: got %s, want prodhost (from overlay)", cfg.Database.Host)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("db port: got %d, want 5432 (from base)", cfg.Database.Port)
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	t.Setenv("REGOLITH_VERSION", "2.0.0")
	t.Setenv("REGOLITH_SERVER_PORT", "3000")
	t.Setenv("REGOLITH_DEVICE_ENDPOINT", "http://10.0.0.5:5000")
	t.Setenv("REGOLITH_MODEL_THRESHOLD", "0.9")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Version != "2.0.0" {
		t.Errorf("version: got %s, want 2.0.0", cfg.Version)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("server port: got %d, want 3000", cfg.Server.Port)
	}
	if cfg.Device.Endpoint != "http://10.0.0.5:5000" {
		t.Errorf("device endpoint: got %s, want http://10.0.0.5:5000", cfg.Device.Endpoint)
	}
	if cfg.Model.Threshold != 0.9 {
		t.Errorf("model threshold: got %f, want 0.9", cfg.Model.Threshold)
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	t.Setenv("REGOLITH_DB_NAME", "testdb")
	t.Setenv("REGOLITH_DB_USER", "testuser")
	t.Setenv("REGOLITH_STORAGE_CONNECTION_STRING", "conn")
	t.Setenv("REGOLITH_DEVICE_ENDPOINT", "http://192.168.1.50:5000")
	t.Setenv("REGOLITH_AUTH_ISSUER", "https://auth.example.com")
	t.Setenv("REGOLITH_AUTH_AUDIENCE", "regolith-api")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load without config.toml failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port default: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Name != "testdb" {
		t.Errorf("db name from env: got %s, want testdb", cfg.Database.Name)
	}
	if cfg.Storage.ConnectionString != "conn" {
		t.Errorf("storage conn from env: got %s, want conn", cfg.Storage.ConnectionString)
	}
	if cfg.Model.Path != "models/soil_classifier.rgsm" {
		t.Errorf("model path default: got %s", cfg.Model.Path)
	}
	if cfg.Device.Timeout != "15s" {
		t.Errorf("device timeout default: got %s, want 15s", cfg.Device.Timeout)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", `server = {port = `)
	chdir(t, dir)

	_, err := config.Load()
	if err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestEnvDefault(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Env() != "local" {
		t.Errorf("env: got %s, want local", cfg.Env())
	}
}

func TestEnvFromEnvVar(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	t.Setenv("REGOLITH_ENV", "production")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Env() != "production" {
		t.Errorf("env: got %s, want production", cfg.Env())
	}
}

func TestShutdownTimeoutDuration(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if d := cfg.ShutdownTimeoutDuration(); d != 30*time.Second {
		t.Errorf("shutdown timeout: got %v, want 30s", d)
	}
}

func TestServerAddr(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if addr := cfg.Server.Addr(); addr != "0.0.0.0:8080" {
		t.Errorf("addr: got %s, want 0.0.0.0:8080", addr)
	}
}

func TestPaginationDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", minimalConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.API.Pagination.DefaultPageSize != 20 {
		t.Errorf("pagination default_page_size: got %d, want 20", cfg.API.Pagination.DefaultPageSize)
	}
	if cfg.API.Pagination.MaxPageSize != 100 {
		t.Errorf("pagination max_page_size: got %d, want 100", cfg.API.Pagination.MaxPageSize)
	}
}

func TestMaxBodySizeBytes(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", minimalConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if got := cfg.API.MaxBodySizeBytes(); got != 25*1024*1024 {
		t.Errorf("max body size: got %d, want %d", got, 25*1024*1024)
	}
}

func TestDeviceSerializeDefault(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", minimalConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if !cfg.Device.Serialized() {
		t.Error("device serialize should default to true")
	}
}
