package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_DefaultValues(t *testing.T) {
	os.Clearenv()

	cfg := Load()

	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("Expected HTTP_ADDR default ':8080', got '%s'", cfg.HTTP.Addr)
	}

	if cfg.Serial.Baud != 115200 {
		t.Errorf("Expected SERIAL_BAUD default 115200, got %d", cfg.Serial.Baud)
	}

	// GPIO UART paths must come before USB paths.
	wantPorts := []string{"/dev/serial0", "/dev/ttyAMA0", "/dev/ttyAMA10", "/dev/ttyACM0", "/dev/ttyUSB0"}
	if len(cfg.Serial.Ports) != len(wantPorts) {
		t.Fatalf("Expected %d candidate ports, got %d", len(wantPorts), len(cfg.Serial.Ports))
	}
	for i, p := range wantPorts {
		if cfg.Serial.Ports[i] != p {
			t.Errorf("Port priority mismatch at %d: expected '%s', got '%s'", i, p, cfg.Serial.Ports[i])
		}
	}

	if cfg.Serial.Delimiter != ":" {
		t.Errorf("Expected SERIAL_DELIMITER default ':', got '%s'", cfg.Serial.Delimiter)
	}

	if cfg.Store.WindowSize != 256 {
		t.Errorf("Expected WINDOW_SIZE default 256, got %d", cfg.Store.WindowSize)
	}

	if cfg.Store.WriteTimeout != 2*time.Second {
		t.Errorf("Expected DB_WRITE_TIMEOUT default 2s, got %v", cfg.Store.WriteTimeout)
	}

	if !cfg.DBEnabled {
		t.Errorf("Expected DB_ENABLED default true")
	}

	if cfg.RedisEnabled {
		t.Errorf("Expected REDIS_ENABLED default false")
	}

	if cfg.MQTT.Enabled {
		t.Errorf("Expected MQTT_ENABLED default false")
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Expected LOG_LEVEL default 'info', got '%s'", cfg.Log.Level)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	os.Clearenv()
	os.Setenv("SERIAL_DEVICE", "/dev/ttyUSB7")
	os.Setenv("SERIAL_PORTS", "/dev/ttyS0, /dev/ttyS1")
	os.Setenv("SERIAL_BAUD", "9600")
	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_NAME", "test-db")
	os.Setenv("WINDOW_SIZE", "64")
	os.Setenv("INGEST_BACKOFF_MAX", "5s")
	defer os.Clearenv()

	cfg := Load()

	if cfg.Serial.Device != "/dev/ttyUSB7" {
		t.Errorf("Expected SERIAL_DEVICE '/dev/ttyUSB7', got '%s'", cfg.Serial.Device)
	}
	if len(cfg.Serial.Ports) != 2 || cfg.Serial.Ports[0] != "/dev/ttyS0" || cfg.Serial.Ports[1] != "/dev/ttyS1" {
		t.Errorf("Expected SERIAL_PORTS trimmed list, got %v", cfg.Serial.Ports)
	}
	if cfg.Serial.Baud != 9600 {
		t.Errorf("Expected SERIAL_BAUD 9600, got %d", cfg.Serial.Baud)
	}
	if cfg.Database.Host != "test-host" {
		t.Errorf("Expected DB_HOST 'test-host', got '%s'", cfg.Database.Host)
	}
	if cfg.Store.WindowSize != 64 {
		t.Errorf("Expected WINDOW_SIZE 64, got %d", cfg.Store.WindowSize)
	}
	if cfg.Ingest.BackoffMax != 5*time.Second {
		t.Errorf("Expected INGEST_BACKOFF_MAX 5s, got %v", cfg.Ingest.BackoffMax)
	}
}

func TestDSN(t *testing.T) {
	os.Clearenv()
	cfg := Load()

	want := "host=localhost port=5432 user=postgres password=postgres dbname=sensorhub sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN mismatch:\n got  %s\n want %s", got, want)
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	os.Clearenv()
	os.Setenv("SERIAL_BAUD", "fast")
	os.Setenv("SERIAL_READ_TIMEOUT", "soon")
	defer os.Clearenv()

	cfg := Load()

	if cfg.Serial.Baud != 115200 {
		t.Errorf("Expected fallback baud 115200, got %d", cfg.Serial.Baud)
	}
	if cfg.Serial.ReadTimeout != time.Second {
		t.Errorf("Expected fallback read timeout 1s, got %v", cfg.Serial.ReadTimeout)
	}
}
