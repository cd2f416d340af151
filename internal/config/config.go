package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config for the sensorhub engine. Everything is environment-driven so the
// same binary runs on a Pi next to the device and in CI with no device at all.
type Config struct {
	HTTP struct {
		Addr string
	}

	Serial struct {
		// Device, when set, skips candidate probing and opens this path only.
		Device string
		// Ports are candidate device paths tried in priority order
		// (GPIO UART paths before USB-ACM/USB-serial paths).
		Ports       []string
		Baud        int
		ReadTimeout time.Duration
		// Delimiter between the sensor key and the numeric value on a line.
		Delimiter string
		// LockFile guards the device against a second ingestion owner
		// (supervisor restarts, dev auto-reload).
		LockFile string
	}

	Ingest struct {
		BackoffMin time.Duration
		BackoffMax time.Duration
	}

	Store struct {
		// WindowSize caps the in-memory recent window kept per sensor.
		WindowSize int
		// WriteTimeout bounds one durable append; on expiry the reading
		// stays memory-only and ingestion continues.
		WriteTimeout time.Duration
	}

	DBEnabled bool
	Database  struct {
		Host     string
		Port     int
		User     string
		Password string
		Database string
		SSLMode  string
	}

	RedisEnabled bool
	Redis        struct {
		Addr     string
		Password string
		DB       int
	}

	MQTT struct {
		Enabled  bool
		Broker   string
		ClientID string
		Username string
		Password string
		Topic    string
	}

	Log struct {
		Level  string
		Format string
	}
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Serial.Device = getEnv("SERIAL_DEVICE", "")
	cfg.Serial.Ports = splitList(getEnv("SERIAL_PORTS",
		"/dev/serial0,/dev/ttyAMA0,/dev/ttyAMA10,/dev/ttyACM0,/dev/ttyUSB0"))
	cfg.Serial.Baud = parseInt(getEnv("SERIAL_BAUD", "115200"), 115200)
	cfg.Serial.ReadTimeout = parseDuration(getEnv("SERIAL_READ_TIMEOUT", "1s"), time.Second)
	cfg.Serial.Delimiter = getEnv("SERIAL_DELIMITER", ":")
	cfg.Serial.LockFile = getEnv("SERIAL_LOCK_FILE", "/tmp/sensorhub/ingest.lock")

	cfg.Ingest.BackoffMin = parseDuration(getEnv("INGEST_BACKOFF_MIN", "500ms"), 500*time.Millisecond)
	cfg.Ingest.BackoffMax = parseDuration(getEnv("INGEST_BACKOFF_MAX", "30s"), 30*time.Second)

	cfg.Store.WindowSize = parseInt(getEnv("WINDOW_SIZE", "256"), 256)
	cfg.Store.WriteTimeout = parseDuration(getEnv("DB_WRITE_TIMEOUT", "2s"), 2*time.Second)

	// Default to true for local dev: if the DB is unavailable sensorhub
	// falls back to memory repositories instead of refusing to start.
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "sensorhub")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.RedisEnabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "sensorhub")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_ALERT_TOPIC", "sensorhub/alerts")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg
}

// DSN builds the lib/pq connection string.
func (c *Config) DSN() string {
	b := &strings.Builder{}
	b.WriteString("host=" + c.Database.Host)
	b.WriteString(" port=" + strconv.Itoa(c.Database.Port))
	b.WriteString(" user=" + c.Database.User)
	b.WriteString(" password=" + c.Database.Password)
	b.WriteString(" dbname=" + c.Database.Database)
	b.WriteString(" sslmode=" + c.Database.SSLMode)
	return b.String()
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
