package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string

	// Topics
	TopicCurrentRMS string

	// Acquisition
	// Which source feeds the estimator: "spi", "serial" or "mock".
	AcquisitionSource string
	ADCSPIDevice      string
	ADCChannel        int
	SerialPort        string
	SerialBaudRate    int
	// Full-scale count of a serial-attached ADC (1023 for 10-bit, 4095 for 12-bit).
	SerialMaxCount int
	// RMS amperage the mock source simulates.
	MockAmps float64

	// Sensor
	// ACS712 variant: "5A", "20A" or "30A". Ignored when SensitivityMV is set.
	SensorModel string
	// Explicit sensitivity override in mV per amp (0 = derive from SENSOR_MODEL).
	SensitivityMV float64
	VRef          float64
	VOffset       float64

	// Window
	NumSamples int // readings per window
	// Milliseconds one window should span; the per-read delay is span/samples.
	// Pick the AC cycle period (20 at 50Hz).
	WindowSpanMS int
	// Milliseconds between consecutive windows (publish cadence).
	WindowIntervalMS int

	// Web Server
	WebServerPort int

	// Display
	DisplayUpdateInterval int // milliseconds
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported (lowercase) so other packages cannot access it directly.
//     This enforces encapsulation and prevents external code from modifying config without proper locking.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock (Lock) for initialization,
//     read lock (RLock) for Get() allows multiple concurrent readers without blocking each other.
//
// External code must use InitGlobal() to set and Get() to read, ensuring thread safety.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := &Config{}
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_CURRENT_RMS":
		c.TopicCurrentRMS = value

	// Acquisition
	case "ACQUISITION_SOURCE":
		src := strings.ToLower(value)
		if src != "spi" && src != "serial" && src != "mock" {
			return fmt.Errorf("ACQUISITION_SOURCE must be spi, serial or mock, got %q", value)
		}
		c.AcquisitionSource = src
	case "ADC_SPI_DEVICE":
		c.ADCSPIDevice = value
	case "ADC_CHANNEL":
		ch, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid ADC_CHANNEL %q: %w", value, err)
		}
		if ch < 0 || ch > 7 {
			return fmt.Errorf("ADC_CHANNEL must be 0-7, got %d", ch)
		}
		c.ADCChannel = ch
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, err)
		}
		c.SerialBaudRate = rate
	case "SERIAL_MAX_COUNT":
		count, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_MAX_COUNT %q: %w", value, err)
		}
		if count <= 0 {
			return fmt.Errorf("SERIAL_MAX_COUNT must be > 0, got %d", count)
		}
		c.SerialMaxCount = count
	case "MOCK_AMPS":
		amps, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid MOCK_AMPS %q: %w", value, err)
		}
		if amps < 0 {
			return fmt.Errorf("MOCK_AMPS must be >= 0, got %g", amps)
		}
		c.MockAmps = amps

	// Sensor
	case "SENSOR_MODEL":
		c.SensorModel = value
	case "SENSITIVITY_MV_PER_AMP":
		mv, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SENSITIVITY_MV_PER_AMP %q: %w", value, err)
		}
		if mv <= 0 {
			return fmt.Errorf("SENSITIVITY_MV_PER_AMP must be > 0, got %g", mv)
		}
		c.SensitivityMV = mv
	case "V_REF":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid V_REF %q: %w", value, err)
		}
		if v <= 0 {
			return fmt.Errorf("V_REF must be > 0, got %g", v)
		}
		c.VRef = v
	case "V_OFFSET":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid V_OFFSET %q: %w", value, err)
		}
		if v < 0 {
			return fmt.Errorf("V_OFFSET must be >= 0, got %g", v)
		}
		c.VOffset = v

	// Window
	case "NUM_SAMPLES":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid NUM_SAMPLES %q: %w", value, err)
		}
		if n <= 0 {
			return fmt.Errorf("NUM_SAMPLES must be > 0, got %d", n)
		}
		c.NumSamples = n
	case "WINDOW_SPAN_MS":
		span, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WINDOW_SPAN_MS %q: %w", value, err)
		}
		if span < 0 {
			return fmt.Errorf("WINDOW_SPAN_MS must be >= 0, got %d", span)
		}
		c.WindowSpanMS = span
	case "WINDOW_INTERVAL_MS":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WINDOW_INTERVAL_MS %q: %w", value, err)
		}
		if interval <= 0 {
			return fmt.Errorf("WINDOW_INTERVAL_MS must be > 0, got %d", interval)
		}
		c.WindowIntervalMS = interval

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		if interval <= 0 {
			return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be > 0, got %d", interval)
		}
		c.DisplayUpdateInterval = interval

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicCurrentRMS == "" {
		return fmt.Errorf("TOPIC_CURRENT_RMS is required")
	}
	if c.AcquisitionSource == "" {
		return fmt.Errorf("ACQUISITION_SOURCE is required")
	}
	if c.AcquisitionSource == "spi" && c.ADCSPIDevice == "" {
		return fmt.Errorf("ADC_SPI_DEVICE is required when ACQUISITION_SOURCE=spi")
	}
	if c.AcquisitionSource == "serial" {
		if c.SerialPort == "" {
			return fmt.Errorf("SERIAL_PORT is required when ACQUISITION_SOURCE=serial")
		}
		if c.SerialBaudRate == 0 {
			return fmt.Errorf("SERIAL_BAUD_RATE is required when ACQUISITION_SOURCE=serial")
		}
		if c.SerialMaxCount == 0 {
			return fmt.Errorf("SERIAL_MAX_COUNT is required when ACQUISITION_SOURCE=serial")
		}
	}
	if c.SensorModel == "" && c.SensitivityMV == 0 {
		return fmt.Errorf("SENSOR_MODEL or SENSITIVITY_MV_PER_AMP is required")
	}
	if c.VRef == 0 {
		return fmt.Errorf("V_REF is required")
	}
	if c.NumSamples == 0 {
		return fmt.Errorf("NUM_SAMPLES is required")
	}
	if c.WindowIntervalMS == 0 {
		return fmt.Errorf("WINDOW_INTERVAL_MS is required")
	}
	if c.DisplayUpdateInterval == 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL is required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
// Acquires write lock (configMu.Lock) during initialization to prevent concurrent access.
// This is the only function that can set globalConfig.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
// Uses read lock (configMu.RLock) to allow multiple concurrent readers without blocking.
// This is thread-safe and efficient for concurrent access across goroutines.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
