package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meter_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `# AC current meter configuration
MQTT_BROKER=tcp://localhost:1883
MQTT_CLIENT_ID_PRODUCER=current-meter-producer
MQTT_CLIENT_ID_CONSOLE=current-meter-console
MQTT_CLIENT_ID_WEB=current-meter-web
MQTT_CLIENT_ID_DISPLAY=current-meter-display

TOPIC_CURRENT_RMS=current/rms

ACQUISITION_SOURCE=spi
ADC_SPI_DEVICE=/dev/spidev0.0
ADC_CHANNEL=0

SENSOR_MODEL=20A
V_REF=3.3
V_OFFSET=2.5

NUM_SAMPLES=1000
WINDOW_SPAN_MS=20
WINDOW_INTERVAL_MS=1000

WEB_SERVER_PORT=8080
DISPLAY_UPDATE_INTERVAL=500
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, "current/rms", cfg.TopicCurrentRMS)
	assert.Equal(t, "spi", cfg.AcquisitionSource)
	assert.Equal(t, "/dev/spidev0.0", cfg.ADCSPIDevice)
	assert.Equal(t, 0, cfg.ADCChannel)
	assert.Equal(t, "20A", cfg.SensorModel)
	assert.Equal(t, 3.3, cfg.VRef)
	assert.Equal(t, 2.5, cfg.VOffset)
	assert.Equal(t, 1000, cfg.NumSamples)
	assert.Equal(t, 20, cfg.WindowSpanMS)
	assert.Equal(t, 1000, cfg.WindowIntervalMS)
	assert.Equal(t, 8080, cfg.WebServerPort)
	assert.Equal(t, 500, cfg.DisplayUpdateInterval)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "unknown key", line: "NO_SUCH_KEY=1"},
		{name: "bad source", line: "ACQUISITION_SOURCE=i2c"},
		{name: "channel out of range", line: "ADC_CHANNEL=9"},
		{name: "zero samples", line: "NUM_SAMPLES=0"},
		{name: "negative span", line: "WINDOW_SPAN_MS=-1"},
		{name: "zero interval", line: "WINDOW_INTERVAL_MS=0"},
		{name: "zero display interval", line: "DISPLAY_UPDATE_INTERVAL=0"},
		{name: "negative display interval", line: "DISPLAY_UPDATE_INTERVAL=-500"},
		{name: "negative vref", line: "V_REF=-3.3"},
		{name: "zero sensitivity", line: "SENSITIVITY_MV_PER_AMP=0"},
		{name: "malformed line", line: "JUST A LINE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, validConfig+tt.line+"\n"))
			assert.Error(t, err)
		})
	}
}

func TestValidateRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "broker", mutate: func(c *Config) { c.MQTTBroker = "" }},
		{name: "topic", mutate: func(c *Config) { c.TopicCurrentRMS = "" }},
		{name: "source", mutate: func(c *Config) { c.AcquisitionSource = "" }},
		{name: "spi device", mutate: func(c *Config) { c.ADCSPIDevice = "" }},
		{name: "sensor", mutate: func(c *Config) { c.SensorModel = ""; c.SensitivityMV = 0 }},
		{name: "vref", mutate: func(c *Config) { c.VRef = 0 }},
		{name: "samples", mutate: func(c *Config) { c.NumSamples = 0 }},
		{name: "interval", mutate: func(c *Config) { c.WindowIntervalMS = 0 }},
		{name: "display interval", mutate: func(c *Config) { c.DisplayUpdateInterval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, validConfig))
			require.NoError(t, err)

			tt.mutate(cfg)
			assert.Error(t, cfg.validate())
		})
	}
}

func TestValidateSerialSource(t *testing.T) {
	serialConfig := `MQTT_BROKER=tcp://localhost:1883
TOPIC_CURRENT_RMS=current/rms
ACQUISITION_SOURCE=serial
SERIAL_PORT=/dev/ttyUSB0
SERIAL_BAUD_RATE=115200
SERIAL_MAX_COUNT=1023
SENSOR_MODEL=5A
V_REF=3.3
V_OFFSET=2.5
NUM_SAMPLES=1000
WINDOW_SPAN_MS=20
WINDOW_INTERVAL_MS=1000
DISPLAY_UPDATE_INTERVAL=500
`

	cfg, err := Load(writeConfig(t, serialConfig))
	require.NoError(t, err)
	assert.Equal(t, "serial", cfg.AcquisitionSource)
	assert.Equal(t, 1023, cfg.SerialMaxCount)

	// Same config without the port must not validate.
	_, err = Load(writeConfig(t, serialConfig+"SERIAL_PORT=\n"))
	assert.Error(t, err)
}

func TestSensitivityOverride(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig+"SENSITIVITY_MV_PER_AMP=98.5\n"))
	require.NoError(t, err)
	assert.Equal(t, 98.5, cfg.SensitivityMV)
}
