package app

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/current_meter/internal/adc"
	"github.com/relabs-tech/current_meter/internal/config"
	"github.com/relabs-tech/current_meter/internal/current"
	"github.com/relabs-tech/current_meter/internal/rms"
	"github.com/relabs-tech/current_meter/internal/sensors"
)

// resolveSensitivity picks the explicit mV/A override when present,
// otherwise derives it from the configured sensor model.
func resolveSensitivity(cfg *config.Config) (float64, error) {
	if cfg.SensitivityMV > 0 {
		return cfg.SensitivityMV, nil
	}
	return rms.SensitivityForModel(cfg.SensorModel)
}

// closeSource releases the source's underlying port, if it holds one.
// The SPI and serial sources do; the mock does not.
func closeSource(src adc.Source) {
	if c, ok := src.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Printf("source close error: %v", err)
		}
	}
}

// newAcquisitionSource builds the configured acquisition source.
func newAcquisitionSource(cfg *config.Config, sensitivityMV float64) (adc.Source, error) {
	switch cfg.AcquisitionSource {
	case "spi":
		return sensors.NewADCSource(cfg.ADCSPIDevice, cfg.ADCChannel)
	case "serial":
		return sensors.NewSerialSource(cfg.SerialPort, uint(cfg.SerialBaudRate), cfg.SerialMaxCount)
	case "mock":
		log.Println("using mock acquisition source")
		return adc.NewMockSource(cfg.VRef, cfg.VOffset, sensitivityMV, cfg.MockAmps), nil
	default:
		return nil, fmt.Errorf("unknown acquisition source %q", cfg.AcquisitionSource)
	}
}

// RunMeterProducer samples the current sensor one window at a time and
// publishes each RMS reading to MQTT.
func RunMeterProducer() error {
	log.Println("starting current-meter producer (sensor → MQTT)")

	cfg := config.Get()

	sensitivityMV, err := resolveSensitivity(cfg)
	if err != nil {
		return err
	}
	log.Printf("sensor sensitivity: %g mV/A", sensitivityMV)

	// --- Build acquisition source ---
	src, err := newAcquisitionSource(cfg, sensitivityMV)
	if err != nil {
		return err
	}
	defer closeSource(src)

	// Per-read delay so NUM_SAMPLES reads span WINDOW_SPAN_MS, one AC cycle.
	params := rms.Params{
		Samples:       cfg.NumSamples,
		Period:        time.Duration(cfg.WindowSpanMS) * time.Millisecond / time.Duration(cfg.NumSamples),
		SensitivityMV: sensitivityMV,
		VRef:          cfg.VRef,
		VOffset:       cfg.VOffset,
	}
	if err := params.Validate(); err != nil {
		return err
	}
	log.Printf("window: %d samples, %v between reads", params.Samples, params.Period)

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)

	log.Println("connected to MQTT, starting window loop")

	// One window per tick. An acquisition failure skips the emission and the
	// next window starts fresh; nothing is retried mid-window.
	ticker := time.NewTicker(time.Duration(cfg.WindowIntervalMS) * time.Millisecond)
	defer ticker.Stop()

	for t := range ticker.C {
		amps, err := rms.Estimate(src, params)
		if err != nil {
			log.Printf("window aborted: %v", err)
			continue
		}

		reading := current.Reading{
			Source:  cfg.AcquisitionSource,
			Amps:    amps,
			Samples: params.Samples,
			Time:    t,
		}

		payload, err := json.Marshal(reading)
		if err != nil {
			log.Printf("json marshal error: %v", err)
			continue
		}

		if token := client.Publish(cfg.TopicCurrentRMS, 0, true, payload); token.Wait() && token.Error() != nil {
			log.Printf("MQTT publish error: %v", token.Error())
			continue
		}

		log.Printf("%s window: Irms=%.2f A (n=%d)", t.Format(time.RFC3339), amps, params.Samples)
	}
	return nil
}
