package rms

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/relabs-tech/current_meter/internal/adc"
)

// ACS712 output sensitivity in mV per amp, by rated range.
const (
	Sensitivity5A  = 185.0
	Sensitivity20A = 100.0
	Sensitivity30A = 66.0
)

// SensitivityForModel maps a sensor model name ("5A", "20A", "30A",
// optionally prefixed "ACS712-") to its sensitivity in mV per amp.
func SensitivityForModel(model string) (float64, error) {
	m := strings.ToUpper(strings.TrimSpace(model))
	m = strings.TrimPrefix(m, "ACS712-")

	switch m {
	case "5A":
		return Sensitivity5A, nil
	case "20A":
		return Sensitivity20A, nil
	case "30A":
		return Sensitivity30A, nil
	default:
		return 0, fmt.Errorf("unknown sensor model %q (want 5A, 20A or 30A)", model)
	}
}

// Params holds the constants for one sampling window. They are selected once
// per sensor setup and stay fixed for a run.
type Params struct {
	Samples       int           // readings per window (e.g. 1000)
	Period        time.Duration // delay between consecutive reads
	SensitivityMV float64       // sensor output in mV per amp
	VRef          float64       // ADC reference voltage (e.g. 3.3)
	VOffset       float64       // sensor zero-current output (e.g. 2.5)
}

// Validate checks the window constants before any hardware is touched.
func (p Params) Validate() error {
	if p.Samples <= 0 {
		return fmt.Errorf("samples must be > 0, got %d", p.Samples)
	}
	if p.SensitivityMV <= 0 {
		return fmt.Errorf("sensitivity must be > 0 mV/A, got %g", p.SensitivityMV)
	}
	if p.Period < 0 {
		return fmt.Errorf("sampling period must be >= 0, got %v", p.Period)
	}
	return nil
}

// Estimate runs one sampling window and returns the RMS current in amps.
//
// Each read is converted with:
//
//	volts = sample × VRef
//	amps  = (volts − VOffset) × 1000 / SensitivityMV
//
// and the squares are accumulated over Samples reads, Period apart. The
// result is sqrt(mean of squares), always >= 0.
//
// The estimate is only as good as the window's coverage of the waveform:
// Samples × Period should approximate one full AC cycle (20ms at 50Hz).
// Sub-cycle or aliased sampling biases the result.
//
// A failed read aborts the window and returns the wrapped error; no partial
// estimate is produced. Retrying is the caller's decision.
func Estimate(src adc.Source, p Params) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	var acc float64
	for i := 0; i < p.Samples; i++ {
		sample, err := src.Read()
		if err != nil {
			return 0, fmt.Errorf("sample %d/%d: %w", i+1, p.Samples, err)
		}

		volts := sample * p.VRef
		amps := (volts - p.VOffset) * 1000.0 / p.SensitivityMV
		acc += amps * amps

		// Pace the reads so the window spans the intended cycle fraction.
		// No wait after the last read; nothing depends on it.
		if p.Period > 0 && i < p.Samples-1 {
			time.Sleep(p.Period)
		}
	}

	return math.Sqrt(acc / float64(p.Samples)), nil
}
