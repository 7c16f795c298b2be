// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package adc

import (
	"math"
	"time"
)

type mockSource struct {
	start     time.Time
	vRef      float64
	vOffset   float64
	peakVolts float64
	freqHz    float64
}

// NewMockSource creates a mock ADC source that generates a clean sine wave
// around the sensor midpoint, as an ACS712 would see for a sinusoidal load
// of the given RMS amperage. Useful for development without hardware.
func NewMockSource(vRef, vOffset, sensitivityMV, rmsAmps float64) Source {
	return &mockSource{
		start:     time.Now(),
		vRef:      vRef,
		vOffset:   vOffset,
		peakVolts: rmsAmps * math.Sqrt2 * sensitivityMV / 1000.0,
		freqHz:    50.0,
	}
}

func (m *mockSource) Read() (float64, error) {
	elapsed := time.Since(m.start).Seconds()
	volts := m.vOffset + m.peakVolts*math.Sin(2*math.Pi*m.freqHz*elapsed)

	// Clamp to what a real ADC pinned to the supply rails would report.
	sample := volts / m.vRef
	if sample < 0 {
		sample = 0
	}
	if sample > 1 {
		sample = 1
	}
	return sample, nil
}
