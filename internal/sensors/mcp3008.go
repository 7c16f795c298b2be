// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package sensors

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/current_meter/internal/adc"
)

// MCP3008 wire protocol. One conversion is a 3-byte full-duplex transaction:
// start bit, then single-ended mode + channel in the top nibble of byte two,
// and the 10-bit result arrives in the low bits of bytes two and three.
const (
	mcp3008Start       = 0x01
	mcp3008SingleEnded = 0x80
	mcp3008MaxCount    = 1023.0

	// Conservative clock; the MCP3008 is rated 1.35 MHz at 2.7V supply.
	mcp3008ClockHz = 1350 * physic.KiloHertz
)

type adcSource struct {
	port    spi.PortCloser
	conn    spi.Conn
	channel int
}

// NewADCSource opens the MCP3008 on the given SPI device and returns a
// source reading the given channel (0-7), normalized to [0,1].
func NewADCSource(spiDev string, channel int) (adc.Source, error) {
	if channel < 0 || channel > 7 {
		return nil, fmt.Errorf("ADC channel must be 0-7, got %d", channel)
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("ADC: periph host init: %w", err)
	}

	port, err := spireg.Open(spiDev)
	if err != nil {
		return nil, fmt.Errorf("ADC: SPI open (%s): %w", spiDev, err)
	}

	conn, err := port.Connect(mcp3008ClockHz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("ADC: SPI connect (%s): %w", spiDev, err)
	}

	log.Printf("ADC: MCP3008 ready on %s, channel %d", spiDev, channel)
	return &adcSource{port: port, conn: conn, channel: channel}, nil
}

func (s *adcSource) Read() (float64, error) {
	tx := []byte{mcp3008Start, mcp3008SingleEnded | byte(s.channel)<<4, 0x00}
	rx := make([]byte, 3)

	if err := s.conn.Tx(tx, rx); err != nil {
		return 0, fmt.Errorf("ADC: SPI tx (channel %d): %w", s.channel, err)
	}

	raw := int(rx[1]&0x03)<<8 | int(rx[2])
	return float64(raw) / mcp3008MaxCount, nil
}

func (s *adcSource) Close() error {
	return s.port.Close()
}
