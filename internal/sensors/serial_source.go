package sensors

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/current_meter/internal/adc"
)

// serialSource reads ADC counts from a microcontroller that samples the
// sensor itself and streams one decimal count per line (e.g. "512\n").
// The usual bench setup when the ADC hangs off an Arduino instead of the
// Pi's SPI header.
type serialSource struct {
	port     io.ReadWriteCloser
	reader   *bufio.Reader
	maxCount float64
}

// NewSerialSource opens the serial port and returns a source that turns
// each streamed count into a normalized [0,1] sample. maxCount is the
// full-scale count of the remote ADC (1023 for 10-bit, 4095 for 12-bit).
func NewSerialSource(portName string, baudRate uint, maxCount int) (adc.Source, error) {
	if maxCount <= 0 {
		return nil, fmt.Errorf("serial source: max count must be > 0, got %d", maxCount)
	}

	serialOpts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              baudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return nil, fmt.Errorf("serial source: open %s: %w", portName, err)
	}
	log.Printf("serial source: port opened on %s at %d baud", portName, baudRate)

	return &serialSource{
		port:     port,
		reader:   bufio.NewReader(port),
		maxCount: float64(maxCount),
	}, nil
}

func (s *serialSource) Read() (float64, error) {
	// Skip blank and partial lines; noisy links drop characters.
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return 0, fmt.Errorf("serial source: read: %w", err)
		}

		sample, err := parseCountLine(line, s.maxCount)
		if err != nil {
			continue
		}
		return sample, nil
	}
}

func (s *serialSource) Close() error {
	return s.port.Close()
}

// parseCountLine converts one streamed line to a normalized sample.
func parseCountLine(line string, maxCount float64) (float64, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, fmt.Errorf("empty line")
	}

	count, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("bad count %q: %w", line, err)
	}
	if count < 0 || float64(count) > maxCount {
		return 0, fmt.Errorf("count %d out of range 0-%g", count, maxCount)
	}

	return float64(count) / maxCount, nil
}
