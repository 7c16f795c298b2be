package adc

// Source is anything that can provide normalized analog readings over time.
// Implementations: SPI ADC source, serial-attached source, mock source.
type Source interface {
	// Read returns the current analog value normalized to [0,1].
	Read() (float64, error)
}

// ReadFunc adapts a plain function to the Source interface.
type ReadFunc func() (float64, error)

func (f ReadFunc) Read() (float64, error) {
	return f()
}
