package current

import "time"

// Reading represents one RMS current estimate suitable for JSON and MQTT.
type Reading struct {
	Source string `json:"source"` // "spi", "serial" or "mock"

	Amps    float64   `json:"amps"`    // RMS current over the window
	Samples int       `json:"samples"` // window size used for the estimate
	Time    time.Time `json:"time"`    // when the window completed
}
