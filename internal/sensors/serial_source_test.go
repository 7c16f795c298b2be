package sensors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCountLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		maxCount float64
		want     float64
		wantErr  bool
	}{
		{name: "zero", line: "0\n", maxCount: 1023, want: 0.0},
		{name: "full scale 10-bit", line: "1023\n", maxCount: 1023, want: 1.0},
		{name: "midpoint-ish", line: "512\r\n", maxCount: 1023, want: 512.0 / 1023.0},
		{name: "full scale 12-bit", line: "4095\n", maxCount: 4095, want: 1.0},
		{name: "blank line", line: "\n", maxCount: 1023, wantErr: true},
		{name: "garbage", line: "hello\n", maxCount: 1023, wantErr: true},
		{name: "negative", line: "-3\n", maxCount: 1023, wantErr: true},
		{name: "over range", line: "1024\n", maxCount: 1023, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCountLine(tt.line, tt.maxCount)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}
