// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package app

import (
	"fmt"
	"time"

	"github.com/relabs-tech/current_meter/internal/adc"
	"github.com/relabs-tech/current_meter/internal/rms"
)

// RunMockConsole estimates windows from the mock source and prints them.
// No config, no broker, no hardware; handy for a quick smoke run.
func RunMockConsole() error {
	params := rms.Params{
		Samples:       200,
		Period:        100 * time.Microsecond, // 200 reads across one 20ms cycle
		SensitivityMV: rms.Sensitivity20A,
		VRef:          3.3,
		VOffset:       2.5,
	}

	src := adc.NewMockSource(params.VRef, params.VOffset, params.SensitivityMV, 2.5)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		amps, err := rms.Estimate(src, params)
		if err != nil {
			return err
		}

		fmt.Printf("I=%6.2f A\n", amps)
	}
	return nil
}
