/*
 * Copyright 2026 Joshua Jones <joshua.jones.software@gmail.com>
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      www.apache.org
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package chip8vm

import (
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"chip8vm/chip8"
)

// Options configures an Emulator and its front ends.
type Options struct {
	ClockRate     time.Duration // time per instruction
	TimerRate     time.Duration // time per frame and timer tick
	Scale         int           // window pixels per CHIP-8 pixel
	Mute          bool
	Seed          uint64 // 0 seeds RND from the runtime
	Quirks        chip8.Quirks
	HaltOnUnknown bool
}

func DefaultOptions() Options {
	return Options{
		ClockRate: chip8.ClockRate,
		TimerRate: chip8.TimerRate,
		Scale:     10,
	}
}

// CyclesPerFrame is the number of instructions executed between timer ticks.
func (o Options) CyclesPerFrame() int {
	if o.ClockRate <= 0 {
		return 1
	}
	return max(1, int(o.TimerRate/o.ClockRate))
}

func (o Options) interpreterOptions(logger *slog.Logger) []chip8.Option {
	opts := []chip8.Option{
		chip8.WithQuirks(o.Quirks),
		chip8.WithLogger(logger),
	}
	if o.Seed != 0 {
		opts = append(opts, chip8.WithRandom(rand.New(rand.NewPCG(o.Seed, o.Seed))))
	}
	return opts
}

// NewLogger returns a text logger writing to w. debug enables instruction
// tracing, quiet limits output to errors.
func NewLogger(w io.Writer, debug, quiet bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	} else if quiet {
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
