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
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"chip8vm/chip8"
)

// Speaker plays a tone while the sound timer is running.
type Speaker interface {
	Start(ctx context.Context) error
	Stop() error
}

type silence struct{}

func (silence) Start(context.Context) error { return nil }
func (silence) Stop() error                 { return nil }

type eventKind uint8

const (
	keyDown eventKind = iota
	keyUp
)

type event struct {
	kind eventKind
	key  uint8
}

const eventQueueSize = 64

// Emulator drives a machine in frames of one timer tick each. The machine is
// only touched by the goroutine calling Frame, Run or RunFrames; other
// goroutines communicate through KeyDown, KeyUp, Reset and SetPaused.
type Emulator struct {
	opts    Options
	logger  *slog.Logger
	machine *chip8.Machine
	interp  *chip8.Interpreter
	speaker Speaker

	events chan event
	paused atomic.Bool
	reset  atomic.Bool

	rom    []byte
	halted error
}

// New creates an emulator. A nil speaker, or Options.Mute, disables sound.
func New(opts Options, logger *slog.Logger, speaker Speaker) *Emulator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if speaker == nil || opts.Mute {
		speaker = silence{}
	}

	m := chip8.NewMachine()

	return &Emulator{
		opts:    opts,
		logger:  logger,
		machine: m,
		interp:  chip8.NewInterpreter(m, opts.interpreterOptions(logger)...),
		speaker: speaker,
		events:  make(chan event, eventQueueSize),
	}
}

func (e *Emulator) Options() Options {
	return e.opts
}

func (e *Emulator) Machine() *chip8.Machine {
	return e.machine
}

func (e *Emulator) Interpreter() *chip8.Interpreter {
	return e.interp
}

// Load resets the machine and loads rom. Must not be called while Run is
// active; use Reset to restart a running program.
func (e *Emulator) Load(rom []byte) error {
	e.interp.Reset()
	if err := e.machine.Load(rom); err != nil {
		return fmt.Errorf("loading program: %w", err)
	}

	e.rom = rom
	e.halted = nil
	e.reset.Store(false)
	e.logger.Info("program loaded", slog.Int("bytes", len(rom)))
	return nil
}

func (e *Emulator) KeyDown(key uint8) error {
	return e.enqueue(event{kind: keyDown, key: key})
}

func (e *Emulator) KeyUp(key uint8) error {
	return e.enqueue(event{kind: keyUp, key: key})
}

// Reset restarts the loaded program before the next frame.
func (e *Emulator) Reset() {
	e.reset.Store(true)
}

func (e *Emulator) SetPaused(paused bool) {
	e.paused.Store(paused)
}

func (e *Emulator) TogglePause() {
	for {
		p := e.paused.Load()
		if e.paused.CompareAndSwap(p, !p) {
			return
		}
	}
}

func (e *Emulator) Paused() bool {
	return e.paused.Load()
}

func (e *Emulator) enqueue(ev event) error {
	if int(ev.key) >= chip8.KeyCount {
		return chip8.ErrInvalidKeyIndex
	}

	select {
	case e.events <- ev:
	default:
		e.logger.Warn("input queue full, dropping event", slog.Int("key", int(ev.key)))
	}
	return nil
}

func (e *Emulator) applyEvents() {
	if e.reset.CompareAndSwap(true, false) {
		e.interp.Reset()
		_ = e.machine.Load(e.rom)
		e.halted = nil
		e.logger.Info("program reset")
	}

	for {
		select {
		case ev := <-e.events:
			e.apply(ev)
		default:
			return
		}
	}
}

func (e *Emulator) apply(ev event) {
	keypad := e.machine.Keypad()

	switch ev.kind {
	case keyDown:
		_ = keypad.SetKeyDown(ev.key)
	case keyUp:
		_ = keypad.SetKeyUp(ev.key)
	}
}

// Frame applies queued input, executes one frame of instructions, ticks
// the timers once and updates the speaker. Once a fatal error has occurred
// every call returns it until the program is reset.
func (e *Emulator) Frame(ctx context.Context) error {
	e.applyEvents()

	if e.halted != nil {
		return e.halted
	}

	if e.paused.Load() {
		e.sound(ctx, false)
		return nil
	}

	for range e.opts.CyclesPerFrame() {
		if err := e.interp.Step(); err != nil {
			if chip8.IsFatal(err) || e.opts.HaltOnUnknown {
				e.halted = fmt.Errorf("emulation halted: %w", err)
				e.sound(ctx, false)
				e.logger.Error("emulation halted", slog.Any("error", err))
				return e.halted
			}
			e.logger.Warn("skipping unknown opcode", slog.Any("error", err))
		}
	}

	e.machine.TickTimers()
	e.sound(ctx, e.machine.SoundTimer() > 0)
	return nil
}

func (e *Emulator) sound(ctx context.Context, on bool) {
	var err error
	if on {
		err = e.speaker.Start(ctx)
	} else {
		err = e.speaker.Stop()
	}
	if err != nil {
		e.logger.Warn("audio failure", slog.Any("error", err))
	}
}

// RenderFunc receives the display whenever it changed during a frame.
type RenderFunc func(d *chip8.Display)

// RunFrames runs n frames back to back without pacing.
func (e *Emulator) RunFrames(ctx context.Context, n int, render RenderFunc) error {
	defer e.sound(ctx, false)

	for range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.frame(ctx, render); err != nil {
			return err
		}
	}
	return nil
}

// Run runs one frame per TimerRate until ctx is done or a fatal error
// occurs. A cancelled context is not an error.
func (e *Emulator) Run(ctx context.Context, render RenderFunc) error {
	defer e.sound(ctx, false)

	rate := e.opts.TimerRate
	if rate <= 0 {
		rate = chip8.TimerRate
	}

	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if err := e.frame(ctx, render); err != nil {
			return err
		}
	}
}

func (e *Emulator) frame(ctx context.Context, render RenderFunc) error {
	if err := e.Frame(ctx); err != nil {
		return err
	}

	d := e.machine.Display()
	if render != nil && d.Changed() {
		render(d)
		d.MarkRendered()
	}
	return nil
}
