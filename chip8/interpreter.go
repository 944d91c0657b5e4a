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

package chip8

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
)

// State is the execution state of an Interpreter.
type State uint8

const (
	Running State = iota
	WaitingForKey
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case WaitingForKey:
		return "waiting for key"
	}
	return "unknown"
}

// RandomSource supplies the random bytes used by RND. *rand.Rand from
// math/rand/v2 satisfies it.
type RandomSource interface {
	Uint32N(n uint32) uint32
}

type globalRandom struct{}

func (globalRandom) Uint32N(n uint32) uint32 {
	return rand.Uint32N(n)
}

// Quirks select between behaviours that differ across historical
// interpreters. The zero value matches the common modern behaviour.
type Quirks struct {
	// ShiftUsesVY makes 8XY6 and 8XYE shift VY into VX, as on the COSMAC VIP.
	ShiftUsesVY bool

	// LogicResetsVF clears VF after 8XY1, 8XY2 and 8XY3.
	LogicResetsVF bool
}

type Option func(*Interpreter)

func WithRandom(r RandomSource) Option {
	return func(in *Interpreter) {
		in.rng = r
	}
}

func WithQuirks(q Quirks) Option {
	return func(in *Interpreter) {
		in.quirks = q
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(in *Interpreter) {
		in.logger = l
	}
}

// Interpreter runs the fetch-decode-execute cycle against a Machine.
type Interpreter struct {
	m      *Machine
	rng    RandomSource
	quirks Quirks
	logger *slog.Logger

	state       State
	keyRegister uint8
	cycles      int64
}

func NewInterpreter(m *Machine, opts ...Option) *Interpreter {
	in := &Interpreter{
		m:      m,
		rng:    globalRandom{},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

func (in *Interpreter) Machine() *Machine {
	return in.m
}

func (in *Interpreter) State() State {
	return in.state
}

// Cycles returns the number of instructions executed since the last reset.
func (in *Interpreter) Cycles() int64 {
	return in.cycles
}

// Reset resets the machine and returns the interpreter to Running.
func (in *Interpreter) Reset() {
	in.m.Reset()
	in.state = Running
	in.keyRegister = 0
	in.cycles = 0
}

// Step executes a single instruction. While waiting for a key it only polls
// the keypad. Errors are *ExecError values; use IsFatal to decide whether
// execution may continue. After an unknown opcode the program counter
// already points at the following instruction.
func (in *Interpreter) Step() error {
	m := in.m

	if in.state == WaitingForKey && !in.keyWaitPending() {
		in.state = Running
		in.logger.Debug("key wait abandoned", slog.String("pc", u16toh(m.pc, 3)))
	}

	if in.state == WaitingForKey {
		key, ok := m.keypad.AnyKeyDown()
		if !ok {
			return nil
		}
		m.v[in.keyRegister] = key
		m.pc += 2
		in.state = Running
		in.logger.Debug("key wait released", slog.Int("key", int(key)))
		return nil
	}

	pc := m.pc

	opcode, err := m.OpcodeAt(pc)
	if err != nil {
		return &ExecError{Address: pc, Err: err}
	}

	inst := Decode(opcode)

	if in.logger.Enabled(context.Background(), slog.LevelDebug) {
		in.logger.Debug("exec",
			slog.String("pc", u16toh(pc, 3)),
			slog.String("op", inst.String()))
	}

	next, err := in.execute(inst)
	if err != nil {
		if errors.Is(err, ErrUnknownOpcode) {
			m.pc = pc + 2
		}
		return &ExecError{Address: pc, Opcode: opcode, Err: err}
	}

	m.pc = next
	in.cycles++
	return nil
}

// execute applies inst and returns the next program counter.
func (in *Interpreter) execute(inst Instruction) (uint16, error) {
	m := in.m
	next := m.pc + 2
	x, y := inst.X, inst.Y

	switch inst.Op {
	case OpCLS:
		m.display.Clear()
	case OpRET:
		return returnFromSubroutine(m)
	case OpJP:
		return inst.NNN, nil
	case OpCALL:
		return callSubroutine(m, inst.NNN, next)
	case OpSEByte:
		return skipIf(next, m.v[x] == inst.NN), nil
	case OpSNEByte:
		return skipIf(next, m.v[x] != inst.NN), nil
	case OpSEReg:
		return skipIf(next, m.v[x] == m.v[y]), nil
	case OpLDByte:
		m.v[x] = inst.NN
	case OpADDByte:
		m.v[x] += inst.NN
	case OpLDReg:
		m.v[x] = m.v[y]
	case OpOR:
		m.v[x] |= m.v[y]
		in.logicFlag()
	case OpAND:
		m.v[x] &= m.v[y]
		in.logicFlag()
	case OpXOR:
		m.v[x] ^= m.v[y]
		in.logicFlag()
	case OpADDReg:
		addXY(m, x, y)
	case OpSUB:
		subtractYFromX(m, x, y)
	case OpSHR:
		shiftRight(m, x, in.shiftSource(x, y))
	case OpSUBN:
		subtractXFromY(m, x, y)
	case OpSHL:
		shiftLeft(m, x, in.shiftSource(x, y))
	case OpSNEReg:
		return skipIf(next, m.v[x] != m.v[y]), nil
	case OpLDI:
		m.i = inst.NNN
	case OpJPV0:
		return inst.NNN + uint16(m.v[0x0]), nil
	case OpRND:
		m.v[x] = byte(in.rng.Uint32N(256)) & inst.NN
	case OpDRW:
		drawSprite(m, x, y, inst.N)
	case OpSKP:
		return skipIf(next, m.keypad.keys[m.v[x]&0x0F]), nil
	case OpSKNP:
		return skipIf(next, !m.keypad.keys[m.v[x]&0x0F]), nil
	case OpLDVxDT:
		m.v[x] = m.delay
	case OpLDVxK:
		// The program counter stays on this instruction until Step sees a key.
		in.state = WaitingForKey
		in.keyRegister = x
		in.logger.Debug("waiting for key", slog.Int("register", int(x)))
		return m.pc, nil
	case OpLDDTVx:
		m.delay = m.v[x]
	case OpLDSTVx:
		m.sound = m.v[x]
	case OpADDI:
		m.i += uint16(m.v[x])
	case OpLDF:
		m.i = FontStartAddress + uint16(m.v[x]&0x0F)*FontGlyphSize
	case OpLDB:
		binaryCodedDecimal(m, x)
	case OpStore:
		setRegistersToMemory(m, x)
	case OpRestore:
		setMemoryToRegisters(m, x)
	default:
		return 0, ErrUnknownOpcode
	}

	return next, nil
}

// keyWaitPending reports whether the instruction at PC is still the FX0A
// that started the wait. It is not after the machine was reset or reloaded
// directly.
func (in *Interpreter) keyWaitPending() bool {
	op, err := in.m.OpcodeAt(in.m.pc)
	if err != nil {
		return false
	}
	inst := Decode(op)
	return inst.Op == OpLDVxK && inst.X == in.keyRegister
}

func (in *Interpreter) logicFlag() {
	if in.quirks.LogicResetsVF {
		in.m.v[CarryFlag] = 0
	}
}

func (in *Interpreter) shiftSource(x, y uint8) uint8 {
	if in.quirks.ShiftUsesVY {
		return y
	}
	return x
}

func skipIf(next uint16, cond bool) uint16 {
	if cond {
		return next + 2
	}
	return next
}
