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
	"bytes"
	"errors"
	"log/slog"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRandom uint32

func (f fixedRandom) Uint32N(n uint32) uint32 {
	return uint32(f) % n
}

func newInterpreter(t *testing.T, words ...uint16) *Interpreter {
	t.Helper()

	program := make([]byte, 0, len(words)*2)
	for _, w := range words {
		program = append(program, byte(w>>8), byte(w))
	}

	m := NewMachine()
	require.NoError(t, m.Load(program))
	return NewInterpreter(m, WithRandom(fixedRandom(0xAB)))
}

func run(t *testing.T, in *Interpreter, steps int) {
	t.Helper()
	for range steps {
		require.NoError(t, in.Step())
	}
}

func TestAddRegisters(t *testing.T) {
	in := newInterpreter(t, 0x6AFA, 0x6B0A, 0x8AB4)
	run(t, in, 3)

	m := in.Machine()
	assert.Equal(t, byte(4), m.Register(0xA))
	assert.Equal(t, byte(1), m.Register(0xF))

	in = newInterpreter(t, 0x600A, 0x6114, 0x8014)
	run(t, in, 3)

	m = in.Machine()
	assert.Equal(t, byte(30), m.Register(0))
	assert.Equal(t, byte(0), m.Register(0xF))
}

func TestAddByteLeavesFlag(t *testing.T) {
	in := newInterpreter(t, 0x6F07, 0x60FF, 0x7002)
	run(t, in, 3)

	m := in.Machine()
	assert.Equal(t, byte(1), m.Register(0))
	assert.Equal(t, byte(7), m.Register(0xF))
}

func TestSubtract(t *testing.T) {
	tests := []struct {
		name   string
		vx, vy byte
		op     uint16
		result byte
		flag   byte
	}{
		{"sub borrow", 10, 20, 0x8015, 246, 0},
		{"sub no borrow", 20, 10, 0x8015, 10, 1},
		{"sub equal", 10, 10, 0x8015, 0, 1},
		{"subn no borrow", 10, 20, 0x8017, 10, 1},
		{"subn borrow", 20, 10, 0x8017, 246, 0},
		{"subn equal", 7, 7, 0x8017, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newInterpreter(t, 0x6000|uint16(tt.vx), 0x6100|uint16(tt.vy), tt.op)
			run(t, in, 3)

			m := in.Machine()
			assert.Equal(t, tt.result, m.Register(0))
			assert.Equal(t, tt.flag, m.Register(0xF))
		})
	}
}

func TestFlagWrittenAfterResult(t *testing.T) {
	// ADD VF, V1 with carry
	in := newInterpreter(t, 0x6FFF, 0x6101, 0x8F14)
	run(t, in, 3)
	assert.Equal(t, byte(1), in.Machine().Register(0xF))

	// SUB VF, V1 with borrow
	in = newInterpreter(t, 0x6F01, 0x6102, 0x8F15)
	run(t, in, 3)
	assert.Equal(t, byte(0), in.Machine().Register(0xF))

	// SHR VF
	in = newInterpreter(t, 0x6F02, 0x8F06)
	run(t, in, 2)
	assert.Equal(t, byte(0), in.Machine().Register(0xF))
}

func TestShift(t *testing.T) {
	in := newInterpreter(t, 0x6005, 0x8006)
	run(t, in, 2)
	assert.Equal(t, byte(2), in.Machine().Register(0))
	assert.Equal(t, byte(1), in.Machine().Register(0xF))

	in = newInterpreter(t, 0x6081, 0x800E)
	run(t, in, 2)
	assert.Equal(t, byte(2), in.Machine().Register(0))
	assert.Equal(t, byte(1), in.Machine().Register(0xF))

	in = newInterpreter(t, 0x6040, 0x800E)
	run(t, in, 2)
	assert.Equal(t, byte(0x80), in.Machine().Register(0))
	assert.Equal(t, byte(0), in.Machine().Register(0xF))
}

func TestShiftUsesVYQuirk(t *testing.T) {
	m := NewMachine()
	require.NoError(t, m.Load([]byte{0x60, 0xF0, 0x61, 0x03, 0x80, 0x16}))
	in := NewInterpreter(m, WithQuirks(Quirks{ShiftUsesVY: true}))
	run(t, in, 3)

	assert.Equal(t, byte(1), m.Register(0))
	assert.Equal(t, byte(3), m.Register(1))
	assert.Equal(t, byte(1), m.Register(0xF))
}

func TestLogic(t *testing.T) {
	tests := []struct {
		op     uint16
		result byte
	}{
		{0x8011, 0xCC | 0xAA},
		{0x8012, 0xCC & 0xAA},
		{0x8013, 0xCC ^ 0xAA},
		{0x8010, 0xAA},
	}

	for _, tt := range tests {
		in := newInterpreter(t, 0x60CC, 0x61AA, 0x6F05, tt.op)
		run(t, in, 4)
		assert.Equal(t, tt.result, in.Machine().Register(0), "opcode %04X", tt.op)
		assert.Equal(t, byte(5), in.Machine().Register(0xF))
	}
}

func TestLogicResetsVFQuirk(t *testing.T) {
	m := NewMachine()
	require.NoError(t, m.Load([]byte{0x6F, 0x05, 0x80, 0x11}))
	in := NewInterpreter(m, WithQuirks(Quirks{LogicResetsVF: true}))
	run(t, in, 2)

	assert.Equal(t, byte(0), m.Register(0xF))
}

func TestSkips(t *testing.T) {
	tests := []struct {
		name    string
		program []uint16
		pc      uint16
	}{
		{"SE byte taken", []uint16{0x6005, 0x3005}, 0x206},
		{"SE byte not taken", []uint16{0x6005, 0x3006}, 0x204},
		{"SNE byte taken", []uint16{0x6005, 0x4006}, 0x206},
		{"SNE byte not taken", []uint16{0x6005, 0x4005}, 0x204},
		{"SE reg taken", []uint16{0x6005, 0x6105, 0x5010}, 0x208},
		{"SE reg not taken", []uint16{0x6005, 0x6106, 0x5010}, 0x206},
		{"SNE reg taken", []uint16{0x6005, 0x6106, 0x9010}, 0x208},
		{"SNE reg not taken", []uint16{0x6005, 0x6105, 0x9010}, 0x206},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newInterpreter(t, tt.program...)
			run(t, in, len(tt.program))
			assert.Equal(t, tt.pc, in.Machine().ProgramCounter())
		})
	}
}

func TestSkipKey(t *testing.T) {
	in := newInterpreter(t, 0x6017, 0xE09E)
	require.NoError(t, in.Machine().Keypad().SetKeyDown(7))
	run(t, in, 2)
	assert.Equal(t, uint16(0x206), in.Machine().ProgramCounter(), "low nibble of V0 selects the key")

	in = newInterpreter(t, 0x6007, 0xE09E)
	run(t, in, 2)
	assert.Equal(t, uint16(0x204), in.Machine().ProgramCounter())

	in = newInterpreter(t, 0x6007, 0xE0A1)
	run(t, in, 2)
	assert.Equal(t, uint16(0x206), in.Machine().ProgramCounter())

	in = newInterpreter(t, 0x6007, 0xE0A1)
	require.NoError(t, in.Machine().Keypad().SetKeyDown(7))
	run(t, in, 2)
	assert.Equal(t, uint16(0x204), in.Machine().ProgramCounter())
}

func TestJump(t *testing.T) {
	in := newInterpreter(t, 0x1300)
	run(t, in, 1)
	assert.Equal(t, uint16(0x300), in.Machine().ProgramCounter())

	in = newInterpreter(t, 0x6004, 0xB300)
	run(t, in, 2)
	assert.Equal(t, uint16(0x304), in.Machine().ProgramCounter())
}

func TestCallReturn(t *testing.T) {
	in := newInterpreter(t, 0x2300)
	m := in.Machine()
	m.memory[0x300] = 0x00
	m.memory[0x301] = 0xEE

	run(t, in, 1)
	assert.Equal(t, uint16(0x300), m.ProgramCounter())
	assert.Equal(t, 1, m.StackDepth())

	run(t, in, 1)
	assert.Equal(t, uint16(0x202), m.ProgramCounter())
	assert.Equal(t, 0, m.StackDepth())
}

func TestStackOverflow(t *testing.T) {
	in := newInterpreter(t, 0x2200)
	m := in.Machine()

	run(t, in, StackSize)
	assert.Equal(t, StackSize, m.StackDepth())

	err := in.Step()
	require.ErrorIs(t, err, ErrStackOverflow)
	assert.True(t, IsFatal(err))
	assert.Equal(t, StackSize, m.StackDepth())
	assert.Equal(t, uint16(0x200), m.ProgramCounter())
}

func TestStackUnderflow(t *testing.T) {
	in := newInterpreter(t, 0x00EE)

	err := in.Step()
	require.ErrorIs(t, err, ErrStackUnderflow)
	assert.True(t, IsFatal(err))
	assert.Equal(t, uint16(0x200), in.Machine().ProgramCounter())
}

func TestUnknownOpcode(t *testing.T) {
	in := newInterpreter(t, 0x5011, 0x6001)

	err := in.Step()
	require.ErrorIs(t, err, ErrUnknownOpcode)
	assert.False(t, IsFatal(err))

	var execErr *ExecError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, uint16(0x200), execErr.Address)
	assert.Equal(t, Opcode(0x5011), execErr.Opcode)

	assert.Equal(t, uint16(0x202), in.Machine().ProgramCounter())
	run(t, in, 1)
	assert.Equal(t, byte(1), in.Machine().Register(0))
}

func TestProgramCounterOutOfBounds(t *testing.T) {
	in := newInterpreter(t, 0x1FFF)
	run(t, in, 1)

	err := in.Step()
	require.ErrorIs(t, err, ErrProgramCounterOutOfBounds)
	assert.True(t, IsFatal(err))

	var execErr *ExecError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, uint16(0xFFF), execErr.Address)

	// the last full word is still fetched
	in = newInterpreter(t, 0x1FFE)
	run(t, in, 1)
	err = in.Step()
	require.ErrorIs(t, err, ErrUnknownOpcode)
	assert.Equal(t, uint16(0x1000), in.Machine().ProgramCounter())
	assert.ErrorIs(t, in.Step(), ErrProgramCounterOutOfBounds)
}

func TestProgramCounterAdvance(t *testing.T) {
	// every non-control instruction advances by exactly one word
	for _, op := range []uint16{
		0x00E0, 0x6012, 0x7012, 0x8010, 0x8011, 0x8012, 0x8013, 0x8014, 0x8015,
		0x8016, 0x8017, 0x801E, 0xA123, 0xC0FF, 0xD015, 0xF007, 0xF015, 0xF018,
		0xF01E, 0xF029, 0xF033, 0xF055, 0xF065,
	} {
		in := newInterpreter(t, op)
		run(t, in, 1)
		assert.Equal(t, uint16(0x202), in.Machine().ProgramCounter(), "opcode %04X", op)
	}
}

func TestRandom(t *testing.T) {
	in := newInterpreter(t, 0xC00F)
	run(t, in, 1)
	assert.Equal(t, byte(0x0B), in.Machine().Register(0))

	m := NewMachine()
	require.NoError(t, m.Load([]byte{0xC1, 0xF3, 0xC1, 0xF3}))
	in = NewInterpreter(m, WithRandom(rand.New(rand.NewPCG(1, 2))))
	expected := rand.New(rand.NewPCG(1, 2))

	for range 2 {
		run(t, in, 1)
		assert.Equal(t, byte(expected.Uint32N(256))&0xF3, m.Register(1))
	}
}

func TestTimers(t *testing.T) {
	in := newInterpreter(t, 0x6020, 0xF015, 0xF018, 0xF107)
	run(t, in, 4)

	m := in.Machine()
	assert.Equal(t, uint8(0x20), m.DelayTimer())
	assert.Equal(t, uint8(0x20), m.SoundTimer())
	assert.Equal(t, byte(0x20), m.Register(1))

	m.TickTimers()
	assert.Equal(t, uint8(0x1F), m.DelayTimer())
	assert.Equal(t, uint8(0x1F), m.SoundTimer())
}

func TestIndex(t *testing.T) {
	in := newInterpreter(t, 0xA100, 0x6005, 0xF01E)
	run(t, in, 3)
	assert.Equal(t, uint16(0x105), in.Machine().Index())

	in = newInterpreter(t, 0x601A, 0xF029)
	run(t, in, 2)
	assert.Equal(t, FontStartAddress+0xA*FontGlyphSize, in.Machine().Index(), "low nibble selects the glyph")
}

func TestBinaryCodedDecimal(t *testing.T) {
	for _, v := range []byte{0, 7, 42, 100, 156, 254, 255} {
		in := newInterpreter(t, 0xA300, 0x6000|uint16(v), 0xF033)
		run(t, in, 3)

		m := in.Machine()
		var digits [3]byte
		m.ReadMemory(0x300, digits[:])
		assert.Equal(t, [3]byte{v / 100, v / 10 % 10, v % 10}, digits, "value %d", v)
		assert.Equal(t, uint16(0x300), m.Index())
	}
}

func TestStoreRestore(t *testing.T) {
	in := newInterpreter(t, 0x6011, 0x6122, 0x6233, 0x6344, 0xA300, 0xF255)
	run(t, in, 6)

	m := in.Machine()
	var stored [4]byte
	m.ReadMemory(0x300, stored[:])
	assert.Equal(t, [4]byte{0x11, 0x22, 0x33, 0x00}, stored)
	assert.Equal(t, uint16(0x300), m.Index())

	in = newInterpreter(t, 0xA300, 0xF165)
	m = in.Machine()
	m.memory[0x300] = 0x99
	m.memory[0x301] = 0x88
	m.memory[0x302] = 0x77
	run(t, in, 2)

	assert.Equal(t, byte(0x99), m.Register(0))
	assert.Equal(t, byte(0x88), m.Register(1))
	assert.Equal(t, byte(0), m.Register(2))
	assert.Equal(t, uint16(0x300), m.Index())
}

func TestStoreWrapsAddress(t *testing.T) {
	in := newInterpreter(t, 0xAFFF, 0x6001, 0x6102, 0xF155)
	run(t, in, 4)

	var b [1]byte
	m := in.Machine()
	m.ReadMemory(0xFFF, b[:])
	assert.Equal(t, byte(1), b[0])
	m.ReadMemory(0x000, b[:])
	assert.Equal(t, byte(2), b[0])
}

func TestDrawScenario(t *testing.T) {
	// CLS; LD V0, 5; LD V1, 5; DRW V0, V1, 1 with I at the first font row (0xF0)
	in := newInterpreter(t, 0x00E0, 0x6005, 0x6105, 0xD011)
	run(t, in, 4)

	m := in.Machine()
	d := m.Display()
	for y := range Height {
		for x := range Width {
			on, err := d.IsPixelLit(x, y)
			require.NoError(t, err)
			assert.Equal(t, y == 5 && x >= 5 && x < 9, on, "pixel (%d,%d)", x, y)
		}
	}
	assert.Equal(t, byte(0), m.Register(0xF))
	assert.Equal(t, uint16(0), m.Index())
}

func TestDrawCollision(t *testing.T) {
	in := newInterpreter(t, 0xD011, 0xD011)
	run(t, in, 1)
	assert.Equal(t, byte(0), in.Machine().Register(0xF))

	run(t, in, 1)
	assert.Equal(t, byte(1), in.Machine().Register(0xF))
	assert.Equal(t, 0, lit(t, in.Machine().Display()))
}

func TestWaitForKey(t *testing.T) {
	in := newInterpreter(t, 0xF30A, 0x6001)
	m := in.Machine()

	run(t, in, 1)
	assert.Equal(t, WaitingForKey, in.State())
	assert.Equal(t, uint16(0x200), m.ProgramCounter())

	run(t, in, 3)
	assert.Equal(t, WaitingForKey, in.State())
	assert.Equal(t, uint16(0x200), m.ProgramCounter())
	assert.Equal(t, int64(1), in.Cycles())

	require.NoError(t, m.Keypad().SetKeyDown(9))
	require.NoError(t, m.Keypad().SetKeyDown(5))
	run(t, in, 1)
	assert.Equal(t, Running, in.State())
	assert.Equal(t, byte(5), m.Register(3))
	assert.Equal(t, uint16(0x202), m.ProgramCounter())

	run(t, in, 1)
	assert.Equal(t, byte(1), m.Register(0))
	assert.Equal(t, int64(2), in.Cycles())
}

func TestInterpreterReset(t *testing.T) {
	in := newInterpreter(t, 0x6001, 0xF00A)
	run(t, in, 2)
	require.Equal(t, WaitingForKey, in.State())

	in.Reset()
	assert.Equal(t, Running, in.State())
	assert.Equal(t, int64(0), in.Cycles())
	assert.Equal(t, ProgramStartAddress, in.Machine().ProgramCounter())
	assert.Equal(t, byte(0), in.Machine().Register(0))
}

func TestMachineResetEndsKeyWait(t *testing.T) {
	in := newInterpreter(t, 0x6105, 0xF00A)
	m := in.Machine()

	run(t, in, 2)
	require.Equal(t, WaitingForKey, in.State())

	m.Reset()
	require.NoError(t, m.Load([]byte{0x62, 0x07, 0xF0, 0x0A}))
	require.NoError(t, m.Keypad().SetKeyDown(3))

	run(t, in, 1)
	assert.Equal(t, byte(7), m.Register(2))
	assert.Equal(t, byte(0), m.Register(0))
	assert.Equal(t, uint16(0x202), m.ProgramCounter())

	run(t, in, 2)
	assert.Equal(t, Running, in.State())
	assert.Equal(t, byte(3), m.Register(0))
}

func TestTraceLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	m := NewMachine()
	require.NoError(t, m.Load([]byte{0x00, 0xE0}))
	in := NewInterpreter(m, WithLogger(logger))
	run(t, in, 1)

	assert.Contains(t, buf.String(), "pc=200")
	assert.Contains(t, buf.String(), "op=CLS")
}
