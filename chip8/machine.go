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

import "time"

const (
	MemorySize          int    = 4096
	RegisterCount       int    = 16
	StackSize           int    = 16
	FontStartAddress    uint16 = 0x000
	FontGlyphSize       uint16 = 5
	ProgramStartAddress uint16 = 0x200
	MaxProgramSize      int    = MemorySize - int(ProgramStartAddress)
	CarryFlag           uint8  = 0xF

	TimerRate time.Duration = time.Second / 60  // 60hz
	ClockRate time.Duration = time.Second / 700 // 700hz
)

var fontSet = [...]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Machine is the complete state of a CHIP-8 system. The zero value is not
// ready for use; create one with NewMachine.
type Machine struct {
	memory  [MemorySize]byte
	v       [RegisterCount]byte
	stack   [StackSize]uint16
	sp      uint8
	pc      uint16
	i       uint16
	delay   uint8
	sound   uint8
	display Display
	keypad  Keypad
}

func NewMachine() *Machine {
	m := &Machine{}
	m.Reset()
	return m
}

func (m *Machine) Reset() {
	for i := range m.memory {
		m.memory[i] = 0
	}

	for i := range m.v {
		m.v[i] = 0
	}

	for i := range m.stack {
		m.stack[i] = 0
	}

	m.sp = 0
	m.pc = ProgramStartAddress
	m.i = 0
	m.delay = 0
	m.sound = 0

	m.display.Clear()
	m.keypad.Clear()

	copy(m.memory[FontStartAddress:], fontSet[:])
}

// Load copies program into memory at ProgramStartAddress and zeroes the
// rest of program memory. Nothing is written when the program does not fit.
func (m *Machine) Load(program []byte) error {
	if len(program) > MaxProgramSize {
		return ErrProgramTooLarge
	}
	n := copy(m.memory[ProgramStartAddress:], program)
	clear(m.memory[int(ProgramStartAddress)+n:])
	return nil
}

// TickTimers counts both timers down by one. Hosts call it at TimerRate.
func (m *Machine) TickTimers() {
	if m.delay > 0 {
		m.delay--
	}

	if m.sound > 0 {
		m.sound--
	}
}

// ReadMemory copies memory starting at loc into data and returns the number
// of bytes copied.
func (m *Machine) ReadMemory(loc uint16, data []byte) int {
	if int(loc) >= MemorySize {
		return 0
	}
	return copy(data, m.memory[loc:])
}

// OpcodeAt returns the big-endian instruction word at loc.
func (m *Machine) OpcodeAt(loc uint16) (Opcode, error) {
	if int(loc)+1 >= MemorySize {
		return 0, ErrProgramCounterOutOfBounds
	}

	// opcode is a 16bit value, comprised of two contiguous 8bit values
	// in memory, starting at the program counter
	high := uint16(m.memory[loc])  // high-order bits of opcode
	low := uint16(m.memory[loc+1]) // low-order bits of opcode
	return Opcode((high << 8) | low), nil
}

func (m *Machine) Register(x uint8) byte {
	return m.v[x&0x0F]
}

func (m *Machine) Index() uint16 {
	return m.i
}

func (m *Machine) ProgramCounter() uint16 {
	return m.pc
}

func (m *Machine) StackDepth() int {
	return int(m.sp)
}

func (m *Machine) DelayTimer() uint8 {
	return m.delay
}

func (m *Machine) SoundTimer() uint8 {
	return m.sound
}

func (m *Machine) Display() *Display {
	return &m.display
}

func (m *Machine) Keypad() *Keypad {
	return &m.keypad
}

// address wraps a memory address into the 4K address space.
func address(a uint16) uint16 {
	return a & uint16(MemorySize-1)
}
