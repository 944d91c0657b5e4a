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
	"chip8vm/byteconv"
)

// Opcode is a raw 16-bit instruction word.
type Opcode uint16

func (o Opcode) kind() uint8 {
	return uint8((uint16(o) & 0xF000) >> 12)
}

func (o Opcode) x() uint8 {
	return uint8((uint16(o) & 0x0F00) >> 8)
}

func (o Opcode) y() uint8 {
	return uint8((uint16(o) & 0x00F0) >> 4)
}

func (o Opcode) n() uint8 {
	return uint8(uint16(o) & 0x000F)
}

func (o Opcode) nn() uint8 {
	return uint8(uint16(o) & 0x00FF)
}

func (o Opcode) nnn() uint16 {
	return uint16(o) & 0x0FFF
}

// Operation identifies a decoded instruction.
type Operation uint8

const (
	OpUnknown Operation = iota
	OpCLS               // 00E0
	OpRET               // 00EE
	OpJP                // 1NNN
	OpCALL              // 2NNN
	OpSEByte            // 3XNN
	OpSNEByte           // 4XNN
	OpSEReg             // 5XY0
	OpLDByte            // 6XNN
	OpADDByte           // 7XNN
	OpLDReg             // 8XY0
	OpOR                // 8XY1
	OpAND               // 8XY2
	OpXOR               // 8XY3
	OpADDReg            // 8XY4
	OpSUB               // 8XY5
	OpSHR               // 8XY6
	OpSUBN              // 8XY7
	OpSHL               // 8XYE
	OpSNEReg            // 9XY0
	OpLDI               // ANNN
	OpJPV0              // BNNN
	OpRND               // CXNN
	OpDRW               // DXYN
	OpSKP               // EX9E
	OpSKNP              // EXA1
	OpLDVxDT            // FX07
	OpLDVxK             // FX0A
	OpLDDTVx            // FX15
	OpLDSTVx            // FX18
	OpADDI              // FX1E
	OpLDF               // FX29
	OpLDB               // FX33
	OpStore             // FX55
	OpRestore           // FX65
)

// Instruction is an opcode split into its operation and operand fields.
type Instruction struct {
	Op     Operation
	Opcode Opcode
	X      uint8
	Y      uint8
	N      uint8
	NN     uint8
	NNN    uint16
}

// Decode matches the full instruction pattern of o. Words that do not
// match a known pattern decode to OpUnknown.
func Decode(o Opcode) Instruction {
	inst := Instruction{
		Opcode: o,
		X:      o.x(),
		Y:      o.y(),
		N:      o.n(),
		NN:     o.nn(),
		NNN:    o.nnn(),
	}
	inst.Op = operation(o)
	return inst
}

func operation(o Opcode) Operation {
	switch o.kind() {
	case 0x0:
		switch uint16(o) {
		case 0x00E0:
			return OpCLS
		case 0x00EE:
			return OpRET
		}
	case 0x1:
		return OpJP
	case 0x2:
		return OpCALL
	case 0x3:
		return OpSEByte
	case 0x4:
		return OpSNEByte
	case 0x5:
		if o.n() == 0x0 {
			return OpSEReg
		}
	case 0x6:
		return OpLDByte
	case 0x7:
		return OpADDByte
	case 0x8:
		switch o.n() {
		case 0x0:
			return OpLDReg
		case 0x1:
			return OpOR
		case 0x2:
			return OpAND
		case 0x3:
			return OpXOR
		case 0x4:
			return OpADDReg
		case 0x5:
			return OpSUB
		case 0x6:
			return OpSHR
		case 0x7:
			return OpSUBN
		case 0xE:
			return OpSHL
		}
	case 0x9:
		if o.n() == 0x0 {
			return OpSNEReg
		}
	case 0xA:
		return OpLDI
	case 0xB:
		return OpJPV0
	case 0xC:
		return OpRND
	case 0xD:
		return OpDRW
	case 0xE:
		switch o.nn() {
		case 0x9E:
			return OpSKP
		case 0xA1:
			return OpSKNP
		}
	case 0xF:
		switch o.nn() {
		case 0x07:
			return OpLDVxDT
		case 0x0A:
			return OpLDVxK
		case 0x15:
			return OpLDDTVx
		case 0x18:
			return OpLDSTVx
		case 0x1E:
			return OpADDI
		case 0x29:
			return OpLDF
		case 0x33:
			return OpLDB
		case 0x55:
			return OpStore
		case 0x65:
			return OpRestore
		}
	}
	return OpUnknown
}

var (
	u16toh = byteconv.U16toh
	u8toh  = byteconv.U8toh
)

func (o Opcode) String() string {
	return Decode(o).String()
}

// String returns the conventional assembler mnemonic. Unknown words are
// rendered as a data word.
func (inst Instruction) String() string {
	vx := "V" + u8toh(inst.X, 1)
	vy := "V" + u8toh(inst.Y, 1)

	switch inst.Op {
	case OpCLS:
		return "CLS"
	case OpRET:
		return "RET"
	case OpJP:
		return "JP " + u16toh(inst.NNN, 3)
	case OpCALL:
		return "CALL " + u16toh(inst.NNN, 3)
	case OpSEByte:
		return "SE " + vx + ", " + u8toh(inst.NN, 2)
	case OpSNEByte:
		return "SNE " + vx + ", " + u8toh(inst.NN, 2)
	case OpSEReg:
		return "SE " + vx + ", " + vy
	case OpLDByte:
		return "LD " + vx + ", " + u8toh(inst.NN, 2)
	case OpADDByte:
		return "ADD " + vx + ", " + u8toh(inst.NN, 2)
	case OpLDReg:
		return "LD " + vx + ", " + vy
	case OpOR:
		return "OR " + vx + ", " + vy
	case OpAND:
		return "AND " + vx + ", " + vy
	case OpXOR:
		return "XOR " + vx + ", " + vy
	case OpADDReg:
		return "ADD " + vx + ", " + vy
	case OpSUB:
		return "SUB " + vx + ", " + vy
	case OpSHR:
		return "SHR " + vx
	case OpSUBN:
		return "SUBN " + vx + ", " + vy
	case OpSHL:
		return "SHL " + vx
	case OpSNEReg:
		return "SNE " + vx + ", " + vy
	case OpLDI:
		return "LD I, " + u16toh(inst.NNN, 3)
	case OpJPV0:
		return "JP V0, " + u16toh(inst.NNN, 3)
	case OpRND:
		return "RND " + vx + ", " + u8toh(inst.NN, 2)
	case OpDRW:
		return "DRW " + vx + ", " + vy + ", " + u8toh(inst.N, 1)
	case OpSKP:
		return "SKP " + vx
	case OpSKNP:
		return "SKNP " + vx
	case OpLDVxDT:
		return "LD " + vx + ", DT"
	case OpLDVxK:
		return "LD " + vx + ", K"
	case OpLDDTVx:
		return "LD DT, " + vx
	case OpLDSTVx:
		return "LD ST, " + vx
	case OpADDI:
		return "ADD I, " + vx
	case OpLDF:
		return "LD F, " + vx
	case OpLDB:
		return "LD B, " + vx
	case OpStore:
		return "LD [I], " + vx
	case OpRestore:
		return "LD " + vx + ", [I]"
	}
	return "DW " + u16toh(uint16(inst.Opcode), 4)
}
