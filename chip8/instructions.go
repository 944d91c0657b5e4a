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

func callSubroutine(m *Machine, nnn, ret uint16) (uint16, error) {
	if int(m.sp) >= len(m.stack) {
		return 0, ErrStackOverflow
	}
	m.stack[m.sp] = ret
	m.sp++
	return nnn, nil
}

func returnFromSubroutine(m *Machine) (uint16, error) {
	if m.sp == 0 {
		return 0, ErrStackUnderflow
	}
	m.sp--
	return m.stack[m.sp], nil
}

// Flag-setting instructions write the result first and VF last, so VF holds
// the flag when X is F.

func addXY(m *Machine, x, y uint8) {
	sum := uint16(m.v[x]) + uint16(m.v[y])
	m.v[x] = byte(sum)
	m.v[CarryFlag] = flag(sum > 0xFF)
}

// VF is 1 when no borrow occurs.
func subtractYFromX(m *Machine, x, y uint8) {
	vx, vy := m.v[x], m.v[y]
	m.v[x] = vx - vy
	m.v[CarryFlag] = flag(vx >= vy)
}

func subtractXFromY(m *Machine, x, y uint8) {
	vx, vy := m.v[x], m.v[y]
	m.v[x] = vy - vx
	m.v[CarryFlag] = flag(vy >= vx)
}

func shiftRight(m *Machine, x, src uint8) {
	v := m.v[src]
	m.v[x] = v >> 1
	m.v[CarryFlag] = v & 0x1
}

func shiftLeft(m *Machine, x, src uint8) {
	v := m.v[src]
	m.v[x] = v << 1
	m.v[CarryFlag] = (v & 0x80) >> 7
}

// drawSprite draws the n-byte sprite at I to (VX, VY). I is unchanged.
func drawSprite(m *Machine, x, y, n uint8) {
	var sprite [15]byte
	for row := range uint16(n) {
		sprite[row] = m.memory[address(m.i+row)]
	}

	collision := m.display.DrawSprite(int(m.v[x]), int(m.v[y]), sprite[:n])
	m.v[CarryFlag] = flag(collision)
}

// binaryCodedDecimal stores the hundreds, tens and ones digits of VX at I,
// I+1 and I+2 using the double dabble algorithm: shift the input into a BCD
// register one bit at a time, first adding 3 to any digit that is 5 or more.
func binaryCodedDecimal(m *Machine, x uint8) {
	var bcd uint32
	val := uint32(m.v[x])

	for i := range 8 {
		if (bcd & 0x00F) >= 0x005 {
			bcd += 0x003
		}
		if (bcd & 0x0F0) >= 0x050 {
			bcd += 0x030
		}
		if (bcd & 0xF00) >= 0x500 {
			bcd += 0x300
		}
		bcd = (bcd << 1) | ((val >> (7 - i)) & 1)
	}

	m.memory[address(m.i)] = byte((bcd >> 8) & 0xF)   // Hundreds
	m.memory[address(m.i+1)] = byte((bcd >> 4) & 0xF) // Tens
	m.memory[address(m.i+2)] = byte(bcd & 0xF)        // Ones
}

func setRegistersToMemory(m *Machine, x uint8) {
	for i := uint16(0); i <= uint16(x); i++ {
		m.memory[address(m.i+i)] = m.v[i]
	}
}

func setMemoryToRegisters(m *Machine, x uint8) {
	for i := uint16(0); i <= uint16(x); i++ {
		m.v[i] = m.memory[address(m.i+i)]
	}
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}
