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
	"errors"
	"fmt"
)

var (
	ErrProgramTooLarge           = errors.New("program too large")
	ErrProgramCounterOutOfBounds = errors.New("program counter out of bounds")
	ErrUnknownOpcode             = errors.New("unknown opcode")
	ErrStackOverflow             = errors.New("stack overflow")
	ErrStackUnderflow            = errors.New("stack underflow")
	ErrInvalidKeyIndex           = errors.New("invalid key index")
	ErrOutOfBounds               = errors.New("out of bounds")
)

// ExecError is returned by Interpreter.Step. It records the address and the
// instruction word that failed.
type ExecError struct {
	Address uint16
	Opcode  Opcode
	Err     error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("0x%03X: %04X: %v", e.Address, uint16(e.Opcode), e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err leaves the interpreter unable to continue.
// Only unknown opcodes are recoverable.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrUnknownOpcode)
}
