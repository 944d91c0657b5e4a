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

const KeyCount int = 16

// Keypad holds the state of the hexadecimal keypad.
//
//	1 2 3 C
//	4 5 6 D
//	7 8 9 E
//	A 0 B F
type Keypad struct {
	keys [KeyCount]bool
}

func (k *Keypad) SetKeyDown(key uint8) error {
	return k.set(key, true)
}

func (k *Keypad) SetKeyUp(key uint8) error {
	return k.set(key, false)
}

func (k *Keypad) set(key uint8, down bool) error {
	if int(key) >= KeyCount {
		return ErrInvalidKeyIndex
	}
	k.keys[key] = down
	return nil
}

func (k *Keypad) IsKeyDown(key uint8) (bool, error) {
	if int(key) >= KeyCount {
		return false, ErrInvalidKeyIndex
	}
	return k.keys[key], nil
}

// AnyKeyDown returns the lowest key currently held down.
func (k *Keypad) AnyKeyDown() (uint8, bool) {
	for i, down := range k.keys {
		if down {
			return uint8(i), true
		}
	}
	return 0, false
}

func (k *Keypad) Clear() {
	for i := range k.keys {
		k.keys[i] = false
	}
}
