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

const (
	Width  int = 64
	Height int = 32
	Area   int = Width * Height
)

// Display is the monochrome framebuffer. Pixels are stored row-major.
type Display struct {
	pixels  [Area]bool
	changed bool
}

func (d *Display) Clear() {
	for i := range d.pixels {
		d.pixels[i] = false
	}
	d.changed = true
}

// DrawSprite XORs sprite onto the display with its top-left corner at (x, y).
// Each byte is one row of eight pixels, most significant bit leftmost.
// Pixels falling off an edge wrap around to the opposite edge. The result
// is true if any lit pixel was turned off.
func (d *Display) DrawSprite(x, y int, sprite []byte) bool {
	collision := false

	for row, bits := range sprite {
		py := mod(y+row, Height)

		for col := range 8 {
			if bits&(0x80>>col) == 0 {
				continue
			}

			px := mod(x+col, Width)
			index := px + py*Width

			if d.pixels[index] {
				collision = true
			}
			d.pixels[index] = !d.pixels[index]
		}
	}

	d.changed = true
	return collision
}

func (d *Display) IsPixelLit(x, y int) (bool, error) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return false, ErrOutOfBounds
	}
	return d.pixels[x+y*Width], nil
}

// Changed reports whether the display was modified since the last call to
// MarkRendered.
func (d *Display) Changed() bool {
	return d.changed
}

func (d *Display) MarkRendered() {
	d.changed = false
}

func mod(a, n int) int {
	a %= n
	if a < 0 {
		a += n
	}
	return a
}
