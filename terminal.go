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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	tm "github.com/buger/goterm"
	"github.com/pkg/term"

	"chip8vm/chip8"
)

// A terminal reports key presses but not releases, so every press is held
// for keyHold.
const keyHold = 100 * time.Millisecond

var terminalKeys = map[byte]uint8{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
	'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
}

// RenderText draws the display with half-block characters, two pixel rows
// per line of text.
func RenderText(d *chip8.Display) string {
	var sb strings.Builder
	sb.Grow((chip8.Width*3 + 1) * chip8.Height / 2)

	for y := 0; y < chip8.Height; y += 2 {
		for x := range chip8.Width {
			top, _ := d.IsPixelLit(x, y)
			bottom, _ := d.IsPixelLit(x, y+1)

			switch {
			case top && bottom:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bottom:
				sb.WriteRune('▄')
			default:
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// RunTerminal runs the emulator, redrawing the terminal whenever the
// display changes. Keys are read from the controlling terminal in cbreak
// mode; without one the program runs with no input.
func RunTerminal(ctx context.Context, e *Emulator) error {
	tty, err := term.Open("/dev/tty", term.CBreakMode)
	if err != nil {
		e.logger.Warn("keyboard unavailable", slog.Any("error", err))
		return runTerminal(ctx, e)
	}

	go func() {
		if err := readKeys(e, tty); err != nil {
			e.logger.Warn("keyboard input stopped", slog.Any("error", err))
		}
	}()

	err = runTerminal(ctx, e)

	_ = tty.Restore()
	_ = tty.Close()
	return err
}

func runTerminal(ctx context.Context, e *Emulator) error {
	return e.Run(ctx, func(d *chip8.Display) {
		tm.Clear()
		tm.MoveCursor(1, 1)

		fmt.Fprint(tm.Screen, RenderText(d))
		fmt.Fprintf(tm.Screen, "cycles %d\n", e.interp.Cycles())

		tm.Flush()
	})
}

// readKeys feeds key presses read from r to e until r is exhausted or
// closed. P toggles pause.
func readKeys(e *Emulator, r io.Reader) error {
	buf := make([]byte, 16)

	for {
		n, err := r.Read(buf)

		for _, b := range buf[:n] {
			if b >= 'A' && b <= 'Z' {
				b += 'a' - 'A'
			}

			if b == 'p' {
				e.TogglePause()
				continue
			}

			key, ok := terminalKeys[b]
			if !ok {
				continue
			}
			_ = e.KeyDown(key)
			time.AfterFunc(keyHold, func() {
				_ = e.KeyUp(key)
			})
		}

		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return err
		}
	}
}
