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

// Package window is the desktop front end: a fyne window showing the
// display, forwarding keyboard input and sounding the buzzer.
package window

import (
	"context"
	"errors"
	"image"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/sync/errgroup"

	"chip8vm"
	"chip8vm/chip8"
)

var keyMap = map[fyne.KeyName]uint8{
	fyne.Key1: 0x1, fyne.Key2: 0x2, fyne.Key3: 0x3, fyne.Key4: 0xC,
	fyne.KeyQ: 0x4, fyne.KeyW: 0x5, fyne.KeyE: 0x6, fyne.KeyR: 0xD,
	fyne.KeyA: 0x7, fyne.KeyS: 0x8, fyne.KeyD: 0x9, fyne.KeyF: 0xE,
	fyne.KeyZ: 0xA, fyne.KeyX: 0x0, fyne.KeyC: 0xB, fyne.KeyV: 0xF,
}

var (
	litColor   = color.White
	unlitColor = color.Black
)

// paint copies the display into buffer, one image pixel per CHIP-8 pixel.
func paint(buffer *image.RGBA, d *chip8.Display) {
	for y := range chip8.Height {
		for x := range chip8.Width {
			c := unlitColor
			if on, _ := d.IsPixelLit(x, y); on {
				c = litColor
			}
			buffer.Set(x, y, c)
		}
	}
}

type keyboard struct {
	emu *chip8vm.Emulator
}

func (k keyboard) onKeyDown(ev *fyne.KeyEvent) {
	if key, ok := keyMap[ev.Name]; ok {
		_ = k.emu.KeyDown(key)
	}
}

func (k keyboard) onKeyUp(ev *fyne.KeyEvent) {
	if ev.Name == fyne.KeyP {
		k.emu.TogglePause()
		return
	}

	if key, ok := keyMap[ev.Name]; ok {
		_ = k.emu.KeyUp(key)
	}
}

// Run opens the window and runs the emulator until the window is closed.
// When the program halts the error is shown in the status bar and the
// window stays open so the program can be reset.
func Run(emu *chip8vm.Emulator) error {
	a := app.New()
	w := a.NewWindow("CHIP-8")

	// Create a back-buffer for the pixel data
	buffer := image.NewRGBA(image.Rect(0, 0, chip8.Width, chip8.Height))
	paint(buffer, emu.Machine().Display())

	screen := canvas.NewImageFromImage(buffer)
	screen.FillMode = canvas.ImageFillStretch  // Scales the grid to window size
	screen.ScaleMode = canvas.ImageScalePixels // Maintains "pixelated" retro look

	canv, ok := w.Canvas().(desktop.Canvas) // Extension that exposes OnKeyUp event
	if !ok {
		return errors.New("window front end requires a desktop driver")
	}
	kb := keyboard{emu: emu}
	canv.SetOnKeyDown(kb.onKeyDown)
	canv.SetOnKeyUp(kb.onKeyUp)

	scale := float32(emu.Options().Scale)
	screenContent := container.New(
		layout.NewGridWrapLayout(fyne.NewSize(float32(chip8.Width)*scale, float32(chip8.Height)*scale)),
		screen,
	)

	status := widget.NewLabel("running")

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.MediaPlayIcon(), func() {
			emu.SetPaused(false)
			status.SetText("running")
		}),
		widget.NewToolbarAction(theme.MediaPauseIcon(), func() {
			emu.SetPaused(true)
			status.SetText("paused")
		}),
		widget.NewToolbarAction(theme.ViewRefreshIcon(), func() {
			emu.Reset()
			status.SetText("running")
		}),
	)

	w.SetContent(container.NewBorder(toolbar, status, nil, nil, screenContent))
	w.SetFixedSize(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	render := func(d *chip8.Display) {
		paint(buffer, d)
		fyne.Do(screen.Refresh)
	}

	var g errgroup.Group
	g.Go(func() error {
		for {
			err := emu.Run(ctx, render)
			if err == nil {
				return nil
			}
			fyne.Do(func() {
				status.SetText(err.Error())
			})

			// poll until the program is reset or the window closes
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(emu.Options().TimerRate):
			}
		}
	})

	w.ShowAndRun()
	cancel()
	return g.Wait()
}
