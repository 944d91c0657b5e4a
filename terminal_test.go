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
	"io"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chip8vm/chip8"
)

func TestRenderTextBlank(t *testing.T) {
	var d chip8.Display

	lines := strings.Split(strings.TrimSuffix(RenderText(&d), "\n"), "\n")
	require.Len(t, lines, chip8.Height/2)
	for _, line := range lines {
		assert.Equal(t, strings.Repeat(" ", chip8.Width), line)
	}
}

func TestRenderTextHalfBlocks(t *testing.T) {
	var d chip8.Display
	d.DrawSprite(0, 0, []byte{0xC0, 0xA0})

	lines := strings.Split(RenderText(&d), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "█▀▄ "))
	assert.Equal(t, chip8.Width, utf8.RuneCountInString(lines[0]))
}

func TestReadKeys(t *testing.T) {
	e := New(DefaultOptions(), NewLogger(io.Discard, false, true), nil)

	require.NoError(t, readKeys(e, strings.NewReader("W?P")))
	assert.True(t, e.Paused())

	require.Len(t, e.events, 1)
	ev := <-e.events
	assert.Equal(t, event{kind: keyDown, key: 0x5}, ev)

	assert.Eventually(t, func() bool {
		return len(e.events) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, event{kind: keyUp, key: 0x5}, <-e.events)
}
