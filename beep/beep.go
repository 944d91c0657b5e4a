// Package beep plays the CHIP-8 buzzer tone through the default audio
// output device.
package beep

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/generator"
	"github.com/gordonklaus/portaudio"
	"golang.org/x/sync/errgroup"
)

const (
	bufferSize int     = 512
	note       float64 = 440.0
	amplitude  float64 = 0.25
)

var (
	format = audio.FormatMono44100
)

// Beep is a sine tone that plays between Start and Stop.
type Beep struct {
	g       *errgroup.Group
	beeping atomic.Bool
	cancel  context.CancelFunc
}

// Start begins playing on a new goroutine. Calling Start while already
// playing does nothing.
func (b *Beep) Start(ctx context.Context) error {
	if !b.beeping.CompareAndSwap(false, true) {
		return nil
	}

	ctx, b.cancel = context.WithCancel(ctx)

	buffer := &audio.FloatBuffer{
		Data:   make([]float64, bufferSize),
		Format: format,
	}

	osc := generator.NewOsc(generator.WaveSine, note, buffer.Format.SampleRate)
	osc.Amplitude = amplitude

	b.g = &errgroup.Group{}
	b.g.Go(func() error {
		return playTone(ctx, osc, buffer)
	})

	return nil
}

// Stop silences the tone and returns any error from the output stream
// since the matching Start.
func (b *Beep) Stop() error {
	if !b.beeping.CompareAndSwap(true, false) {
		return nil
	}
	b.cancel()
	return b.g.Wait()
}

var playTone = play

func play(ctx context.Context, osc *generator.Osc, buffer *audio.FloatBuffer) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing audio: %w", err)
	}
	defer func() {
		_ = portaudio.Terminate()
	}()

	out := make([]float32, len(buffer.Data))

	stream, err := portaudio.OpenDefaultStream(0, 1, float64(buffer.Format.SampleRate), len(out), &out)
	if err != nil {
		return fmt.Errorf("opening audio stream: %w", err)
	}
	defer func() {
		_ = stream.Close()
	}()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting audio stream: %w", err)
	}
	defer func() {
		_ = stream.Stop()
	}()

	for ctx.Err() == nil {
		if err := osc.Fill(buffer); err != nil {
			return err
		}

		f64Tof32(out, buffer.Data)

		if err := stream.Write(); err != nil {
			return err
		}
	}

	return nil
}

func f64Tof32(dst []float32, src []float64) {
	for i := range src {
		dst[i] = float32(src[i])
	}
}
