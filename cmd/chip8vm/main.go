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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"chip8vm"
	"chip8vm/beep"
	"chip8vm/chip8"
	"chip8vm/window"
)

func main() {
	opts := chip8vm.DefaultOptions()

	debug := flag.Bool("debug", false, "trace every instruction")
	quiet := flag.Bool("q", false, "only log errors")
	frontend := flag.String("frontend", "window", "front end: window, terminal or none")
	frames := flag.Int("frames", 600, "frames to run with -frontend none")
	clock := flag.Int("clock", int(time.Second/chip8.ClockRate), "instructions per second")
	flag.IntVar(&opts.Scale, "scale", opts.Scale, "window pixels per display pixel")
	flag.BoolVar(&opts.Mute, "mute", false, "disable sound")
	flag.Uint64Var(&opts.Seed, "seed", 0, "seed for RND, 0 for random")
	flag.BoolVar(&opts.HaltOnUnknown, "halt-on-unknown", false, "stop on unknown opcodes")
	flag.BoolVar(&opts.Quirks.ShiftUsesVY, "shift-vy", false, "8XY6/8XYE shift VY into VX")
	flag.BoolVar(&opts.Quirks.LogicResetsVF, "logic-vf", false, "8XY1/8XY2/8XY3 reset VF")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] rom\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		log.Fatal("must specify file")
	}
	if *clock <= 0 {
		log.Fatal("clock must be positive")
	}
	opts.ClockRate = time.Second / time.Duration(*clock)

	rom, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	logger := chip8vm.NewLogger(os.Stderr, *debug, *quiet)

	var speaker chip8vm.Speaker
	if *frontend != "none" {
		speaker = &beep.Beep{}
	}

	e := chip8vm.New(opts, logger, speaker)
	if err := e.Load(rom); err != nil {
		log.Fatal(err)
	}

	switch *frontend {
	case "window":
		err = window.Run(e)
	case "terminal":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		err = chip8vm.RunTerminal(ctx, e)
		stop()
	case "none":
		err = e.RunFrames(context.Background(), *frames, nil)
		fmt.Print(chip8vm.RenderText(e.Machine().Display()))
	default:
		log.Fatalf("unknown front end %q", *frontend)
	}

	if err != nil {
		log.Fatal(err)
	}
}
