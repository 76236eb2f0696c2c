/*
   rv32vm - Command-line front end

   Copyright 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a copy
   of this software and associated documentation files (the "Software"), to deal
   in the Software without restriction, including without limitation the rights
   to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
   copies of the Software, and to permit persons to whom the Software is
   furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
   AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
   LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
   OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
   SOFTWARE.

*/

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/rv32vm/rv32vm/cpu"
	"github.com/rv32vm/rv32vm/hostmem"
	"github.com/rv32vm/rv32vm/monitor"
	"github.com/rv32vm/rv32vm/rvconfig"
	"github.com/rv32vm/rv32vm/rvlog"
	"github.com/rv32vm/rv32vm/vm"
)

func main() {
	optConfig := getopt.StringLong("config", 'c', "", "Configuration file")
	optImage := getopt.StringLong("image", 'i', "", "Flat binary image to load at address 0")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optMonitor := getopt.BoolLong("monitor", 'm', "Drop into the interactive monitor instead of running to exit")
	optJIT := getopt.BoolLong("jit", 'j', "Enable the x86-64 JIT")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file io.Writer
	if *optLogFile != "" {
		f, err := os.Create(*optLogFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "rvrun: "+err.Error())
			os.Exit(1)
		}
		file = f
	}
	logger := rvlog.New(file, slog.LevelInfo, false)
	slog.SetDefault(logger)

	cfg := rvconfig.Default()
	if *optConfig != "" {
		if err := rvconfig.Load(*optConfig, &cfg); err != nil {
			slog.Error("loading configuration: " + err.Error())
			os.Exit(1)
		}
	}
	if *optJIT {
		cfg.JIT = true
	}

	if *optImage == "" {
		fmt.Fprintln(os.Stderr, "rvrun: -image is required")
		os.Exit(1)
	}
	image, err := os.ReadFile(*optImage)
	if err != nil {
		slog.Error("reading image: " + err.Error())
		os.Exit(1)
	}

	mem := hostmem.New(int(cfg.MemorySize))
	mem.Load(0, image)

	rv := cpu.New(mem.Bus(), nil, cfg.Extensions)
	rv.Reset(cfg.EntryPC)
	rv.X[cpu.RegSP] = cfg.StackTop

	var opts []vm.Option
	if cfg.JIT {
		opts = append(opts, vm.WithJIT(cfg.JITCache))
	}
	machine := vm.New(rv, opts...)

	if *optMonitor {
		monitor.Run(machine)
		return
	}

	for rv.Exception == cpu.ExcNone {
		machine.Step(1 << 20)
	}

	if rv.Exception == cpu.ExcEnvironmentCall && mem.Exited {
		fmt.Println(mem.String())
		os.Exit(int(mem.ExitCode))
	}
	fmt.Println("halted: " + rv.Exception.String())
}
