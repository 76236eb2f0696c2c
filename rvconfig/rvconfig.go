/*
   rv32vm - VM configuration file parser

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

// Package rvconfig parses a session configuration file: memory size,
// which optional extensions to enable, the default stack pointer, JIT
// on/off, and where to send the log. The format is deliberately small
// and hand-rolled: '#' starts a comment, each remaining line is 'key value'.
package rvconfig

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rv32vm/rv32vm/cpu"
)

// Config holds every knob a session can set from a file.
type Config struct {
	MemorySize uint32 // guest address space size, in bytes.
	EntryPC    uint32 // initial program counter.
	StackTop   uint32 // initial value for x2 (sp).
	Extensions cpu.Extensions
	JIT        bool
	JITCache   int
	LogFile    string
	LogDebug   bool
}

// Default returns the configuration a session starts from before any
// file or flag overrides it.
func Default() Config {
	return Config{
		MemorySize: 16 * 1024 * 1024,
		EntryPC:    0,
		StackTop:   16 * 1024 * 1024,
		Extensions: 0,
		JIT:        false,
		JITCache:   256,
	}
}

var lineNumber int

// Load reads a configuration file, applying each recognized key onto
// cfg. Unknown keys are reported as errors rather than silently
// ignored, on the theory that a typo'd option should never pass
// silently for a VM config the way it might for an optional device.
func Load(name string, cfg *Config) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()

	lineNumber = 0
	reader := bufio.NewReader(file)
	for {
		raw, err := reader.ReadString('\n')
		lineNumber++
		if len(raw) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := parseLine(raw, cfg); err != nil {
			return err
		}
	}
}

func parseLine(raw string, cfg *Config) error {
	line := raw
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	fields := strings.Fields(line)
	key := strings.ToLower(fields[0])
	var value string
	if len(fields) > 1 {
		value = fields[1]
	}

	switch key {
	case "memory":
		n, err := parseSize(value)
		if err != nil {
			return lineError("memory", err)
		}
		cfg.MemorySize = n
	case "entry":
		n, err := strconv.ParseUint(strings.TrimPrefix(value, "0x"), 16, 32)
		if err != nil {
			return lineError("entry", err)
		}
		cfg.EntryPC = uint32(n)
	case "stack":
		n, err := parseSize(value)
		if err != nil {
			return lineError("stack", err)
		}
		cfg.StackTop = n
	case "extension":
		ext, ok := extensionByName[strings.ToUpper(value)]
		if !ok {
			return fmt.Errorf("line %d: unknown extension %q", lineNumber, value)
		}
		cfg.Extensions |= ext
	case "jit":
		cfg.JIT = value == "on" || value == "true" || value == "1"
	case "jitcache":
		n, err := strconv.Atoi(value)
		if err != nil {
			return lineError("jitcache", err)
		}
		cfg.JITCache = n
	case "logfile":
		cfg.LogFile = value
	case "logdebug":
		cfg.LogDebug = value == "on" || value == "true" || value == "1"
	default:
		return fmt.Errorf("line %d: unknown option %q", lineNumber, key)
	}
	return nil
}

var extensionByName = map[string]cpu.Extensions{
	"M":        cpu.ExtM,
	"A":        cpu.ExtA,
	"F":        cpu.ExtF,
	"ZICSR":    cpu.ExtZicsr,
	"ZIFENCEI": cpu.ExtZifencei,
}

func lineError(key string, err error) error {
	return fmt.Errorf("line %d: invalid value for %s: %w", lineNumber, key, err)
}

// parseSize accepts a plain decimal byte count, or a count suffixed
// with K or M for kibi-/mebibytes (e.g. "16M").
func parseSize(value string) (uint32, error) {
	if value == "" {
		return 0, errors.New("missing value")
	}
	mult := uint64(1)
	switch value[len(value)-1] {
	case 'K', 'k':
		mult = 1024
		value = value[:len(value)-1]
	case 'M', 'm':
		mult = 1024 * 1024
		value = value[:len(value)-1]
	}
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n * mult), nil
}
