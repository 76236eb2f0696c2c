/*
   rv32vm - Interactive debug console

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

// Package monitor is the interactive breakpoint/step/register-dump
// console for a Machine: a liner-driven read loop over a
// prefix-matched command table.
package monitor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/rv32vm/rv32vm/cpu"
	"github.com/rv32vm/rv32vm/disasm"
	"github.com/rv32vm/rv32vm/rvhex"
	"github.com/rv32vm/rv32vm/vm"
)

type cmd struct {
	name    string // command name
	min     int    // minimum prefix length that still matches
	process func(*cmdLine, *vm.Machine) (bool, error)
}

type cmdLine struct {
	line string
	pos  int
}

var cmdList = []cmd{
	{name: "step", min: 1, process: step},
	{name: "continue", min: 1, process: cont},
	{name: "break", min: 1, process: setBreak},
	{name: "delete", min: 1, process: deleteBreak},
	{name: "reg", min: 3, process: showRegs},
	{name: "mem", min: 1, process: showMem},
	{name: "dump", min: 1, process: dump},
	{name: "reset", min: 3, process: reset},
	{name: "quit", min: 1, process: quit},
}

var breakpoints = map[uint32]bool{}

// Run starts an interactive console over m and blocks until the user
// quits. Matches ConsoleReader's liner setup: history, Ctrl-C aborts,
// tab completion over the command table.
func Run(m *vm.Machine) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(partial string) []string {
		matches := []string{}
		for _, c := range cmdList {
			if strings.HasPrefix(c.name, partial) {
				matches = append(matches, c.name)
			}
		}
		return matches
	})

	for {
		text, err := line.Prompt("rv32> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return
			}
			fmt.Println("error reading line: " + err.Error())
			return
		}
		line.AppendHistory(text)

		quit, err := process(text, m)
		if err != nil {
			fmt.Println("error: " + err.Error())
		}
		if quit {
			return
		}
	}
}

func process(text string, m *vm.Machine) (bool, error) {
	cl := cmdLine{line: text}
	name := cl.getWord()

	match := matchList(name)
	switch len(match) {
	case 0:
		if name == "" {
			return false, nil
		}
		return false, errors.New("command not found: " + name)
	case 1:
		return match[0].process(&cl, m)
	default:
		return false, errors.New("ambiguous command: " + name)
	}
}

func matchList(name string) []cmd {
	if name == "" {
		return nil
	}
	var match []cmd
	for _, c := range cmdList {
		if matchCommand(c, name) {
			match = append(match, c)
		}
	}
	return match
}

func matchCommand(c cmd, name string) bool {
	if len(name) > len(c.name) || len(name) < c.min {
		return false
	}
	return c.name[:len(name)] == name
}

func (l *cmdLine) skipSpace() {
	for l.pos < len(l.line) && l.line[l.pos] == ' ' {
		l.pos++
	}
}

func (l *cmdLine) isEOL() bool { return l.pos >= len(l.line) }

func (l *cmdLine) getWord() string {
	l.skipSpace()
	start := l.pos
	for !l.isEOL() && l.line[l.pos] != ' ' {
		l.pos++
	}
	return l.line[start:l.pos]
}

func parseAddr(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	n, err := strconv.ParseUint(s, 16, 32)
	return uint32(n), err
}

func step(l *cmdLine, m *vm.Machine) (bool, error) {
	n := uint64(1)
	if w := l.getWord(); w != "" {
		v, err := strconv.ParseUint(w, 10, 64)
		if err != nil {
			return false, err
		}
		n = v
	}
	for i := uint64(0); i < n; i++ {
		m.Step(1)
		printState(m)
		if m.CPU.Exception != cpu.ExcNone {
			break
		}
		if breakpoints[m.CPU.PC] {
			fmt.Printf("breakpoint at 0x%08x\n", m.CPU.PC)
			break
		}
	}
	return false, nil
}

func cont(_ *cmdLine, m *vm.Machine) (bool, error) {
	for m.CPU.Exception == cpu.ExcNone {
		m.Step(1)
		if breakpoints[m.CPU.PC] {
			fmt.Printf("breakpoint at 0x%08x\n", m.CPU.PC)
			break
		}
	}
	if m.CPU.Exception != cpu.ExcNone {
		fmt.Println("halted: " + m.CPU.Exception.String())
	}
	return false, nil
}

func setBreak(l *cmdLine, _ *vm.Machine) (bool, error) {
	w := l.getWord()
	if w == "" {
		return false, errors.New("break requires an address")
	}
	addr, err := parseAddr(w)
	if err != nil {
		return false, err
	}
	breakpoints[addr] = true
	return false, nil
}

func deleteBreak(l *cmdLine, _ *vm.Machine) (bool, error) {
	w := l.getWord()
	if w == "" {
		return false, errors.New("delete requires an address")
	}
	addr, err := parseAddr(w)
	if err != nil {
		return false, err
	}
	delete(breakpoints, addr)
	return false, nil
}

var regNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

func showRegs(_ *cmdLine, m *vm.Machine) (bool, error) {
	rv := m.CPU
	fmt.Printf("pc  = 0x%08x   cycle = %d\n", rv.PC, rv.CSRCycle)
	for i := 0; i < 32; i += 4 {
		fmt.Printf("x%-2d %-4s=0x%08x  x%-2d %-4s=0x%08x  x%-2d %-4s=0x%08x  x%-2d %-4s=0x%08x\n",
			i, regNames[i], rv.X[i],
			i+1, regNames[i+1], rv.X[i+1],
			i+2, regNames[i+2], rv.X[i+2],
			i+3, regNames[i+3], rv.X[i+3])
	}
	return false, nil
}

func showMem(l *cmdLine, m *vm.Machine) (bool, error) {
	addrWord := l.getWord()
	if addrWord == "" {
		return false, errors.New("mem requires an address")
	}
	addr, err := parseAddr(addrWord)
	if err != nil {
		return false, err
	}
	length := uint32(16)
	if w := l.getWord(); w != "" {
		v, err := strconv.ParseUint(w, 10, 32)
		if err != nil {
			return false, err
		}
		length = uint32(v)
	}
	rv := m.CPU
	for off := uint32(0); off < length; off += 4 {
		word := rv.Bus.MemReadW(rv, addr+off)
		text, _ := disasm.Disassemble(addr+off, word)
		fmt.Printf("0x%08x: %08x  %s\n", addr+off, word, text)
	}
	return false, nil
}

// dump prints a raw hex/ASCII dump of a memory range, 16 bytes per
// row, the byte-oriented counterpart to mem's disassembly listing.
func dump(l *cmdLine, m *vm.Machine) (bool, error) {
	addrWord := l.getWord()
	if addrWord == "" {
		return false, errors.New("dump requires an address")
	}
	addr, err := parseAddr(addrWord)
	if err != nil {
		return false, err
	}
	length := uint32(64)
	if w := l.getWord(); w != "" {
		v, err := strconv.ParseUint(w, 10, 32)
		if err != nil {
			return false, err
		}
		length = uint32(v)
	}

	rv := m.CPU
	for off := uint32(0); off < length; off += 16 {
		row := make([]byte, 0, 16)
		for i := uint32(0); i < 16 && off+i < length; i++ {
			row = append(row, rv.Bus.MemReadB(rv, addr+off+i))
		}
		var hexPart, asciiPart strings.Builder
		rvhex.FormatBytes(&hexPart, true, row)
		rvhex.ASCII(&asciiPart, row)
		fmt.Printf("0x%08x: %-48s %s\n", addr+off, hexPart.String(), asciiPart.String())
	}
	return false, nil
}

func reset(l *cmdLine, m *vm.Machine) (bool, error) {
	pc := uint32(0)
	if w := l.getWord(); w != "" {
		v, err := parseAddr(w)
		if err != nil {
			return false, err
		}
		pc = v
	}
	m.Reset(pc)
	return false, nil
}

func quit(_ *cmdLine, _ *vm.Machine) (bool, error) { return true, nil }

func printState(m *vm.Machine) {
	rv := m.CPU
	word := rv.Bus.MemIFetch(rv, rv.PC)
	text, _ := disasm.Disassemble(rv.PC, word)
	fmt.Printf("pc=0x%08x  %s\n", rv.PC, text)
}
