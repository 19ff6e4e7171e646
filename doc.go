// Package xmastree animates the time machine "Xmas tree" on a 128x64
// monochrome OLED display.
//
// The tree is ten horizontal bars of 5x5 squares. Each bar is re-rolled to a
// random length on every redraw, within a range that widens as the level
// rises from 0 to 8. Higher levels also redraw more slowly, and a bar that
// reaches the full 20 squares stays lit until the tree is turned off.
//
// # Basic Usage
//
// Wire a Tree to a display through a Canvas and call Tick from the host loop:
//
//	package main
//
//	import (
//		"time"
//
//		"periph.io/x/conn/v3/i2c/i2creg"
//		"periph.io/x/devices/v3/xmastree"
//		"periph.io/x/devices/v3/xmastree/sh1106"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		host.Init()
//
//		bus, _ := i2creg.Open("")
//		dev, _ := sh1106.NewI2C(bus, sh1106.DefaultAddr, nil)
//		defer dev.Halt()
//
//		tree := xmastree.New(xmastree.NewCanvas(dev), nil)
//		tree.Init()
//		tree.On()
//
//		for {
//			tree.Tick()
//			time.Sleep(5 * time.Millisecond)
//		}
//	}
//
// # Levels
//
// On starts the tree at level 1. Next moves up one level and holds at 8;
// SetLevel jumps directly. Both are ignored while the tree is off.
//
//	Level     0  1  2  3  4   5   6   7   8
//	Min       0  0  1  2  4   5   7  11  14
//	Max       0  3  5  7  10  13  15  19  22
//	Interval  250ms for 0-3, 300ms for 4-6, 350ms for 7-8
//
// # Timing
//
// Tick never blocks. It does nothing until the interval for the current level
// has passed since the last scheduled redraw, then redraws once and moves the
// schedule forward by exactly one interval. A host loop that stalls gets one
// redraw per Tick until the schedule catches up, and the cadence never drifts.
//
// # Testing
//
// Clock and Rand are injected through Opts, so the animation can be stepped
// with a fake clock and a seeded source:
//
//	tree := xmastree.New(renderer, &xmastree.Opts{
//		Clock: fakeClock,
//		Rand:  rand.New(rand.NewPCG(1, 2)),
//	})
//
// # Displays
//
// Canvas accepts any periph.io display.Drawer. This module provides sh1106 for
// the 1.3" SH1106 panels and termpanel for drawing in a terminal.
package xmastree
