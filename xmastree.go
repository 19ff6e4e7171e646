// Package xmastree animates the time machine "Xmas tree" bar indicator on a
// small monochrome display.
//
// The tree is driven cooperatively: the host calls Tick on every pass of its
// own loop and the tree redraws when the interval for the current level has
// elapsed.
//
// See the examples for how to use this package.
package xmastree

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	// Columns is the number of bars in the tree.
	Columns = 10
	// Levels is the number of intensity levels, 0 through MaxLevel.
	Levels = 9
	// MaxLevel is the highest level; Next holds here.
	MaxLevel = Levels - 1
	// MaxHeight is the tallest a bar can be. A bar at MaxHeight stays there
	// until the tree is turned off.
	MaxHeight = 20
)

// Bar height range per level, inclusive. randomMax[8] overshoots MaxHeight so
// that the top level fills columns quickly; update clamps it.
var (
	randomMin = [Levels]int{0, 0, 1, 2, 4, 5, 7, 11, 14}
	randomMax = [Levels]int{0, 3, 5, 7, 10, 13, 15, 19, 22}
)

// Redraw interval per speed bucket.
var intervals = [3]time.Duration{
	250 * time.Millisecond,
	300 * time.Millisecond,
	350 * time.Millisecond,
}

// Tree geometry in display pixels.
const (
	originX = 4
	originY = 2
	square  = 5
	pitch   = 6

	frameW = 128
	frameH = 64
)

// Renderer is the drawing surface the tree paints on.
type Renderer interface {
	// Init prepares the surface. It is called once by Tree.Init.
	Init()
	Clear()
	DrawFrame(x, y, w, h int)
	DrawBox(x, y, w, h int)
	// Present pushes the frame to the display.
	Present()
}

// Clock is a monotonic, non-decreasing time source.
type Clock interface {
	Now() time.Duration
}

// Rand returns uniformly distributed integers in [0, n).
//
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// Opts is the configuration for a Tree.
type Opts struct {
	Clock Clock // Default: time elapsed since New
	Rand  Rand  // Default: PCG seeded from the wall clock
}

// Tree is the animator. It is not safe for concurrent use.
type Tree struct {
	r     Renderer
	clock Clock
	rand  Rand

	on      bool
	level   int
	heights [Columns]int
	last    time.Duration // last scheduled redraw
}

// New returns a Tree that draws on r. It starts off.
//
// opts can be nil to use defaults.
func New(r Renderer, opts *Opts) *Tree {
	if opts == nil {
		opts = &Opts{}
	}
	t := &Tree{
		r:     r,
		clock: opts.Clock,
		rand:  opts.Rand,
	}
	if t.clock == nil {
		t.clock = sinceStart(time.Now())
	}
	if t.rand == nil {
		seed := uint64(time.Now().UnixNano())
		t.rand = rand.New(rand.NewPCG(seed, seed>>32|seed<<32))
	}
	t.reset()
	return t
}

// Init prepares the renderer. Call it once before the first Tick.
func (t *Tree) Init() {
	t.r.Init()
}

// On turns the tree on at level 1. The first redraw is one interval away.
func (t *Tree) On() {
	t.last = t.clock.Now()
	t.on = true
	t.level = 1
}

// Off turns the tree off and empties every column.
func (t *Tree) Off() {
	t.reset()
}

// SetLevel jumps to level, clamped to [0, MaxLevel]. It does nothing while
// the tree is off.
func (t *Tree) SetLevel(level int) {
	if !t.on {
		return
	}
	t.level = min(max(level, 0), MaxLevel)
}

// Next moves one level up, holding at MaxLevel. It does nothing while the
// tree is off.
func (t *Tree) Next() {
	if !t.on {
		return
	}
	t.level = min(t.level+1, MaxLevel)
}

// Level returns the current level.
func (t *Tree) Level() int {
	return t.level
}

// State reports whether the tree is on.
func (t *Tree) State() bool {
	return t.on
}

// Heights returns the current bar heights.
func (t *Tree) Heights() [Columns]int {
	return t.heights
}

// Tick redraws the tree if the interval for the current level has elapsed.
// It must be called on every pass of the host loop.
//
// A late call performs a single redraw and advances the schedule by one
// interval, so missed frames are caught up one per call without drift.
func (t *Tree) Tick() {
	interval := intervals[speedIndex(t.level)]
	if t.clock.Now() < t.last+interval {
		return
	}
	t.last += interval
	t.update()
}

func (t *Tree) update() {
	lo, hi := randomMin[t.level], randomMax[t.level]

	t.r.Clear()
	t.r.DrawFrame(0, 0, frameW, frameH)

	y := originY
	for c := range t.heights {
		if t.heights[c] < MaxHeight {
			t.heights[c] = lo + t.rand.IntN(hi-lo+1)
		}
		if t.heights[c] > MaxHeight {
			t.heights[c] = MaxHeight
		}

		x := originX
		for i := 0; i < t.heights[c]; i++ {
			t.r.DrawBox(x, y, square, square)
			x += pitch
		}
		y += pitch
	}

	t.r.Present()
}

func (t *Tree) reset() {
	t.on = false
	t.level = 0
	t.heights = [Columns]int{}
}

// String returns a string representation of the tree.
func (t *Tree) String() string {
	if !t.on {
		return "xmastree.Tree{off}"
	}
	return fmt.Sprintf("xmastree.Tree{on level=%d}", t.level)
}

// speedIndex returns the interval bucket for level.
func speedIndex(level int) int {
	switch {
	case level < 4:
		return 0
	case level < 7:
		return 1
	default:
		return 2
	}
}

// sinceStart is the default Clock.
type sinceStart time.Time

func (s sinceStart) Now() time.Duration {
	return time.Since(time.Time(s))
}
