package xmastree

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Duration
}

func (c *fakeClock) Now() time.Duration { return c.now }

func (c *fakeClock) set(ms int) { c.now = time.Duration(ms) * time.Millisecond }

// constRand always rolls v, capped to the range asked for.
type constRand int

func (r constRand) IntN(n int) int { return min(int(r), n-1) }

type recorder struct {
	calls []string
	boxes [][4]int
}

func (r *recorder) Init()  { r.calls = append(r.calls, "init") }
func (r *recorder) Clear() { r.calls = append(r.calls, "clear") }

func (r *recorder) DrawFrame(x, y, w, h int) {
	r.calls = append(r.calls, fmt.Sprintf("frame %d,%d %dx%d", x, y, w, h))
}

func (r *recorder) DrawBox(x, y, w, h int) {
	r.calls = append(r.calls, "box")
	r.boxes = append(r.boxes, [4]int{x, y, w, h})
}

func (r *recorder) Present() { r.calls = append(r.calls, "present") }

func (r *recorder) presents() int {
	n := 0
	for _, c := range r.calls {
		if c == "present" {
			n++
		}
	}
	return n
}

func newTestTree(rnd Rand) (*Tree, *recorder, *fakeClock) {
	rec := &recorder{}
	clk := &fakeClock{}
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(1, 2))
	}
	return New(rec, &Opts{Clock: clk, Rand: rnd}), rec, clk
}

func assertOff(t *testing.T, tree *Tree) {
	t.Helper()
	if tree.State() {
		t.Error("State() = true, want false")
	}
	if tree.Level() != 0 {
		t.Errorf("Level() = %d, want 0", tree.Level())
	}
	if h := tree.Heights(); h != [Columns]int{} {
		t.Errorf("Heights() = %v, want all zero", h)
	}
}

func TestNewStartsOff(t *testing.T) {
	tree, rec, _ := newTestTree(nil)
	assertOff(t, tree)
	if len(rec.calls) != 0 {
		t.Errorf("New should not draw, got %v", rec.calls)
	}
}

func TestNewDefaults(t *testing.T) {
	tree := New(&recorder{}, nil)
	if tree.clock == nil || tree.rand == nil {
		t.Fatal("New(nil opts) should install a default clock and rand")
	}
	a := tree.clock.Now()
	b := tree.clock.Now()
	if b < a {
		t.Errorf("default clock went backwards: %v then %v", a, b)
	}
}

func TestInit(t *testing.T) {
	tree, rec, _ := newTestTree(nil)
	tree.Init()
	if len(rec.calls) != 1 || rec.calls[0] != "init" {
		t.Errorf("Init() calls = %v, want [init]", rec.calls)
	}
	assertOff(t, tree)
}

func TestOn(t *testing.T) {
	tree, _, clk := newTestTree(nil)
	clk.set(1234)
	tree.On()
	if !tree.State() {
		t.Error("State() = false after On")
	}
	if tree.Level() != 1 {
		t.Errorf("Level() = %d after On, want 1", tree.Level())
	}
	if tree.last != 1234*time.Millisecond {
		t.Errorf("last = %v, want 1.234s", tree.last)
	}
}

func TestOff(t *testing.T) {
	tree, _, clk := newTestTree(constRand(3))
	tree.On()
	tree.SetLevel(5)
	clk.set(300)
	tree.Tick()
	if tree.Heights() == [Columns]int{} {
		t.Fatal("a redraw at level 5 should light some bars")
	}

	tree.Off()
	assertOff(t, tree)

	// Idempotent
	tree.Off()
	assertOff(t, tree)
}

func TestNextClamps(t *testing.T) {
	tree, _, _ := newTestTree(nil)
	tree.On()

	for i := 0; i < 9; i++ {
		tree.Next()
	}
	if tree.Level() != MaxLevel {
		t.Errorf("Level() after 9 Next = %d, want %d", tree.Level(), MaxLevel)
	}
	tree.Next()
	if tree.Level() != MaxLevel {
		t.Errorf("Level() after 10 Next = %d, want %d", tree.Level(), MaxLevel)
	}
}

func TestNextSteps(t *testing.T) {
	tree, _, _ := newTestTree(nil)
	tree.On()
	for want := 2; want <= MaxLevel; want++ {
		tree.Next()
		if tree.Level() != want {
			t.Fatalf("Level() = %d, want %d", tree.Level(), want)
		}
	}
}

func TestNoOpWhileOff(t *testing.T) {
	tree, rec, _ := newTestTree(nil)

	tree.Next()
	assertOff(t, tree)
	tree.SetLevel(5)
	assertOff(t, tree)
	if len(rec.calls) != 0 {
		t.Errorf("no-ops should not draw, got %v", rec.calls)
	}
}

func TestSetLevel(t *testing.T) {
	tests := []struct {
		name  string
		level int
		want  int
	}{
		{"zero", 0, 0},
		{"in range", 5, 5},
		{"max", MaxLevel, MaxLevel},
		{"above max clamps", 42, MaxLevel},
		{"negative clamps", -3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, _, _ := newTestTree(nil)
			tree.On()
			tree.SetLevel(tt.level)
			if tree.Level() != tt.want {
				t.Errorf("SetLevel(%d): Level() = %d, want %d", tt.level, tree.Level(), tt.want)
			}
		})
	}
}

func TestSpeedIndex(t *testing.T) {
	want := [Levels]int{0, 0, 0, 0, 1, 1, 1, 2, 2}
	for level, bucket := range want {
		if got := speedIndex(level); got != bucket {
			t.Errorf("speedIndex(%d) = %d, want %d", level, got, bucket)
		}
	}
}

func TestTickGating(t *testing.T) {
	tests := []struct {
		level    int
		interval int
	}{
		{1, 250},
		{3, 250},
		{4, 300},
		{6, 300},
		{7, 350},
		{8, 350},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("level %d", tt.level), func(t *testing.T) {
			tree, rec, clk := newTestTree(nil)
			tree.On()
			tree.SetLevel(tt.level)

			clk.set(tt.interval - 1)
			tree.Tick()
			if len(rec.calls) != 0 {
				t.Fatalf("Tick before the interval drew %v", rec.calls)
			}

			clk.set(tt.interval)
			tree.Tick()
			if got := rec.presents(); got != 1 {
				t.Errorf("Tick at the interval presented %d frames, want 1", got)
			}

			tree.Tick()
			if got := rec.presents(); got != 1 {
				t.Errorf("second Tick at the same instant presented %d frames, want 1", got)
			}
		})
	}
}

func TestTickDriftFree(t *testing.T) {
	tree, rec, clk := newTestTree(nil)
	tree.On()

	clk.set(600)
	tree.Tick()
	if rec.presents() != 1 {
		t.Fatalf("late Tick presented %d frames, want exactly 1", rec.presents())
	}
	if tree.last != 250*time.Millisecond {
		t.Errorf("last = %v, want 250ms (one interval, not now)", tree.last)
	}

	// 350ms behind the schedule: due again immediately
	tree.Tick()
	if rec.presents() != 2 {
		t.Fatalf("catch-up Tick presented %d frames, want 2", rec.presents())
	}
	if tree.last != 500*time.Millisecond {
		t.Errorf("last = %v, want 500ms", tree.last)
	}

	// Caught up: next redraw at 750ms
	tree.Tick()
	if rec.presents() != 2 {
		t.Errorf("Tick ahead of schedule presented a frame")
	}
	clk.set(750)
	tree.Tick()
	if rec.presents() != 3 {
		t.Errorf("Tick at 750ms presented %d frames, want 3", rec.presents())
	}
}

func TestTickUsesCurrentLevelInterval(t *testing.T) {
	tree, rec, clk := newTestTree(nil)
	tree.On()

	clk.set(250)
	tree.Tick()
	tree.SetLevel(8)

	clk.set(250 + 349)
	tree.Tick()
	if rec.presents() != 1 {
		t.Fatalf("level 8 redrew before 350ms")
	}
	clk.set(250 + 350)
	tree.Tick()
	if rec.presents() != 2 {
		t.Errorf("level 8 should redraw 350ms after the previous frame")
	}
}

func TestUpdateDrawCalls(t *testing.T) {
	// Level 2 rolls in [1, 5]; constRand(2) gives 3 squares per bar.
	tree, rec, clk := newTestTree(constRand(2))
	tree.On()
	tree.SetLevel(2)

	clk.set(250)
	tree.Tick()

	n := len(rec.calls)
	if n != 2+Columns*3+1 {
		t.Fatalf("len(calls) = %d, want %d", n, 2+Columns*3+1)
	}
	if rec.calls[0] != "clear" || rec.calls[1] != "frame 0,0 128x64" || rec.calls[n-1] != "present" {
		t.Errorf("calls = %v...%v, want clear, frame, boxes, present", rec.calls[:2], rec.calls[n-1])
	}

	want := [][4]int{
		{4, 2, 5, 5}, {10, 2, 5, 5}, {16, 2, 5, 5}, // column 0
		{4, 8, 5, 5}, {10, 8, 5, 5}, {16, 8, 5, 5}, // column 1
	}
	for i, w := range want {
		if rec.boxes[i] != w {
			t.Errorf("boxes[%d] = %v, want %v", i, rec.boxes[i], w)
		}
	}
	if last := rec.boxes[len(rec.boxes)-1]; last != [4]int{16, 56, 5, 5} {
		t.Errorf("last box = %v, want [16 56 5 5]", last)
	}
	for c, h := range tree.Heights() {
		if h != 3 {
			t.Errorf("Heights()[%d] = %d, want 3", c, h)
		}
	}
}

func TestLevelZeroDrawsEmptyTree(t *testing.T) {
	tree, rec, clk := newTestTree(nil)
	tree.On()
	tree.SetLevel(0)

	clk.set(250)
	tree.Tick()
	if len(rec.boxes) != 0 {
		t.Errorf("level 0 drew %d boxes, want 0", len(rec.boxes))
	}
	if rec.presents() != 1 {
		t.Errorf("level 0 should still present the frame")
	}
}

func TestRandomRange(t *testing.T) {
	tests := []struct {
		level  int
		lo, hi int
	}{
		{1, 0, 3},
		{4, 4, 10},
		{6, 7, 15},
		{7, 11, 19},
		{8, 14, 20},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("level %d", tt.level), func(t *testing.T) {
			tree, _, clk := newTestTree(rand.New(rand.NewPCG(7, uint64(tt.level))))
			tree.On()
			tree.SetLevel(tt.level)

			interval := intervals[speedIndex(tt.level)]
			seen := map[int]bool{}
			for i := 1; i <= 500; i++ {
				clk.now = time.Duration(i) * interval
				tree.Tick()
				for c, h := range tree.Heights() {
					if h < tt.lo || h > tt.hi {
						t.Fatalf("update %d: Heights()[%d] = %d, want in [%d, %d]", i, c, h, tt.lo, tt.hi)
					}
					seen[h] = true
				}
			}
			if tt.hi == MaxHeight {
				// Full bars stick, so the low end may never come round again.
				if !seen[MaxHeight] {
					t.Errorf("500 updates never filled a bar: %v", seen)
				}
				return
			}
			if !seen[tt.lo] || !seen[tt.hi] {
				t.Errorf("500 updates never reached both ends of [%d, %d]: %v", tt.lo, tt.hi, seen)
			}
		})
	}
}

type switchRand struct {
	v int
}

func (r *switchRand) IntN(n int) int { return min(r.v, n-1) }

func TestCeilingSticks(t *testing.T) {
	rnd := &switchRand{v: 100}
	tree, rec, clk := newTestTree(rnd)
	tree.On()
	tree.SetLevel(MaxLevel)

	// 14 + 8 = 22, clamped to 20
	clk.set(350)
	tree.Tick()
	for c, h := range tree.Heights() {
		if h != MaxHeight {
			t.Fatalf("Heights()[%d] = %d, want %d", c, h, MaxHeight)
		}
	}
	if len(rec.boxes) != Columns*MaxHeight {
		t.Errorf("full tree drew %d boxes, want %d", len(rec.boxes), Columns*MaxHeight)
	}

	// Lower rolls and lower levels leave full bars alone
	rnd.v = 0
	tree.SetLevel(1)
	clk.set(700)
	tree.Tick()
	for c, h := range tree.Heights() {
		if h != MaxHeight {
			t.Errorf("Heights()[%d] = %d after re-roll, want it to stay %d", c, h, MaxHeight)
		}
	}

	// Only Off releases them
	tree.Off()
	tree.On()
	clk.set(950)
	tree.Tick()
	for c, h := range tree.Heights() {
		if h != 0 {
			t.Errorf("Heights()[%d] = %d after Off/On, want 0", c, h)
		}
	}
}

func TestPartialCeiling(t *testing.T) {
	tree, _, _ := newTestTree(constRand(0))
	tree.On()
	tree.SetLevel(4)
	tree.heights = [Columns]int{20, 19, 0, 20, 5, 0, 0, 0, 0, 20}

	tree.update()

	want := [Columns]int{20, 4, 4, 20, 4, 4, 4, 4, 4, 20}
	if got := tree.Heights(); got != want {
		t.Errorf("Heights() = %v, want %v", got, want)
	}
}

// Property: whatever the host does, level and heights stay in range and Off
// always empties the tree.
func TestBoundsInvariant(t *testing.T) {
	ops := rand.New(rand.NewPCG(42, 43))
	tree, _, clk := newTestTree(rand.New(rand.NewPCG(3, 4)))

	for i := 0; i < 5000; i++ {
		switch ops.IntN(7) {
		case 0:
			tree.On()
		case 1:
			tree.Off()
			assertOff(t, tree)
		case 2:
			tree.Next()
		case 3:
			tree.SetLevel(ops.IntN(20) - 5)
		default:
			clk.now += time.Duration(ops.IntN(400)) * time.Millisecond
			tree.Tick()
		}

		if l := tree.Level(); l < 0 || l > MaxLevel {
			t.Fatalf("op %d: Level() = %d out of range", i, l)
		}
		for c, h := range tree.Heights() {
			if h < 0 || h > MaxHeight {
				t.Fatalf("op %d: Heights()[%d] = %d out of range", i, c, h)
			}
		}
		if !tree.State() && tree.Level() != 0 {
			t.Fatalf("op %d: off with level %d", i, tree.Level())
		}
	}
}

func TestString(t *testing.T) {
	tree, _, _ := newTestTree(nil)
	if got := tree.String(); got != "xmastree.Tree{off}" {
		t.Errorf("String() = %q", got)
	}
	tree.On()
	tree.Next()
	if got := tree.String(); got != "xmastree.Tree{on level=2}" {
		t.Errorf("String() = %q", got)
	}
}
