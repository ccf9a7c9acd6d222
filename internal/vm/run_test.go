package vm

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/retroenv/retrogolib/assert"
)

type fakeHAL struct {
	frames    int
	maxFrames int

	// inputs[i] is applied on the i-th ReadInput call.
	inputs map[int]func(keyDown, keyUp func(PhysicalKey))

	draws   []Framebuffer
	beeps   []bool
	drawErr error
}

func (h *fakeHAL) ReadInput(keyDown func(PhysicalKey), keyUp func(PhysicalKey)) error {
	if h.frames >= h.maxFrames {
		return ErrQuit
	}
	if input, ok := h.inputs[h.frames]; ok {
		input(keyDown, keyUp)
	}
	return nil
}

func (h *fakeHAL) Draw(gfx *Framebuffer) error {
	h.draws = append(h.draws, *gfx)
	return h.drawErr
}

func (h *fakeHAL) Beep(on bool) error {
	h.beeps = append(h.beeps, on)
	return nil
}

func (h *fakeHAL) WaitForNextFrame() error {
	h.frames++
	return nil
}

func (h *fakeHAL) KeyMapping() KeyMapping {
	return KeyMapping{PhysicalKey('k'): Key7}
}

func TestRunQuits(t *testing.T) {
	vm := New(WithSeed(1))
	hal := &fakeHAL{maxFrames: 3}

	// LD V0, 1; ADD V0, 1; JP 0x202
	err := vm.Run(hal, program(0x6001, 0x7001, 0x1202), RunConfig{CyclesPerFrame: 4})
	assert.True(t, errors.Is(err, ErrQuit))
	assert.Equal(t, 3, hal.frames)

	// 12 instructions: the LD then alternating ADD/JP.
	assert.Equal(t, uint8(7), vm.registers.V[0])

	// Initialize sets the draw flag, nothing draws afterwards.
	assert.Equal(t, 1, len(hal.draws))
}

func TestRunDrawsAndBeeps(t *testing.T) {
	vm := New(WithSeed(1))
	hal := &fakeHAL{maxFrames: 4}

	rom := program(
		0x6102, // LD V1, 2
		0xF118, // LD ST, V1
		0x6000, // LD V0, 0
		0xF029, // LD F, V0
		0xD005, // DRW V0, V0, 5
		0x120A, // JP 0x20A
	)

	err := vm.Run(hal, rom, RunConfig{CyclesPerFrame: 6})
	assert.True(t, errors.Is(err, ErrQuit))

	assert.Equal(t, 1, len(hal.draws))
	assert.True(t, hal.draws[0].At(0, 0))
	assert.True(t, hal.draws[0].At(3, 4))

	// Sound timer 2: on after frame 1, off after frame 2.
	if diff := cmp.Diff([]bool{true, false}, hal.beeps); diff != "" {
		t.Errorf("beeps: (-want, +got)\n%s", diff)
	}
}

func TestRunWaitsForKey(t *testing.T) {
	vm := New(WithSeed(1))
	hal := &fakeHAL{
		maxFrames: 3,
		inputs: map[int]func(keyDown, keyUp func(PhysicalKey)){
			1: func(keyDown, _ func(PhysicalKey)) {
				keyDown(PhysicalKey('x'))
				keyDown(PhysicalKey('k'))
			},
		},
	}

	// LD V2, K; LD V3, 1; JP 0x204
	err := vm.Run(hal, program(0xF20A, 0x6301, 0x1204), RunConfig{CyclesPerFrame: 2})
	assert.True(t, errors.Is(err, ErrQuit))

	assert.Equal(t, uint8(Key7), vm.registers.V[2])
	assert.Equal(t, uint8(1), vm.registers.V[3])
}

func TestRunStopsOnFault(t *testing.T) {
	vm := New(WithSeed(1))
	hal := &fakeHAL{maxFrames: 3}

	err := vm.Run(hal, program(0x00EE), RunConfig{})
	assert.True(t, errors.Is(err, ErrStackUnderflow))
}

func TestRunRejectsLargeProgram(t *testing.T) {
	vm := New(WithSeed(1))
	hal := &fakeHAL{maxFrames: 3}

	err := vm.Run(hal, make([]byte, MemorySize), RunConfig{})
	assert.True(t, errors.Is(err, ErrProgramTooLarge))
	assert.Equal(t, 0, hal.frames)
}

func TestRunHaltsOnSelfJump(t *testing.T) {
	vm := New(WithSeed(1))
	hal := &fakeHAL{maxFrames: 5}

	// LD V0, 5; LD DT, V0; JP 0x204
	err := vm.Run(hal, program(0x6005, 0xF015, 0x1204), RunConfig{CyclesPerFrame: 8})
	assert.True(t, errors.Is(err, ErrQuit))

	// Timers keep running once halted.
	assert.Equal(t, uint8(0), vm.registers.DelayTimer)
	assert.Equal(t, uint16(0x204), vm.registers.PC)
}

func TestRunDrawError(t *testing.T) {
	vm := New(WithSeed(1))
	drawErr := errors.New("boom")
	hal := &fakeHAL{maxFrames: 3, drawErr: drawErr}

	err := vm.Run(hal, program(0x1200), RunConfig{})
	assert.True(t, errors.Is(err, drawErr))
}
