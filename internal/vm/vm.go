package vm

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

const (
	MemorySize    = 4096
	StackSize     = 16
	RegisterCount = 16
	ScreenWidth   = 64
	ScreenHeight  = 32
	KeyCount      = 16

	FontStart       = uint16(0x000)
	ProgramStart    = uint16(0x200)
	InstructionSize = 2

	flagRegister = 0x0F
)

var (
	ErrOutOfBounds     = errors.New("memory access out of bounds")
	ErrStackOverflow   = errors.New("stack overflow")
	ErrStackUnderflow  = errors.New("stack underflow")
	ErrProgramTooLarge = errors.New("program too large")
)

// Status reports whether the VM can keep consuming instructions.
type Status int

const (
	StatusRunning = Status(iota)
	StatusWaitingForKey
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusWaitingForKey:
		return "waiting for key"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// VM is a CHIP-8 machine: memory, registers, stack, framebuffer and keypad.
// It is not safe for concurrent use; the host serializes timer ticks and key
// events against Step and Execute.
type VM struct {
	memory    Memory
	registers Registers
	stack     Stack
	gfx       Framebuffer
	keypad    Keyboard
	drawFlag  bool // Indicates a draw has occurred

	// Set by Fx0A until a key press resolves it into V[waitRegister].
	waiting      bool
	waitRegister uint8

	rng  *rand.Rand
	seed uint64

	shiftQuirk bool
	indexQuirk bool
}

// Option configures a VM created by New.
type Option func(vm *VM)

// WithSeed makes Cxkk reproducible.
func WithSeed(seed uint64) Option {
	return func(vm *VM) {
		vm.seed = seed
	}
}

// WithShiftQuirk makes 8xy6 and 8xyE copy Vy into Vx before shifting,
// as the COSMAC VIP interpreter did.
func WithShiftQuirk(enabled bool) Option {
	return func(vm *VM) {
		vm.shiftQuirk = enabled
	}
}

// WithIndexQuirk makes Fx55 and Fx65 leave I pointing past the last
// register transferred (I = I + x + 1).
func WithIndexQuirk(enabled bool) Option {
	return func(vm *VM) {
		vm.indexQuirk = enabled
	}
}

func New(opts ...Option) *VM {
	vm := &VM{
		seed: uint64(time.Now().UnixNano()),
	}

	for _, opt := range opts {
		opt(vm)
	}

	vm.rng = rand.New(rand.NewPCG(vm.seed, vm.seed>>1|1))
	vm.Initialize()
	return vm
}

// Initialize zeroes every component and installs the hexadecimal font.
// The key mapping and the random generator survive a reset.
func (vm *VM) Initialize() {
	vm.registers = Registers{}
	vm.stack = Stack{}
	vm.waiting = false
	vm.waitRegister = 0

	vm.gfx.Clear()
	vm.drawFlag = true

	slog.Debug("clear keypad", "n", KeyCount)
	vm.keypad.Reset()

	slog.Debug("clear memory", "n", MemorySize)
	vm.memory = Memory{}

	slog.Debug("load font", "at", fmt.Sprintf("0x%04x", FontStart), "n", len(chip8Font))
	copy(vm.memory[FontStart:], chip8Font[:])
}

// Load copies a program into memory at ProgramStart and points PC at it.
func (vm *VM) Load(program []byte) error {
	if len(program)+int(ProgramStart) >= MemorySize {
		return fmt.Errorf("%w: %d bytes, at most %d fit", ErrProgramTooLarge, len(program), MemorySize-int(ProgramStart)-1)
	}

	slog.Info("load program", "at", fmt.Sprintf("0x%04x", ProgramStart), "n", len(program))
	copy(vm.memory[ProgramStart:], program)
	vm.registers.PC = ProgramStart
	return nil
}

// SetKeyMapping installs the host's physical to logical key table.
func (vm *VM) SetKeyMapping(mapping KeyMapping) {
	vm.keypad.SetMapping(mapping)
}

// KeyDown presses a logical key. A pending Fx0A resolves to the first key
// pressed while it waits.
func (vm *VM) KeyDown(key Key) {
	vm.keypad.KeyDown(key)

	if vm.waiting {
		vm.registers.V[vm.waitRegister] = uint8(key.index())
		vm.waiting = false
		slog.Debug("key wait resolved", "key", key, "register", fmt.Sprintf("v%x", vm.waitRegister))
	}
}

func (vm *VM) KeyUp(key Key) {
	vm.keypad.KeyUp(key)
}

// PhysicalKeyDown maps a host key code through the installed mapping.
// Codes without a mapping are ignored.
func (vm *VM) PhysicalKeyDown(code PhysicalKey) {
	if key, ok := vm.keypad.Map(code); ok {
		vm.KeyDown(key)
	}
}

func (vm *VM) PhysicalKeyUp(code PhysicalKey) {
	if key, ok := vm.keypad.Map(code); ok {
		vm.KeyUp(key)
	}
}

// FetchOpcode reads the instruction word at PC and advances PC past it.
// While an Fx0A is pending PC stays put, so the same word is fetched again
// once a key resolves the wait.
func (vm *VM) FetchOpcode() (uint16, error) {
	opcode, err := vm.memory.ReadWord(vm.registers.PC)
	if err != nil {
		return 0, fmt.Errorf("fetch at 0x%04x: %w", vm.registers.PC, err)
	}

	if vm.waiting {
		return opcode, nil
	}

	vm.registers.PC += InstructionSize
	return opcode, nil
}

// Step fetches and executes one instruction. While an Fx0A is pending
// nothing is fetched and StatusWaitingForKey is returned.
func (vm *VM) Step() (Op, Status, error) {
	if vm.waiting {
		return Op{}, StatusWaitingForKey, nil
	}

	opcode, err := vm.FetchOpcode()
	if err != nil {
		return Op{}, StatusRunning, err
	}

	op := Decode(opcode)
	status, err := vm.execute(op)
	return op, status, err
}

// TickTimers decrements both timers towards zero. Hosts call it at 60 Hz.
func (vm *VM) TickTimers() {
	if vm.registers.DelayTimer > 0 {
		vm.registers.DelayTimer--
	}

	if vm.registers.SoundTimer > 0 {
		vm.registers.SoundTimer--
	}
}

// Framebuffer returns a copy of the current screen.
func (vm *VM) Framebuffer() Framebuffer {
	return vm.gfx
}

// Registers returns a copy of the register file.
func (vm *VM) Registers() Registers {
	return vm.registers
}

func (vm *VM) Waiting() bool {
	return vm.waiting
}

// SoundActive reports whether the tone should be playing.
func (vm *VM) SoundActive() bool {
	return vm.registers.SoundTimer > 0
}
