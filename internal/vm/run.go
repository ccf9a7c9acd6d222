package vm

import (
	"errors"
	"fmt"
	"log/slog"
)

// Hosts return these from ReadInput to stop Run.
var (
	ErrReboot = errors.New("reboot")
	ErrQuit   = errors.New("quit")
)

// HAL is the host side of the machine: input, presentation, sound and
// frame pacing.
type HAL interface {
	ReadInput(keyDown func(PhysicalKey), keyUp func(PhysicalKey)) error
	Draw(gfx *Framebuffer) error
	Beep(on bool) error
	WaitForNextFrame() error
	KeyMapping() KeyMapping
}

// RunConfig controls the driver loop.
type RunConfig struct {
	// CyclesPerFrame is how many instructions run between two 60 Hz
	// timer ticks.
	CyclesPerFrame int
}

const DefaultCyclesPerFrame = 10

// Run resets the VM, loads the program and drives it until the HAL or
// the program fails. HAL errors (quit, reboot) are returned unchanged.
func (vm *VM) Run(hal HAL, program []byte, cfg RunConfig) error {
	if cfg.CyclesPerFrame <= 0 {
		cfg.CyclesPerFrame = DefaultCyclesPerFrame
	}

	vm.Initialize()
	if err := vm.Load(program); err != nil {
		return err
	}
	vm.SetKeyMapping(hal.KeyMapping())

	halted := false
	beeping := false

	for {
		if err := hal.ReadInput(vm.PhysicalKeyDown, vm.PhysicalKeyUp); err != nil {
			return err
		}

		if !halted {
			var err error
			halted, err = vm.runFrame(cfg.CyclesPerFrame)
			if err != nil {
				return err
			}
		}

		vm.TickTimers()

		if on := vm.SoundActive(); on != beeping {
			if err := hal.Beep(on); err != nil {
				return err
			}
			beeping = on
		}

		if vm.drawFlag {
			if err := hal.Draw(&vm.gfx); err != nil {
				return err
			}
			vm.drawFlag = false
		}

		if err := hal.WaitForNextFrame(); err != nil {
			return err
		}
	}
}

// runFrame executes up to n instructions. It reports true once the program
// jumps to itself, which CHIP-8 programs use to stop.
func (vm *VM) runFrame(n int) (bool, error) {
	for i := 0; i < n; i++ {
		addr := vm.registers.PC

		op, status, err := vm.Step()
		if err != nil {
			return false, fmt.Errorf("step at 0x%04x: %w", addr, err)
		}

		if status == StatusWaitingForKey {
			return false, nil
		}

		if op.Kind == OpJump && op.NNN == addr {
			slog.Info("program halted", "pc", fmt.Sprintf("0x%04x", addr))
			return true, nil
		}
	}

	return false, nil
}
