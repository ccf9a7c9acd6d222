package vm

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/retroenv/retrogolib/assert"
)

func TestNew(t *testing.T) {
	vm := New()

	if diff := cmp.Diff(chip8Font[:], vm.memory[:len(chip8Font)]); diff != "" {
		t.Errorf("font: (-want, +got)\n%s", diff)
	}
	for addr := len(chip8Font); addr < MemorySize; addr++ {
		assert.Equal(t, byte(0), vm.memory[addr])
	}

	assert.Equal(t, Registers{}, vm.Registers())
	assert.Equal(t, Framebuffer{}, vm.Framebuffer())
	assert.False(t, vm.Waiting())
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"empty", 0, false},
		{"largest", MemorySize - int(ProgramStart) - 1, false},
		{"fills memory", MemorySize - int(ProgramStart), true},
		{"too large", MemorySize, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := New()

			rom := make([]byte, tt.size)
			for i := range rom {
				rom[i] = 0xEE
			}

			err := vm.Load(rom)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrProgramTooLarge))
				assert.Equal(t, uint16(0), vm.registers.PC)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, ProgramStart, vm.registers.PC)
			if tt.size > 0 {
				assert.Equal(t, byte(0xEE), vm.memory[int(ProgramStart)+tt.size-1])
			}
		})
	}
}

func TestLoadKeepsFont(t *testing.T) {
	vm := New()
	rom := make([]byte, 64)
	for i := range rom {
		rom[i] = 0xFF
	}

	assert.NoError(t, vm.Load(rom))

	if diff := cmp.Diff(chip8Font[:], vm.memory[:len(chip8Font)]); diff != "" {
		t.Errorf("font: (-want, +got)\n%s", diff)
	}
}

func TestEndToEnd(t *testing.T) {
	// LD V0, $14; ADD V0, $02; CLS
	vm := newTestVM(t, 0x6014, 0x7002, 0x00E0)
	vm.gfx.DrawSprite(5, 5, []byte{0xFF})

	for i := 0; i < 3; i++ {
		opcode, err := vm.FetchOpcode()
		assert.NoError(t, err)

		status, err := vm.Execute(opcode)
		assert.NoError(t, err)
		assert.Equal(t, StatusRunning, status)
	}

	assert.Equal(t, uint8(0x16), vm.registers.V[0])
	assert.Equal(t, Framebuffer{}, vm.Framebuffer())
	assert.Equal(t, ProgramStart+3*InstructionSize, vm.registers.PC)
}

func TestFetchOpcode(t *testing.T) {
	vm := newTestVM(t, 0xA2F0)

	opcode, err := vm.FetchOpcode()
	assert.NoError(t, err)
	assert.Equal(t, uint16(0xA2F0), opcode)
	assert.Equal(t, ProgramStart+InstructionSize, vm.registers.PC)

	vm.registers.PC = MemorySize - 1
	_, err = vm.FetchOpcode()
	assert.True(t, errors.Is(err, ErrOutOfBounds))
	assert.Equal(t, uint16(MemorySize-1), vm.registers.PC)
}

func TestPhysicalKeys(t *testing.T) {
	vm := New()
	vm.SetKeyMapping(KeyMapping{
		PhysicalKey(27): Key5,
	})

	vm.PhysicalKeyDown(27)
	assert.True(t, vm.keypad.IsDown(Key5))

	vm.PhysicalKeyDown(28)
	for k := Key0; k <= KeyF; k++ {
		if k != Key5 {
			assert.False(t, vm.keypad.IsDown(k))
		}
	}

	vm.PhysicalKeyUp(27)
	assert.False(t, vm.keypad.IsDown(Key5))
}

func TestInitializeResets(t *testing.T) {
	vm := newTestVM(t, 0xF00A)
	vm.SetKeyMapping(KeyMapping{PhysicalKey(1): Key1})
	step(t, vm, 1)
	vm.registers.V[3] = 9
	vm.memory[0x300] = 1

	vm.Initialize()

	assert.False(t, vm.Waiting())
	assert.Equal(t, Registers{}, vm.Registers())
	assert.Equal(t, byte(0), vm.memory[0x300])

	key, ok := vm.keypad.Map(PhysicalKey(1))
	assert.True(t, ok)
	assert.Equal(t, Key1, key)
}
