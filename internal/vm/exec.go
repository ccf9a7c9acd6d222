package vm

import (
	"context"
	"fmt"
	"log/slog"
)

// Execute applies one instruction word. PC must already point past it,
// as FetchOpcode leaves it. Opcodes that encode no instruction are ignored.
// While an Fx0A is pending the word is not applied.
func (vm *VM) Execute(opcode uint16) (Status, error) {
	if vm.waiting {
		return StatusWaitingForKey, nil
	}

	return vm.execute(Decode(opcode))
}

func (vm *VM) execute(op Op) (Status, error) {
	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		slog.Debug(
			"exec",
			"pc", fmt.Sprintf("0x%04x", vm.registers.PC-InstructionSize),
			"opcode", fmt.Sprintf("0x%04x", op.Opcode),
			"instr", op.String(),
		)
	}

	if err := vm.apply(op); err != nil {
		return StatusRunning, fmt.Errorf("exec 0x%04x (%s): %w", op.Opcode, op, err)
	}

	if vm.waiting {
		return StatusWaitingForKey, nil
	}

	return StatusRunning, nil
}

func (vm *VM) apply(op Op) error {
	r := &vm.registers
	v := &r.V

	// Flag-setting ops write VF before Vx, so VF as the destination keeps
	// the result rather than the flag.
	switch op.Kind {
	case OpCls:
		vm.gfx.Clear()
		vm.drawFlag = true

	case OpRet:
		pc, err := vm.stack.Pop(r)
		if err != nil {
			return err
		}
		r.PC = pc

	case OpJump:
		r.PC = op.NNN

	case OpCall:
		if err := vm.stack.Push(r, r.PC); err != nil {
			return err
		}
		r.PC = op.NNN

	case OpSkipEqImm:
		vm.skipIf(v[op.X] == op.KK)

	case OpSkipNeImm:
		vm.skipIf(v[op.X] != op.KK)

	case OpSkipEqReg:
		vm.skipIf(v[op.X] == v[op.Y])

	case OpLoadImm:
		v[op.X] = op.KK

	case OpAddImm:
		// No carry generated
		v[op.X] += op.KK

	case OpMove:
		v[op.X] = v[op.Y]

	case OpOr:
		v[op.X] |= v[op.Y]

	case OpAnd:
		v[op.X] &= v[op.Y]

	case OpXor:
		v[op.X] ^= v[op.Y]

	case OpAdd:
		sum := uint16(v[op.X]) + uint16(v[op.Y])
		v[flagRegister] = boolToFlag(sum > 0xFF)
		v[op.X] = uint8(sum)

	case OpSub:
		x, y := v[op.X], v[op.Y]
		v[flagRegister] = boolToFlag(x > y)
		v[op.X] = x - y

	case OpShr:
		x := vm.shiftSource(op)
		v[flagRegister] = x & 0x01
		v[op.X] = x >> 1

	case OpSubn:
		x, y := v[op.X], v[op.Y]
		v[flagRegister] = boolToFlag(y > x)
		v[op.X] = y - x

	case OpShl:
		x := vm.shiftSource(op)
		v[flagRegister] = x >> 7
		v[op.X] = x << 1

	case OpSkipNeReg:
		vm.skipIf(v[op.X] != v[op.Y])

	case OpLoadIndex:
		r.I = op.NNN

	case OpJumpV0:
		r.PC = op.NNN + uint16(v[0])

	case OpRand:
		v[op.X] = uint8(vm.rng.UintN(256)) & op.KK

	case OpDraw:
		sprite, err := vm.memory.Slice(r.I, int(op.N))
		if err != nil {
			return err
		}
		collision := vm.gfx.DrawSprite(int(v[op.X]), int(v[op.Y]), sprite)
		v[flagRegister] = boolToFlag(collision)
		vm.drawFlag = true

	case OpSkipKey:
		vm.skipIf(vm.keypad.IsDown(Key(v[op.X])))

	case OpSkipNoKey:
		vm.skipIf(!vm.keypad.IsDown(Key(v[op.X])))

	case OpGetDelay:
		v[op.X] = r.DelayTimer

	case OpWaitKey:
		vm.waiting = true
		vm.waitRegister = op.X

	case OpSetDelay:
		r.DelayTimer = v[op.X]

	case OpSetSound:
		r.SoundTimer = v[op.X]

	case OpAddIndex:
		r.I += uint16(v[op.X])

	case OpFont:
		r.I = FontStart + uint16(v[op.X])*glyphSize

	case OpBCD:
		x := v[op.X]
		digits := [3]byte{x / 100, (x / 10) % 10, x % 10}
		for i, d := range digits {
			if err := vm.memory.Write(r.I+uint16(i), d); err != nil {
				return err
			}
		}

	case OpStore:
		for i := uint16(0); i <= uint16(op.X); i++ {
			if err := vm.memory.Write(r.I+i, v[i]); err != nil {
				return err
			}
		}
		vm.advanceIndex(op)

	case OpLoad:
		for i := uint16(0); i <= uint16(op.X); i++ {
			b, err := vm.memory.Read(r.I + i)
			if err != nil {
				return err
			}
			v[i] = b
		}
		vm.advanceIndex(op)

	case OpUnknown:
		slog.Debug("ignore unknown opcode", "opcode", fmt.Sprintf("0x%04x", op.Opcode))

	default:
		panic(fmt.Sprintf("vm: unhandled op kind %d", op.Kind))
	}

	return nil
}

func (vm *VM) skipIf(cond bool) {
	if cond {
		vm.registers.PC += InstructionSize
	}
}

// shiftSource returns the value 8xy6/8xyE shift: Vx, or Vy copied into Vx
// when the shift quirk is on.
func (vm *VM) shiftSource(op Op) uint8 {
	if vm.shiftQuirk {
		vm.registers.V[op.X] = vm.registers.V[op.Y]
	}
	return vm.registers.V[op.X]
}

func (vm *VM) advanceIndex(op Op) {
	if vm.indexQuirk {
		vm.registers.I += uint16(op.X) + 1
	}
}

func boolToFlag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
