package vm

import "fmt"

// OpKind identifies one CHIP-8 instruction.
type OpKind uint8

const (
	OpUnknown = OpKind(iota)
	OpCls     // 00E0
	OpRet     // 00EE
	OpJump    // 1nnn
	OpCall    // 2nnn
	OpSkipEqImm
	OpSkipNeImm
	OpSkipEqReg
	OpLoadImm
	OpAddImm
	OpMove // 8xy0
	OpOr
	OpAnd
	OpXor
	OpAdd // 8xy4
	OpSub
	OpShr
	OpSubn
	OpShl
	OpSkipNeReg // 9xy0
	OpLoadIndex
	OpJumpV0
	OpRand
	OpDraw
	OpSkipKey
	OpSkipNoKey
	OpGetDelay // Fx07
	OpWaitKey
	OpSetDelay
	OpSetSound
	OpAddIndex
	OpFont
	OpBCD
	OpStore
	OpLoad
)

// Op is a decoded instruction word.
type Op struct {
	Kind   OpKind
	Opcode uint16

	NNN uint16 // 12-bit address
	X   uint8
	Y   uint8
	KK  uint8 // 8-bit immediate
	N   uint8 // 4-bit nibble
}

// Decode splits an instruction word into its fields and tags it with the
// instruction it encodes. Words that encode nothing get OpUnknown.
func Decode(opcode uint16) Op {
	op := Op{
		Opcode: opcode,
		NNN:    opcode & 0x0FFF,
		X:      uint8((opcode & 0x0F00) >> 8),
		Y:      uint8((opcode & 0x00F0) >> 4),
		KK:     uint8(opcode & 0x00FF),
		N:      uint8(opcode & 0x000F),
	}
	op.Kind = decodeKind(opcode)
	return op
}

func decodeKind(opcode uint16) OpKind {
	switch opcode & 0xF000 {
	case 0x0000:
		switch opcode {
		case 0x00E0:
			return OpCls
		case 0x00EE:
			return OpRet
		}

	case 0x1000:
		return OpJump

	case 0x2000:
		return OpCall

	case 0x3000:
		return OpSkipEqImm

	case 0x4000:
		return OpSkipNeImm

	case 0x5000:
		if opcode&0x000F == 0 {
			return OpSkipEqReg
		}

	case 0x6000:
		return OpLoadImm

	case 0x7000:
		return OpAddImm

	case 0x8000:
		switch opcode & 0x000F {
		case 0x0000:
			return OpMove
		case 0x0001:
			return OpOr
		case 0x0002:
			return OpAnd
		case 0x0003:
			return OpXor
		case 0x0004:
			return OpAdd
		case 0x0005:
			return OpSub
		case 0x0006:
			return OpShr
		case 0x0007:
			return OpSubn
		case 0x000E:
			return OpShl
		}

	case 0x9000:
		if opcode&0x000F == 0 {
			return OpSkipNeReg
		}

	case 0xA000:
		return OpLoadIndex

	case 0xB000:
		return OpJumpV0

	case 0xC000:
		return OpRand

	case 0xD000:
		return OpDraw

	case 0xE000:
		switch opcode & 0x00FF {
		case 0x009E:
			return OpSkipKey
		case 0x00A1:
			return OpSkipNoKey
		}

	case 0xF000:
		switch opcode & 0x00FF {
		case 0x0007:
			return OpGetDelay
		case 0x000A:
			return OpWaitKey
		case 0x0015:
			return OpSetDelay
		case 0x0018:
			return OpSetSound
		case 0x001E:
			return OpAddIndex
		case 0x0029:
			return OpFont
		case 0x0033:
			return OpBCD
		case 0x0055:
			return OpStore
		case 0x0065:
			return OpLoad
		}
	}

	return OpUnknown
}

// String renders the instruction in the usual Cowgod mnemonic form.
func (op Op) String() string {
	switch op.Kind {
	case OpCls:
		return "CLS"
	case OpRet:
		return "RET"
	case OpJump:
		return fmt.Sprintf("JP $%03X", op.NNN)
	case OpCall:
		return fmt.Sprintf("CALL $%03X", op.NNN)
	case OpSkipEqImm:
		return fmt.Sprintf("SE V%X, $%02X", op.X, op.KK)
	case OpSkipNeImm:
		return fmt.Sprintf("SNE V%X, $%02X", op.X, op.KK)
	case OpSkipEqReg:
		return fmt.Sprintf("SE V%X, V%X", op.X, op.Y)
	case OpLoadImm:
		return fmt.Sprintf("LD V%X, $%02X", op.X, op.KK)
	case OpAddImm:
		return fmt.Sprintf("ADD V%X, $%02X", op.X, op.KK)
	case OpMove:
		return fmt.Sprintf("LD V%X, V%X", op.X, op.Y)
	case OpOr:
		return fmt.Sprintf("OR V%X, V%X", op.X, op.Y)
	case OpAnd:
		return fmt.Sprintf("AND V%X, V%X", op.X, op.Y)
	case OpXor:
		return fmt.Sprintf("XOR V%X, V%X", op.X, op.Y)
	case OpAdd:
		return fmt.Sprintf("ADD V%X, V%X", op.X, op.Y)
	case OpSub:
		return fmt.Sprintf("SUB V%X, V%X", op.X, op.Y)
	case OpShr:
		return fmt.Sprintf("SHR V%X", op.X)
	case OpSubn:
		return fmt.Sprintf("SUBN V%X, V%X", op.X, op.Y)
	case OpShl:
		return fmt.Sprintf("SHL V%X", op.X)
	case OpSkipNeReg:
		return fmt.Sprintf("SNE V%X, V%X", op.X, op.Y)
	case OpLoadIndex:
		return fmt.Sprintf("LD I, $%03X", op.NNN)
	case OpJumpV0:
		return fmt.Sprintf("JP V0, $%03X", op.NNN)
	case OpRand:
		return fmt.Sprintf("RND V%X, $%02X", op.X, op.KK)
	case OpDraw:
		return fmt.Sprintf("DRW V%X, V%X, $%X", op.X, op.Y, op.N)
	case OpSkipKey:
		return fmt.Sprintf("SKP V%X", op.X)
	case OpSkipNoKey:
		return fmt.Sprintf("SKNP V%X", op.X)
	case OpGetDelay:
		return fmt.Sprintf("LD V%X, DT", op.X)
	case OpWaitKey:
		return fmt.Sprintf("LD V%X, K", op.X)
	case OpSetDelay:
		return fmt.Sprintf("LD DT, V%X", op.X)
	case OpSetSound:
		return fmt.Sprintf("LD ST, V%X", op.X)
	case OpAddIndex:
		return fmt.Sprintf("ADD I, V%X", op.X)
	case OpFont:
		return fmt.Sprintf("LD F, V%X", op.X)
	case OpBCD:
		return fmt.Sprintf("LD B, V%X", op.X)
	case OpStore:
		return fmt.Sprintf("LD [I], V%X", op.X)
	case OpLoad:
		return fmt.Sprintf("LD V%X, [I]", op.X)
	default:
		return fmt.Sprintf("DW $%04X", op.Opcode)
	}
}
