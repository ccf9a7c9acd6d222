package vm

// Registers is the CPU register file.
type Registers struct {
	V [RegisterCount]uint8 // V registers (V0-VF), VF doubles as the flag output

	I  uint16 // Index register
	PC uint16 // Program counter
	SP uint8  // Stack pointer

	DelayTimer uint8
	SoundTimer uint8
}

// Stack holds return addresses; the pointer lives in Registers.SP.
type Stack [StackSize]uint16

func (s *Stack) Push(regs *Registers, value uint16) error {
	if int(regs.SP) >= StackSize {
		return ErrStackOverflow
	}

	s[regs.SP] = value
	regs.SP++
	return nil
}

// Pop decrements SP before checking it, so popping an empty stack leaves
// SP wrapped and reports ErrStackUnderflow.
func (s *Stack) Pop(regs *Registers) (uint16, error) {
	regs.SP--
	if int(regs.SP) >= StackSize {
		return 0, ErrStackUnderflow
	}

	return s[regs.SP], nil
}
