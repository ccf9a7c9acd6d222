package vm

import "fmt"

// Key is a logical keypad key, 0x0-0xF.
type Key uint8

const (
	Key0 = Key(iota)
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
)

func (k Key) String() string {
	return fmt.Sprintf("%X", k.index())
}

func (k Key) index() int {
	return int(k & 0x0F)
}

// PhysicalKey is a host-specific key code (an SDL scancode, a terminal byte).
type PhysicalKey uint32

// KeyMapping translates host key codes into logical keys.
type KeyMapping map[PhysicalKey]Key

// Keyboard is the 16-key pad state.
type Keyboard struct {
	pressed [KeyCount]bool
	mapping KeyMapping
}

// SetMapping installs a copy of the table; later changes by the caller
// are not observed.
func (kb *Keyboard) SetMapping(mapping KeyMapping) {
	kb.mapping = make(KeyMapping, len(mapping))
	for code, key := range mapping {
		kb.mapping[code] = key
	}
}

// Map looks up a host key code. It never mutates the keyboard.
func (kb *Keyboard) Map(code PhysicalKey) (Key, bool) {
	key, ok := kb.mapping[code]
	return key, ok
}

func (kb *Keyboard) KeyDown(key Key) {
	kb.pressed[key.index()] = true
}

func (kb *Keyboard) KeyUp(key Key) {
	kb.pressed[key.index()] = false
}

func (kb *Keyboard) IsDown(key Key) bool {
	return kb.pressed[key.index()]
}

// Reset releases every key.
func (kb *Keyboard) Reset() {
	kb.pressed = [KeyCount]bool{}
}
