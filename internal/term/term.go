// Package term runs the machine inside a text terminal: the screen is drawn
// with half-block characters and the keypad is read from raw stdin.
package term

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/kapitanov/chip8core/internal/vm"
)

const (
	FrameRate       = 60
	DefaultKeyHold  = 150 * time.Millisecond
	keyCtrlC        = 0x03
	keyBackspace    = 0x7F
	keyBackspaceAlt = 0x08

	escHome       = "\x1b[H"
	escClear      = "\x1b[2J"
	escHideCursor = "\x1b[?25l"
	escShowCursor = "\x1b[?25h"
)

// Beeper switches the buzzer tone. audio.OtoBeeper implements it.
type Beeper interface {
	SetActive(on bool)
	Close() error
}

// Host implements vm.HAL on a terminal.
type Host struct {
	in     *os.File
	out    *bufio.Writer
	beeper Beeper
	ticker *time.Ticker
	now    func() time.Time

	keyHold time.Duration
	held    map[vm.PhysicalKey]time.Time

	mu      sync.Mutex
	pending []byte
	readErr error

	oldState *term.State
	stopOnce sync.Once
}

// Config tunes a terminal host.
type Config struct {
	// KeyHold is how long a key counts as pressed after its byte arrives.
	// Terminals report no key releases.
	KeyHold time.Duration
}

// New puts the terminal on in into raw mode and starts reading it.
func New(in *os.File, out io.Writer, beeper Beeper, cfg Config) (*Host, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal")
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, errors.Wrap(err, "term.MakeRaw failed")
	}

	h := newHost(in, out, beeper, cfg)
	h.oldState = oldState

	_, _ = h.out.WriteString(escClear + escHideCursor)
	go h.readLoop()

	return h, nil
}

func newHost(in *os.File, out io.Writer, beeper Beeper, cfg Config) *Host {
	if cfg.KeyHold <= 0 {
		cfg.KeyHold = DefaultKeyHold
	}

	return &Host{
		in:      in,
		out:     bufio.NewWriter(out),
		beeper:  beeper,
		ticker:  time.NewTicker(time.Second / FrameRate),
		now:     time.Now,
		keyHold: cfg.KeyHold,
		held:    make(map[vm.PhysicalKey]time.Time),
	}
}

// Shutdown restores the terminal. The reader goroutine stays blocked on
// stdin until the process exits.
func (h *Host) Shutdown() {
	h.stopOnce.Do(func() {
		h.ticker.Stop()

		if err := h.beeper.Close(); err != nil {
			slog.Error("failed to close beeper", "err", err)
		}

		_, _ = h.out.WriteString(escShowCursor + "\r\n")
		_ = h.out.Flush()

		if h.oldState != nil {
			if err := term.Restore(int(h.in.Fd()), h.oldState); err != nil {
				slog.Error("failed to restore terminal", "err", err)
			}
		}
	})
}

func (h *Host) readLoop() {
	buf := make([]byte, 16)
	for {
		n, err := h.in.Read(buf)

		h.mu.Lock()
		h.pending = append(h.pending, buf[:n]...)
		if err != nil {
			h.readErr = err
		}
		h.mu.Unlock()

		if err != nil {
			return
		}
	}
}

func (h *Host) push(b ...byte) {
	h.mu.Lock()
	h.pending = append(h.pending, b...)
	h.mu.Unlock()
}

func (h *Host) drain() ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	pending := h.pending
	h.pending = nil
	return pending, h.readErr
}

func (h *Host) ReadInput(keyDown func(vm.PhysicalKey), keyUp func(vm.PhysicalKey)) error {
	now := h.now()

	for code, pressedAt := range h.held {
		if now.Sub(pressedAt) >= h.keyHold {
			delete(h.held, code)
			keyUp(code)
		}
	}

	pending, err := h.drain()
	for _, b := range pending {
		switch b {
		case keyCtrlC:
			slog.Debug("term: exit requested")
			return vm.ErrQuit
		case keyBackspace, keyBackspaceAlt:
			return vm.ErrReboot
		}

		code := vm.PhysicalKey(b)
		if _, ok := h.held[code]; !ok {
			keyDown(code)
		}
		h.held[code] = now
	}

	if err != nil {
		if errors.Is(err, io.EOF) {
			return vm.ErrQuit
		}
		return errors.Wrap(err, "failed to read stdin")
	}

	return nil
}

// KeyMapping returns the keypad layout on ASCII bytes, either case.
func (h *Host) KeyMapping() vm.KeyMapping {
	return KeyMapping()
}

func KeyMapping() vm.KeyMapping {
	layout := map[byte]vm.Key{
		'1': vm.Key1, '2': vm.Key2, '3': vm.Key3, '4': vm.KeyC,
		'q': vm.Key4, 'w': vm.Key5, 'e': vm.Key6, 'r': vm.KeyD,
		'a': vm.Key7, 's': vm.Key8, 'd': vm.Key9, 'f': vm.KeyE,
		'z': vm.KeyA, 'x': vm.Key0, 'c': vm.KeyB, 'v': vm.KeyF,
	}

	mapping := make(vm.KeyMapping, 2*len(layout))
	for b, key := range layout {
		mapping[vm.PhysicalKey(b)] = key
		if b >= 'a' && b <= 'z' {
			mapping[vm.PhysicalKey(b-'a'+'A')] = key
		}
	}
	return mapping
}

func (h *Host) Draw(gfx *vm.Framebuffer) error {
	if _, err := h.out.WriteString(escHome + Render(gfx)); err != nil {
		return errors.Wrap(err, "failed to write frame")
	}

	if err := h.out.Flush(); err != nil {
		return errors.Wrap(err, "failed to flush frame")
	}

	return nil
}

func (h *Host) Beep(on bool) error {
	h.beeper.SetActive(on)
	return nil
}

func (h *Host) WaitForNextFrame() error {
	<-h.ticker.C
	return nil
}

// Render draws the framebuffer as ScreenHeight/2 lines of half blocks,
// each character covering two vertically adjacent pixels.
func Render(gfx *vm.Framebuffer) string {
	var sb strings.Builder

	for y := 0; y < vm.ScreenHeight; y += 2 {
		for x := 0; x < vm.ScreenWidth; x++ {
			top, bottom := gfx.At(x, y), gfx.At(x, y+1)

			switch {
			case top && bottom:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bottom:
				sb.WriteRune('▄')
			default:
				sb.WriteByte(' ')
			}
		}
		sb.WriteString("\r\n")
	}

	return sb.String()
}
