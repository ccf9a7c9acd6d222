package hal

import (
	"fmt"
	"log/slog"
	"time"
	"unsafe"

	"github.com/kapitanov/chip8core/internal/vm"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	WindowWidth  = 1024
	WindowHeight = 512

	FrameRate = 60
)

// Beeper switches the buzzer tone. audio.OtoBeeper implements it.
type Beeper interface {
	SetActive(on bool)
	Close() error
}

type HAL struct {
	window          *sdl.Window
	renderer        *sdl.Renderer
	texture         *sdl.Texture
	backBuffer      []uint32
	backBufferPitch int

	beeper Beeper
	ticker *time.Ticker
}

var (
	ErrReboot = vm.ErrReboot
	ErrQuit   = vm.ErrQuit
)

func New(beeper Beeper) (*HAL, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("failed to init sdl: %w", err)
	}

	window, err := sdl.CreateWindow("CHIP-8", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, WindowWidth, WindowHeight, sdl.WINDOW_SHOWN|sdl.WINDOW_UTILITY)
	if err != nil {
		return nil, fmt.Errorf("failed to create sdl window: %w", err)
	}
	slog.Debug("hal: create window")
	window.Show()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		return nil, fmt.Errorf("failed to create sdl renderer: %w", err)
	}
	err = renderer.SetLogicalSize(WindowWidth, WindowHeight)
	if err != nil {
		return nil, fmt.Errorf("failed to resize sdl renderer: %w", err)
	}
	slog.Debug("hal: create renderer")

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_ARGB8888, sdl.TEXTUREACCESS_STREAMING, vm.ScreenWidth, vm.ScreenHeight)
	if err != nil {
		return nil, fmt.Errorf("failed to create sdl texture: %w", err)
	}
	slog.Debug("hal: create texture")

	return &HAL{
		window:          window,
		renderer:        renderer,
		texture:         texture,
		backBuffer:      make([]uint32, vm.ScreenWidth*vm.ScreenHeight),
		backBufferPitch: int(vm.ScreenWidth) * int(unsafe.Sizeof(uint32(0))),
		beeper:          beeper,
		ticker:          time.NewTicker(time.Second / FrameRate),
	}, nil
}

func (hal *HAL) Shutdown() {
	hal.ticker.Stop()

	if err := hal.beeper.Close(); err != nil {
		slog.Error("failed to close beeper", "err", err)
	}

	if err := hal.texture.Destroy(); err != nil {
		slog.Error("failed to destroy sdl texture", "err", err)
	}

	if err := hal.renderer.Destroy(); err != nil {
		slog.Error("failed to destroy sdl renderer", "err", err)
	}

	if err := hal.window.Destroy(); err != nil {
		slog.Error("failed to destroy sdl window", "err", err)
	}

	sdl.Quit()
}

func (hal *HAL) ReadInput(keyDown func(vm.PhysicalKey), keyUp func(vm.PhysicalKey)) error {
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		switch e.GetType() {
		case sdl.QUIT:
			slog.Debug("hal: exit requested")
			return ErrQuit

		case sdl.KEYDOWN:
			ke := e.(*sdl.KeyboardEvent)
			if ke.Keysym.Scancode == sdl.SCANCODE_BACKSPACE {
				return ErrReboot
			}
			if ke.Repeat == 0 {
				keyDown(vm.PhysicalKey(ke.Keysym.Scancode))
			}

		case sdl.KEYUP:
			ke := e.(*sdl.KeyboardEvent)
			keyUp(vm.PhysicalKey(ke.Keysym.Scancode))
		}
	}

	return nil
}

// KeyMapping returns the keypad layout on SDL scancodes.
func (hal *HAL) KeyMapping() vm.KeyMapping {
	return KeyMapping()
}

func KeyMapping() vm.KeyMapping {
	// Physical                Logical
	// ================        =================
	// | 1 | 2 | 3 | 4 |       | 1 | 2 | 3 | C |
	// | q | w | e | r |       | 4 | 5 | 6 | D |
	// | a | s | d | f |  <=>  | 7 | 8 | 9 | E |
	// | z | x | c | v |       | A | 0 | B | F |
	// ================        =================

	return vm.KeyMapping{
		vm.PhysicalKey(sdl.SCANCODE_X): vm.Key0,
		vm.PhysicalKey(sdl.SCANCODE_1): vm.Key1,
		vm.PhysicalKey(sdl.SCANCODE_2): vm.Key2,
		vm.PhysicalKey(sdl.SCANCODE_3): vm.Key3,
		vm.PhysicalKey(sdl.SCANCODE_Q): vm.Key4,
		vm.PhysicalKey(sdl.SCANCODE_W): vm.Key5,
		vm.PhysicalKey(sdl.SCANCODE_E): vm.Key6,
		vm.PhysicalKey(sdl.SCANCODE_A): vm.Key7,
		vm.PhysicalKey(sdl.SCANCODE_S): vm.Key8,
		vm.PhysicalKey(sdl.SCANCODE_D): vm.Key9,
		vm.PhysicalKey(sdl.SCANCODE_Z): vm.KeyA,
		vm.PhysicalKey(sdl.SCANCODE_C): vm.KeyB,
		vm.PhysicalKey(sdl.SCANCODE_4): vm.KeyC,
		vm.PhysicalKey(sdl.SCANCODE_R): vm.KeyD,
		vm.PhysicalKey(sdl.SCANCODE_F): vm.KeyE,
		vm.PhysicalKey(sdl.SCANCODE_V): vm.KeyF,
	}
}

func (hal *HAL) Draw(gfx *vm.Framebuffer) error {
	const (
		bgColor = uint32(0x000000)
		fgColor = uint32(0xbea700)
	)

	for i, lit := range gfx {
		color := bgColor
		if lit {
			color = fgColor
		}

		hal.backBuffer[i] = color
	}

	backBufferPtr := unsafe.Pointer(&hal.backBuffer[0])
	if err := hal.texture.Update(nil, backBufferPtr, hal.backBufferPitch); err != nil {
		return fmt.Errorf("failed to update sdl texture: %w", err)
	}

	if err := hal.renderer.Clear(); err != nil {
		return fmt.Errorf("failed to clear sdl renderer: %w", err)
	}

	if err := hal.renderer.Copy(hal.texture, nil, nil); err != nil {
		return fmt.Errorf("failed to copy sdl texture to renderer: %w", err)
	}

	hal.renderer.Present()
	return nil
}

func (hal *HAL) Beep(on bool) error {
	hal.beeper.SetActive(on)
	return nil
}

// WaitForNextFrame blocks until the next 60 Hz tick.
func (hal *HAL) WaitForNextFrame() error {
	<-hal.ticker.C
	return nil
}
