package vm

// Framebuffer is the 64x32 monochrome screen, row-major.
type Framebuffer [ScreenWidth * ScreenHeight]bool

func (fb *Framebuffer) Clear() {
	for i := range fb {
		fb[i] = false
	}
}

// At reports whether the pixel is lit. Coordinates wrap.
func (fb *Framebuffer) At(x, y int) bool {
	return fb[screenAddr(x, y)]
}

// DrawSprite XORs an 8-pixel-wide sprite onto the screen at (x, y), one
// byte per row, most significant bit leftmost. Sprites wrap around the
// edges instead of clipping. It returns true if any lit pixel was cleared.
func (fb *Framebuffer) DrawSprite(x, y int, sprite []byte) bool {
	collision := false

	for row, bits := range sprite {
		const width = 8
		for col := 0; col < width; col++ {
			mask := uint8(0x80 >> col)
			if bits&mask == 0 {
				continue
			}

			addr := screenAddr(x+col, y+row)
			if fb[addr] {
				collision = true
			}

			fb[addr] = !fb[addr]
		}
	}

	return collision
}

func screenAddr(x, y int) int {
	x %= ScreenWidth
	y %= ScreenHeight
	if x < 0 {
		x += ScreenWidth
	}
	if y < 0 {
		y += ScreenHeight
	}

	return ScreenWidth*y + x
}
