package tray

const iconSize = 22

// Crescent colors per state (ARGB).
var (
	iconNormalPixmap   = generateMoonIcon(0xFF2ECC71) // Emerald
	iconImminentPixmap = generateMoonIcon(0xFFF27835) // Orange
	iconEndedPixmap    = generateMoonIcon(0xFF8E9AAF) // Slate
	iconStalePixmap    = generateMoonIcon(0xFFCC575D) // Red
)

func iconFor(state State) []byte {
	switch state {
	case StateImminent:
		return iconImminentPixmap
	case StateEnded:
		return iconEndedPixmap
	case StateStale:
		return iconStalePixmap
	default:
		return iconNormalPixmap
	}
}

// generateMoonIcon draws a crescent: a disc with a second, offset disc cut
// out of it. Pixels are ARGB in network byte order.
func generateMoonIcon(color uint32) []byte {
	const (
		cx, cy = 11.0, 11.0
		r      = 9.0
		// Center of the disc removed to form the crescent.
		ox, oy = 15.0, 8.0
		or     = 7.5
	)

	pixels := make([]byte, iconSize*iconSize*4)

	setPixel := func(x, y int, argb uint32) {
		i := (y*iconSize + x) * 4
		pixels[i] = byte(argb >> 24)   // A
		pixels[i+1] = byte(argb >> 16) // R
		pixels[i+2] = byte(argb >> 8)  // G
		pixels[i+3] = byte(argb)       // B
	}

	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			inMoon := (px-cx)*(px-cx)+(py-cy)*(py-cy) <= r*r
			inShadow := (px-ox)*(px-ox)+(py-oy)*(py-oy) <= or*or
			if inMoon && !inShadow {
				setPixel(x, y, color)
			}
		}
	}

	// Star beside the crescent.
	star := uint32(0xFFF5F5F5)
	setPixel(16, 12, star)
	setPixel(15, 12, star)
	setPixel(17, 12, star)
	setPixel(16, 11, star)
	setPixel(16, 13, star)

	return pixels
}
