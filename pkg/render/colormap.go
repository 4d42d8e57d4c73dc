package render

import "image/color"

// viridisAnchors are evenly spaced samples of the viridis colormap from
// position 0.0 to 1.0. Intermediate positions interpolate linearly in RGB.
var viridisAnchors = [9][3]uint8{
	{0x44, 0x01, 0x54},
	{0x47, 0x2d, 0x7b},
	{0x3b, 0x52, 0x8b},
	{0x2c, 0x72, 0x8e},
	{0x21, 0x91, 0x8c},
	{0x27, 0xad, 0x81},
	{0x5e, 0xc9, 0x62},
	{0xaa, 0xdc, 0x32},
	{0xfd, 0xe7, 0x25},
}

// Viridis maps a position in [0, 1] onto the viridis colormap. Positions
// outside the range clamp to the endpoints.
func Viridis(pos float64) color.RGBA {
	if pos <= 0 {
		a := viridisAnchors[0]
		return color.RGBA{a[0], a[1], a[2], 0xff}
	}
	if pos >= 1 {
		a := viridisAnchors[len(viridisAnchors)-1]
		return color.RGBA{a[0], a[1], a[2], 0xff}
	}

	scaled := pos * float64(len(viridisAnchors)-1)
	i := int(scaled)
	frac := scaled - float64(i)

	lo := viridisAnchors[i]
	hi := viridisAnchors[i+1]
	return color.RGBA{
		lerp(lo[0], hi[0], frac),
		lerp(lo[1], hi[1], frac),
		lerp(lo[2], hi[2], frac),
		0xff,
	}
}

func lerp(a, b uint8, frac float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*frac + 0.5)
}

// Luminance returns the perceived brightness of a color in [0, 1] using the
// ITU-R BT.601 weights. Cell text is black on bright cells (luminance above
// 0.5) and white on dark ones.
func Luminance(c color.RGBA) float64 {
	return (0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)) / 255.0
}
