package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

// Tray icons are tiny solid dots generated at startup, so the binary
// carries no asset files.
var (
	iconIdle      = dotIcon(color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff})
	iconListening = dotIcon(color.RGBA{R: 0xd0, G: 0x30, B: 0x30, A: 0xff})
)

func dotIcon(c color.RGBA) []byte {
	const size = 16
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	center := float64(size-1) / 2
	radius := float64(size) / 2.5
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) - center
			dy := float64(y) - center
			if dx*dx+dy*dy <= radius*radius {
				img.SetRGBA(x, y, c)
			}
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}
