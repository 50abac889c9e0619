// Package avatar derives profile pictures from a user's avatar seed: a
// DiceBear URL for the browser and a locally rendered PNG fallback.
package avatar

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"image/color"
	"net/url"

	"github.com/fogleman/gg"

	"github.com/wesley950/coisando-coisas/internal/common"
)

// SeedBytes is the amount of randomness in a fresh seed; the seed string
// is twice as long in hex.
const SeedBytes = 16

// NewSeed returns a fresh random seed.
func NewSeed() (string, error) {
	return common.MakeRandHexString(SeedBytes)
}

const dicebearBase = "https://api.dicebear.com/9.x/dylan/svg"

// URL returns the DiceBear "dylan" avatar URL for seed.
func URL(seed string) string {
	q := url.Values{}
	q.Set("seed", seed)
	q.Set("radius", "50")
	q.Set("backgroundColor", "29e051,619eff,ffa6e6,b6e3f4,c0aede,d1d4f9,ffd5dc,ffdfbf")
	q.Set("hair", "buns,flatTop,fluffy,longCurls,parting,plain,roundBob,shaggy,shortCurls,spiky,wavy,bangs")
	q.Set("mood", "happy,hopeful,superHappy")
	return dicebearBase + "?" + q.Encode()
}

var backgrounds = []color.NRGBA{
	{0x29, 0xe0, 0x51, 0xff},
	{0x61, 0x9e, 0xff, 0xff},
	{0xff, 0xa6, 0xe6, 0xff},
	{0xb6, 0xe3, 0xf4, 0xff},
	{0xc0, 0xae, 0xde, 0xff},
	{0xd1, 0xd4, 0xf9, 0xff},
	{0xff, 0xd5, 0xdc, 0xff},
	{0xff, 0xdf, 0xbf, 0xff},
}

const (
	grid = 5
	// MaxSize bounds the rendered edge length in pixels.
	MaxSize = 512
)

// Render draws a circular, horizontally symmetric 5x5 identicon for seed.
// The same seed and size always produce the same PNG bytes.
func Render(seed string, size int) ([]byte, error) {
	if seed == "" {
		return nil, fmt.Errorf("empty seed")
	}
	if size <= 0 || size > MaxSize {
		return nil, fmt.Errorf("size %d out of range", size)
	}

	sum := sha256.Sum256([]byte(seed))
	bg := backgrounds[int(sum[0])%len(backgrounds)]
	fg := color.NRGBA{R: sum[1] / 2, G: sum[2] / 2, B: sum[3] / 2, A: 0xff}

	dc := gg.NewContext(size, size)
	s := float64(size)

	dc.DrawCircle(s/2, s/2, s/2)
	dc.Clip()

	dc.SetColor(bg)
	dc.DrawRectangle(0, 0, s, s)
	dc.Fill()

	// the pattern sits inside the circle's inscribed square
	margin := s * 0.2
	cell := (s - 2*margin) / grid
	dc.SetColor(fg)
	for row := 0; row < grid; row++ {
		for col := 0; col < (grid+1)/2; col++ {
			bit := sum[4+row*3+col]
			if bit&1 == 0 {
				continue
			}
			y := margin + float64(row)*cell
			dc.DrawRectangle(margin+float64(col)*cell, y, cell, cell)
			dc.DrawRectangle(margin+float64(grid-1-col)*cell, y, cell, cell)
		}
	}
	dc.Fill()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
