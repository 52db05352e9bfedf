package render

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// setThick paints a square of side thickness centred on (x, y), clipped to
// the canvas.
func setThick(img *image.NRGBA, x, y, thickness int, c color.Color) {
	if thickness < 1 {
		thickness = 1
	}
	half := thickness / 2
	b := img.Bounds()
	for dy := -half; dy < thickness-half; dy++ {
		for dx := -half; dx < thickness-half; dx++ {
			if (image.Point{X: x + dx, Y: y + dy}).In(b) {
				img.Set(x+dx, y+dy, c)
			}
		}
	}
}

// drawLine draws a Bresenham line from (x0, y0) to (x1, y1).
func drawLine(img *image.NRGBA, x0, y0, x1, y1, thickness int, c color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		setThick(img, x0, y0, thickness, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// drawCircle draws a circle outline with the midpoint algorithm.
func drawCircle(img *image.NRGBA, cx, cy, r, thickness int, c color.Color) {
	if r <= 0 {
		setThick(img, cx, cy, thickness, c)
		return
	}
	x, y := r, 0
	e := 1 - r
	for x >= y {
		for _, p := range [8][2]int{
			{x, y}, {y, x}, {-y, x}, {-x, y},
			{-x, -y}, {-y, -x}, {y, -x}, {x, -y},
		} {
			setThick(img, cx+p[0], cy+p[1], thickness, c)
		}
		y++
		if e < 0 {
			e += 2*y + 1
		} else {
			x--
			e += 2*(y-x) + 1
		}
	}
}

// drawCross draws a diagonal cross with arms of length size.
func drawCross(img *image.NRGBA, x, y, size, thickness int, c color.Color) {
	drawLine(img, x-size, y-size, x+size, y+size, thickness, c)
	drawLine(img, x-size, y+size, x+size, y-size, thickness, c)
}

// drawLabel writes text with its top-left corner at (x, y) over a filled
// background box.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.Color) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.NewUniform(fg), Face: face}
	width := d.MeasureString(text).Ceil()
	height := face.Metrics().Height.Ceil()

	box := image.Rect(x-2, y-1, x+width+2, y+height+1).Intersect(img.Bounds())
	draw.Draw(img, box, image.NewUniform(bg), image.Point{}, draw.Over)

	d.Dot = fixed.P(x, y+face.Metrics().Ascent.Ceil())
	d.DrawString(text)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
