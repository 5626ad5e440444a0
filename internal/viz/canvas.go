package viz

import (
	"fmt"
	"math"
	"strings"
)

// Braille cell dot bits, indexed [row][column] within a 2x4 cell.
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a grid of Braille cells with (2·Width)x(4·Height) addressable dots.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
	return c
}

// Set turns on the dot at sub-cell coordinates (x, y), y growing downwards.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// PVDiagram draws the closed curve (volume[i], pressure[i]) on a w x h cell
// canvas. With logScale both axes are logarithmic, which turns polytropic
// compression and expansion into straight lines.
func PVDiagram(volume, pressure []float64, w, h int, logScale bool) (string, error) {
	if len(volume) != len(pressure) || len(volume) < 2 {
		return "", fmt.Errorf("viz: need matching volume and pressure series, got %d and %d points", len(volume), len(pressure))
	}
	xs, ys := make([]float64, len(volume)), make([]float64, len(pressure))
	for i := range volume {
		xs[i], ys[i] = volume[i], pressure[i]
		if logScale {
			if xs[i] <= 0 || ys[i] <= 0 {
				return "", fmt.Errorf("viz: log scale needs positive values, point %d is (%g, %g)", i, xs[i], ys[i])
			}
			xs[i], ys[i] = math.Log10(xs[i]), math.Log10(ys[i])
		}
	}
	xMin, xMax := bounds(xs)
	yMin, yMax := bounds(ys)

	c := NewCanvas(w, h)
	px := func(v float64) int { return int(math.Round((v - xMin) / (xMax - xMin) * float64(2*w-1))) }
	py := func(v float64) int { return int(math.Round((yMax - v) / (yMax - yMin) * float64(4*h-1))) }
	for i := 1; i < len(xs); i++ {
		c.DrawLine(px(xs[i-1]), py(ys[i-1]), px(xs[i]), py(ys[i]))
	}

	var b strings.Builder
	b.WriteString(Subtle.Render(fmt.Sprintf("p %.3g .. %.3g", minOf(pressure), maxOf(pressure))))
	b.WriteByte('\n')
	b.WriteString(c.String())
	b.WriteString(Subtle.Render(fmt.Sprintf("V %.3g .. %.3g", minOf(volume), maxOf(volume))))
	return b.String(), nil
}

// bounds returns the range of v, widened when it is degenerate.
func bounds(v []float64) (lo, hi float64) {
	lo, hi = minOf(v), maxOf(v)
	if hi == lo {
		lo, hi = lo-0.5, hi+0.5
	}
	return lo, hi
}

func minOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		m = min(m, x)
	}
	return m
}

func maxOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		m = max(m, x)
	}
	return m
}
