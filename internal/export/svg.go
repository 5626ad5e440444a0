package export

import (
	"fmt"
	"os"
	"strings"
)

// Point is one vertex of a plotted curve.
type Point struct{ X, Y float64 }

// Zip pairs xs with ys.
func Zip(xs, ys []float64) ([]Point, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("export: %d x values for %d y values", len(xs), len(ys))
	}
	pts := make([]Point, len(xs))
	for i := range xs {
		pts[i] = Point{xs[i], ys[i]}
	}
	return pts, nil
}

// CurveToSVG draws points as a single polyline, scaled to fit with a 10%
// margin, with axis labels and their value ranges.
func CurveToSVG(points []Point, width, height int, xLabel, yLabel, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	dataMinX, dataMaxX, dataMinY, dataMaxY := minX, maxX, minY, maxY

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor)

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString(`"/>
`)
	fmt.Fprintf(&sb, `<g fill="#888899" font-family="monospace" font-size="12">
<text x="%d" y="%d" text-anchor="end">%s [%.4g, %.4g]</text>
<text x="8" y="16">%s [%.4g, %.4g]</text>
</g>
</svg>`,
		width-8, height-8, escape(xLabel), dataMinX, dataMaxX,
		escape(yLabel), dataMinY, dataMaxY)
	return sb.String()
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string { return escaper.Replace(s) }

// WriteSVG renders the curve into path.
func WriteSVG(path string, points []Point, width, height int, xLabel, yLabel string) error {
	svg := CurveToSVG(points, width, height, xLabel, yLabel, "#00ccff")
	if svg == "" {
		return fmt.Errorf("export: need at least two points, got %d", len(points))
	}
	return os.WriteFile(path, []byte(svg), 0644)
}
