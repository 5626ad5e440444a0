package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCurveToSVG(t *testing.T) {
	pts, err := Zip([]float64{3.5, 29.7, 29.7, 3.5}, []float64{40, 3, 1, 1})
	if err != nil {
		t.Fatal(err)
	}
	svg := CurveToSVG(pts, 400, 300, "volume [cm³]", "pressure <bar>", "#fff")
	for _, want := range []string{"<svg", `width="400"`, "M", " L", "volume [cm³] [3.5, 29.7]", "pressure &lt;bar&gt;"} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg lacks %q", want)
		}
	}
	if got := strings.Count(svg, " L"); got != 3 {
		t.Errorf("got %d line segments, want 3", got)
	}
	if CurveToSVG(pts[:1], 400, 300, "", "", "#fff") != "" {
		t.Error("single point should render nothing")
	}
}

func TestZipMismatch(t *testing.T) {
	if _, err := Zip([]float64{1}, nil); err == nil {
		t.Error("expected error")
	}
}

func TestWriteSVG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pv.svg")
	pts, _ := Zip([]float64{0, 1}, []float64{0, 1})
	if err := WriteSVG(path, pts, 100, 100, "x", "y"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "</svg>") {
		t.Error("truncated svg")
	}
	if err := WriteSVG(path, pts[:1], 100, 100, "x", "y"); err == nil {
		t.Error("expected error for a single point")
	}
}
