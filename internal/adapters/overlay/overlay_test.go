package overlay_test

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/samirrijal/utmgrid/internal/adapters/overlay"
	"github.com/samirrijal/utmgrid/internal/core/domain"
	"github.com/samirrijal/utmgrid/internal/core/grid"
	"github.com/samirrijal/utmgrid/internal/pkg/geospatial"
)

type line struct {
	start, end domain.ProjectedPoint
	width      float64
}

type label struct {
	at   domain.ProjectedPoint
	text string
}

type recorder struct {
	lines  []line
	labels []label
}

func (r *recorder) StrokeLine(start, end domain.ProjectedPoint, width float64) {
	r.lines = append(r.lines, line{start, end, width})
}

func (r *recorder) DrawLabel(at domain.ProjectedPoint, text string) {
	r.labels = append(r.labels, label{at, text})
}

func TestDraw(t *testing.T) {
	segs := []domain.BoundarySegment{
		{NormalZone: 5, Start: domain.ProjectedPoint{X: 100, Y: 0}, End: domain.ProjectedPoint{X: 100, Y: 50}},
		{NormalZone: 32, ExceptionZone: 32, Start: domain.ProjectedPoint{X: 200, Y: 0}, End: domain.ProjectedPoint{X: 200, Y: 50}},
		{NormalZone: 31, ExceptionZone: 32, Start: domain.ProjectedPoint{X: 300, Y: 0}, End: domain.ProjectedPoint{X: 300, Y: 50}},
	}
	rec := &recorder{}

	n, err := overlay.Draw(segs, rec, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 || len(rec.lines) != 2 || len(rec.labels) != 2 {
		t.Fatalf("expected the gap marker skipped, got %d drawn, %+v", n, rec)
	}
	if rec.lines[0].width != 6 {
		t.Errorf("expected width 3/0.5, got %v", rec.lines[0].width)
	}
	if rec.labels[0].text != "05" {
		t.Errorf("expected zero-padded label, got %q", rec.labels[0].text)
	}
	if rec.labels[1].text != "32" {
		t.Errorf("expected exception zone label, got %q", rec.labels[1].text)
	}
	want := domain.ProjectedPoint{X: 110, Y: 40}
	if rec.labels[0].at != want {
		t.Errorf("expected label at %+v, got %+v", want, rec.labels[0].at)
	}
}

func TestDraw_BadZoom(t *testing.T) {
	for _, z := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := overlay.Draw(nil, &recorder{}, z); err == nil {
			t.Errorf("expected error for zoom %v", z)
		}
	}
}

func TestDraw_SvalbardLabels(t *testing.T) {
	c, err := grid.NewCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	vp, err := geospatial.ProjectBounds(domain.Bounds{West: 1, South: 74, East: 41, North: 80})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	segs, err := grid.NewGenerator(c, nil).Compute(vp)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	rec := &recorder{}
	if _, err := overlay.Draw(segs, rec, 1e-4); err != nil {
		t.Fatalf("draw: %v", err)
	}
	var texts []string
	for _, l := range rec.labels {
		texts = append(texts, l.text)
	}
	if got := strings.Join(texts, ","); got != "37,35,33" {
		t.Errorf("expected labels 37,35,33, got %s", got)
	}
}

func TestSVG(t *testing.T) {
	vp := domain.ProjectedRect{MinX: 0, MinY: 0, Width: 1000, Height: 400}
	svg := overlay.NewSVG(vp)
	segs := []domain.BoundarySegment{
		{NormalZone: 7, Start: domain.ProjectedPoint{X: 100, Y: 0}, End: domain.ProjectedPoint{X: 100, Y: 400}},
	}
	if _, err := overlay.Draw(segs, svg, 1); err != nil {
		t.Fatalf("draw: %v", err)
	}

	var buf bytes.Buffer
	if _, err := svg.WriteTo(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`viewBox="0 0 1000 400"`,
		`<line x1="100" y1="0" x2="100" y2="400" stroke-width="3"/>`,
		`<text x="105" y="395">07</text>`,
		`font-size="10"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in\n%s", want, out)
		}
	}
}
