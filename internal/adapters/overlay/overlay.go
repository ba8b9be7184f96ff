// Package overlay paints boundary segments onto a ports.SegmentRenderer,
// applying the rules every consumer of the grid must follow: gap markers
// are skipped, stroke width is scaled by the display zoom and each line
// gets a two-digit zone label near its lower end.
package overlay

import (
	"fmt"
	"math"

	"github.com/samirrijal/utmgrid/internal/core/domain"
	"github.com/samirrijal/utmgrid/internal/core/ports"
)

const (
	// LineWidth is the stroke width in screen points.
	LineWidth = 3.0
	// LabelOffset is the label distance from the line end in screen points.
	LabelOffset = 5.0
)

// Draw strokes and labels segs on r. zoomScale is screen points per map
// unit and must be positive. It returns the number of lines drawn.
func Draw(segs []domain.BoundarySegment, r ports.SegmentRenderer, zoomScale float64) (int, error) {
	if !(zoomScale > 0) || math.IsInf(zoomScale, 0) {
		return 0, fmt.Errorf("zoom scale %v must be positive and finite", zoomScale)
	}

	width := LineWidth / zoomScale
	offset := LabelOffset / zoomScale

	drawn := 0
	for _, s := range segs {
		if s.IsGap() {
			continue
		}
		r.StrokeLine(s.Start, s.End, width)
		// Up and to the right of the line's southern end.
		r.DrawLabel(domain.ProjectedPoint{X: s.Start.X + offset, Y: s.End.Y - offset}, s.Label().String())
		drawn++
	}
	return drawn, nil
}
