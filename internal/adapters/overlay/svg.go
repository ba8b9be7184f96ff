package overlay

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/samirrijal/utmgrid/internal/core/domain"
)

// SVG is a SegmentRenderer producing an SVG document whose user space
// is the viewport in map units.
type SVG struct {
	viewport domain.ProjectedRect
	body     strings.Builder
	Stroke   string
	FontSize float64
}

// NewSVG creates an SVG renderer for viewport.
func NewSVG(viewport domain.ProjectedRect) *SVG {
	return &SVG{viewport: viewport, Stroke: "#548328"}
}

// StrokeLine appends a line of the given stroke width in map units.
func (s *SVG) StrokeLine(start, end domain.ProjectedPoint, width float64) {
	fmt.Fprintf(&s.body, `<line x1="%g" y1="%g" x2="%g" y2="%g" stroke-width="%g"/>`+"\n",
		start.X, start.Y, end.X, end.Y, width)
}

// DrawLabel appends text anchored at its baseline start.
func (s *SVG) DrawLabel(at domain.ProjectedPoint, text string) {
	fmt.Fprintf(&s.body, `<text x="%g" y="%g">%s</text>`+"\n", at.X, at.Y, html.EscapeString(text))
}

// WriteTo writes the complete document to w.
func (s *SVG) WriteTo(w io.Writer) (int64, error) {
	font := s.FontSize
	if font <= 0 {
		font = s.viewport.Height / 40
	}
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%g %g %g %g">`+"\n",
		s.viewport.MinX, s.viewport.MinY, s.viewport.Width, s.viewport.Height)
	fmt.Fprintf(&b, `<g stroke="%s" stroke-linecap="square" fill="%s" font-family="Helvetica" font-size="%g">`+"\n",
		html.EscapeString(s.Stroke), html.EscapeString(s.Stroke), font)
	b.WriteString(s.body.String())
	b.WriteString("</g>\n</svg>\n")
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
