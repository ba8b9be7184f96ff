// Package grid computes UTM zone boundary geometry for projected viewports.
//
// The regular grid is 60 zones of 6° longitude between 80°S and 84°N. Two
// latitude bands depart from it: around Norway (56°N–64°N) zone 32 is
// widened westward to 3°E, and around Svalbard (72°N–84°N) zones 32, 34
// and 36 are absent, their longitudes absorbed by the odd neighbours.
// Catalog holds those departures in projected form; Generator walks the
// zones crossing a viewport and emits clipped boundary segments.
package grid

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/dhconnelly/rtreego"

	"github.com/samirrijal/utmgrid/internal/core/domain"
	"github.com/samirrijal/utmgrid/internal/pkg/geospatial"
)

// UTM is defined between these latitudes; the polar caps use UPS.
const (
	EnvelopeSouth = -80.0
	EnvelopeNorth = 84.0
)

// Band is a latitude band in which the regular grid is replaced.
type Band struct {
	Name  string
	South float64 // inclusive
	North float64 // exclusive, except at the envelope edge
}

var (
	BandNorway   = Band{Name: "norway", South: 56, North: 64}
	BandSvalbard = Band{Name: "svalbard", South: 72, North: 84}
)

// Contains reports whether lat falls in the band. The northern edge is
// open unless it coincides with the envelope edge.
func (b Band) Contains(lat float64) bool {
	if b.North == EnvelopeNorth {
		return lat >= b.South && lat <= b.North
	}
	return lat >= b.South && lat < b.North
}

// line is a segment template in degrees. A vertical line runs the full
// height of its band at Lon; a horizontal line runs from West to East
// at Lat.
type line struct {
	normal, exception domain.Zone
	vertical          bool
	lon               float64
	lat, west, east   float64
}

func meridian(normal, exception domain.Zone, lon float64) line {
	return line{normal: normal, exception: exception, vertical: true, lon: lon}
}

func parallel(normal, exception domain.Zone, lat, west, east float64) line {
	return line{normal: normal, exception: exception, lat: lat, west: west, east: east}
}

// entryDef replaces the western boundary of Zone inside Band with lines.
// An empty lines slice only suppresses the regular boundary.
type entryDef struct {
	zone  domain.Zone
	band  Band
	lines []line
}

// Each entry is keyed by the nominal zone whose 6° range holds the
// anomaly. Lines are listed north to south, then east to west.
var exceptionTable = []entryDef{
	{zone: 31, band: BandNorway, lines: []line{
		parallel(31, 32, 64, 3, 6),
		parallel(31, 32, 56, 3, 6),
		meridian(31, 32, 3),
		meridian(31, domain.NoZone, 0),
	}},
	{zone: 32, band: BandSvalbard, lines: []line{
		parallel(32, 33, 72, 9, 12),
		meridian(32, 33, 9),
		parallel(32, 31, 72, 6, 9),
		meridian(32, 32, 6),
	}},
	{zone: 32, band: BandNorway},
	{zone: 33, band: BandSvalbard},
	{zone: 34, band: BandSvalbard, lines: []line{
		parallel(34, 35, 72, 21, 24),
		meridian(34, 35, 21),
		parallel(34, 33, 72, 18, 21),
		meridian(34, 34, 18),
	}},
	{zone: 35, band: BandSvalbard},
	{zone: 36, band: BandSvalbard, lines: []line{
		parallel(36, 37, 72, 33, 36),
		meridian(36, 37, 33),
		parallel(36, 35, 72, 30, 33),
		meridian(36, 36, 30),
	}},
	{zone: 37, band: BandSvalbard},
}

// zoneSpan is the actual longitude extent of a zone inside a band.
type zoneSpan struct {
	band       Band
	zone       domain.Zone
	west, east float64
}

var widenedZones = []zoneSpan{
	{BandNorway, 31, 0, 3},
	{BandNorway, 32, 3, 12},
	{BandSvalbard, 31, 0, 9},
	{BandSvalbard, 33, 9, 21},
	{BandSvalbard, 35, 21, 33},
	{BandSvalbard, 37, 33, 42},
}

// Entry is one projected catalog entry.
type Entry struct {
	Zone     domain.Zone              `json:"zone"`
	Band     string                   `json:"band"`
	South    float64                  `json:"south"`
	North    float64                  `json:"north"`
	Extent   domain.ProjectedRect     `json:"extent"`
	Segments []domain.BoundarySegment `json:"segments"`

	top, bottom float64
}

// MinY is the projected northern edge of the entry's band.
func (e Entry) MinY() float64 { return e.top }

// MaxY is the projected southern edge of the entry's band. It is exact,
// unlike Extent.MaxY(), so connectors on the edge compare equal to it.
func (e Entry) MaxY() float64 { return e.bottom }

func (e Entry) clone() Entry {
	e.Segments = append([]domain.BoundarySegment(nil), e.Segments...)
	return e
}

// Catalog is the immutable, projected form of the exception table. It is
// safe for concurrent use.
type Catalog struct {
	entries  []Entry
	byZone   map[domain.Zone][]int
	envelope span
	tree     *rtreego.Rtree
}

type indexedEntry struct {
	idx  int
	rect rtreego.Rect
}

func (e indexedEntry) Bounds() rtreego.Rect { return e.rect }

// NewCatalog projects the exception table. Entries keep table order and
// each zone's entries are ordered north to south.
func NewCatalog() (*Catalog, error) {
	top, err := geospatial.LatToY(EnvelopeNorth)
	if err != nil {
		return nil, fmt.Errorf("envelope north: %w", err)
	}
	bottom, err := geospatial.LatToY(EnvelopeSouth)
	if err != nil {
		return nil, fmt.Errorf("envelope south: %w", err)
	}

	c := &Catalog{
		byZone:   make(map[domain.Zone][]int),
		envelope: span{min: top, max: bottom},
		tree:     rtreego.NewTree(2, 2, 8),
	}

	for _, def := range exceptionTable {
		e, err := projectEntry(def)
		if err != nil {
			return nil, fmt.Errorf("catalog zone %d %s: %w", def.zone, def.band.Name, err)
		}
		idx := len(c.entries)
		c.entries = append(c.entries, e)
		c.byZone[e.Zone] = append(c.byZone[e.Zone], idx)

		rect, err := rtreego.NewRect(
			rtreego.Point{e.Extent.MinX, e.Extent.MinY},
			[]float64{e.Extent.Width, e.Extent.Height},
		)
		if err != nil {
			return nil, fmt.Errorf("index zone %d %s: %w", def.zone, def.band.Name, err)
		}
		c.tree.Insert(indexedEntry{idx: idx, rect: rect})
	}

	for z, idxs := range c.byZone {
		sort.SliceStable(idxs, func(i, j int) bool {
			return c.entries[idxs[i]].MinY() < c.entries[idxs[j]].MinY()
		})
		c.byZone[z] = idxs
	}

	return c, nil
}

var defaultCatalog = sync.OnceValues(NewCatalog)

// DefaultCatalog returns the process-wide catalog, built on first use.
func DefaultCatalog() (*Catalog, error) {
	return defaultCatalog()
}

func projectEntry(def entryDef) (Entry, error) {
	if !def.zone.Valid() {
		return Entry{}, fmt.Errorf("zone %d: %w", def.zone, domain.ErrOutOfRange)
	}
	top, err := geospatial.LatToY(def.band.North)
	if err != nil {
		return Entry{}, err
	}
	bottom, err := geospatial.LatToY(def.band.South)
	if err != nil {
		return Entry{}, err
	}

	west := geospatial.ZoneWestLon(def.zone)
	minX := geospatial.LonToX(west)
	e := Entry{
		Zone:  def.zone,
		Band:  def.band.Name,
		South: def.band.South,
		North: def.band.North,
		Extent: domain.ProjectedRect{
			MinX:   minX,
			MinY:   top,
			Width:  geospatial.LonToX(west+domain.ZoneWidthDeg) - minX,
			Height: bottom - top,
		},
		top:    top,
		bottom: bottom,
	}

	for _, l := range def.lines {
		if l.normal != def.zone {
			return Entry{}, fmt.Errorf("line zone %d under entry %d: %w", l.normal, def.zone, domain.ErrInvariantViolation)
		}
		if l.vertical {
			x := geospatial.LonToX(l.lon)
			e.Segments = append(e.Segments, domain.BoundarySegment{
				NormalZone:    l.normal,
				ExceptionZone: l.exception,
				Start:         domain.ProjectedPoint{X: x, Y: top},
				End:           domain.ProjectedPoint{X: x, Y: bottom},
			})
			continue
		}
		y, err := geospatial.LatToY(l.lat)
		if err != nil {
			return Entry{}, err
		}
		e.Segments = append(e.Segments, domain.BoundarySegment{
			NormalZone:    l.normal,
			ExceptionZone: l.exception,
			Start:         domain.ProjectedPoint{X: geospatial.LonToX(l.west), Y: y},
			End:           domain.ProjectedPoint{X: geospatial.LonToX(l.east), Y: y},
		})
	}
	return e, nil
}

// Envelope returns the projected y-range of the UTM latitude envelope,
// northern edge first.
func (c *Catalog) Envelope() (minY, maxY float64) {
	return c.envelope.min, c.envelope.max
}

// Entries returns a copy of every catalog entry in table order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.clone()
	}
	return out
}

// ForZone returns a copy of the entries keyed by z, north to south.
func (c *Catalog) ForZone(z domain.Zone) []Entry {
	idxs := c.byZone[z]
	out := make([]Entry, len(idxs))
	for i, idx := range idxs {
		out[i] = c.entries[idx].clone()
	}
	return out
}

// forZone is ForZone without copying, for the generator's hot path.
func (c *Catalog) forZone(z domain.Zone, fn func(*Entry)) {
	for _, idx := range c.byZone[z] {
		fn(&c.entries[idx])
	}
}

// Intersecting returns the entries whose extent touches the viewport,
// in table order. Viewports reaching past either world edge are matched
// against the adjacent world copies as well.
func (c *Catalog) Intersecting(viewport domain.ProjectedRect) []Entry {
	if viewport.IsDegenerate() {
		return []Entry{}
	}

	const pad = 1.0
	world := geospatial.WorldSize
	seen := make(map[int]bool)
	first := math.Floor(viewport.MinX / world)
	last := math.Floor(viewport.MaxX() / world)
	if last-first > 1 {
		first, last = 0, 0
		viewport = geospatial.WorldRect()
	}

	for k := first; k <= last; k++ {
		shifted := viewport
		shifted.MinX -= k * world
		query, err := rtreego.NewRect(
			rtreego.Point{shifted.MinX - pad, shifted.MinY - pad},
			[]float64{shifted.Width + 2*pad, shifted.Height + 2*pad},
		)
		if err != nil {
			continue
		}
		for _, hit := range c.tree.SearchIntersect(query) {
			ie := hit.(indexedEntry)
			if overlapsClosed(c.entries[ie.idx].Extent, shifted) {
				seen[ie.idx] = true
			}
		}
	}

	idxs := make([]int, 0, len(seen))
	for idx := range seen {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)

	out := make([]Entry, len(idxs))
	for i, idx := range idxs {
		out[i] = c.entries[idx].clone()
	}
	return out
}

func overlapsClosed(a, b domain.ProjectedRect) bool {
	return a.MinX <= b.MaxX() && b.MinX <= a.MaxX() &&
		a.MinY <= b.MaxY() && b.MinY <= a.MaxY()
}

// ZoneAt returns the zone containing p, honouring the Norway and
// Svalbard exceptions. Points outside the UTM envelope yield
// domain.ErrOutOfRange.
func (c *Catalog) ZoneAt(p domain.GeoPoint) (domain.Zone, error) {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) {
		return domain.NoZone, fmt.Errorf("point %+v: %w", p, domain.ErrOutOfRange)
	}
	if p.Lat < EnvelopeSouth || p.Lat > EnvelopeNorth {
		return domain.NoZone, fmt.Errorf("latitude %v outside UTM envelope [%v, %v]: %w",
			p.Lat, EnvelopeSouth, EnvelopeNorth, domain.ErrOutOfRange)
	}
	lon := geospatial.NormalizeLon(p.Lon)
	for _, s := range widenedZones {
		if s.band.Contains(p.Lat) && lon >= s.west && lon < s.east {
			return s.zone, nil
		}
	}
	return geospatial.ZoneForLon(lon), nil
}

// ZoneExtent returns the actual longitude range of z at latitude lat.
// It is false when z does not exist there.
func (c *Catalog) ZoneExtent(z domain.Zone, lat float64) (west, east float64, ok bool) {
	if !z.Valid() || lat < EnvelopeSouth || lat > EnvelopeNorth {
		return 0, 0, false
	}
	west = geospatial.ZoneWestLon(z)
	east = west + domain.ZoneWidthDeg
	for _, s := range widenedZones {
		if !s.band.Contains(lat) {
			continue
		}
		if s.zone == z {
			return s.west, s.east, true
		}
		// A widened neighbour may cover this zone's nominal range.
		if s.west <= west && s.east >= east {
			return 0, 0, false
		}
		if s.west < east && s.east > west {
			if s.east < east {
				west = s.east
			} else {
				east = s.west
			}
		}
	}
	if east <= west {
		return 0, 0, false
	}
	return west, east, true
}
