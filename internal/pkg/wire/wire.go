// Package wire encodes viewports and boundary sets in the protocol
// buffers wire format, for NATS payloads, cache values and protobuf
// REST responses.
//
// The messages are equivalent to:
//
//	message Point       { double x = 1; double y = 2; }
//	message Viewport    { double min_x = 1; double min_y = 2; double width = 3; double height = 4; }
//	message Segment     { int32 normal_zone = 1; int32 exception_zone = 2; Point start = 3; Point end = 4; }
//	message BoundarySet { Viewport viewport = 1; repeated Segment segments = 2; }
package wire

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/samirrijal/utmgrid/internal/core/domain"
)

// ContentType is the media type of encoded messages.
const ContentType = "application/x-protobuf"

// ErrMalformed is returned for payloads that are not valid messages.
var ErrMalformed = errors.New("malformed wire message")

// MarshalViewport encodes a viewport.
func MarshalViewport(r domain.ProjectedRect) []byte {
	return appendViewport(nil, r)
}

// UnmarshalViewport decodes a viewport.
func UnmarshalViewport(b []byte) (domain.ProjectedRect, error) {
	var r domain.ProjectedRect
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case 1:
			return consumeDouble(typ, v, &r.MinX)
		case 2:
			return consumeDouble(typ, v, &r.MinY)
		case 3:
			return consumeDouble(typ, v, &r.Width)
		case 4:
			return consumeDouble(typ, v, &r.Height)
		}
		return skip(num, typ, v)
	})
	if err != nil {
		return domain.ProjectedRect{}, fmt.Errorf("viewport: %w", err)
	}
	return r, nil
}

// MarshalBoundarySet encodes a boundary set.
func MarshalBoundarySet(set domain.BoundarySet) []byte {
	b := protowire.AppendTag(nil, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, appendViewport(nil, set.Viewport))
	for _, s := range set.Segments {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, appendSegment(nil, s))
	}
	return b
}

// UnmarshalBoundarySet decodes a boundary set. The result's Segments is
// never nil.
func UnmarshalBoundarySet(b []byte) (domain.BoundarySet, error) {
	set := domain.BoundarySet{Segments: []domain.BoundarySegment{}}
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case 1:
			return consumeMessage(typ, v, func(m []byte) error {
				r, err := UnmarshalViewport(m)
				set.Viewport = r
				return err
			})
		case 2:
			return consumeMessage(typ, v, func(m []byte) error {
				s, err := unmarshalSegment(m)
				set.Segments = append(set.Segments, s)
				return err
			})
		}
		return skip(num, typ, v)
	})
	if err != nil {
		return domain.BoundarySet{}, fmt.Errorf("boundary set: %w", err)
	}
	return set, nil
}

func appendViewport(b []byte, r domain.ProjectedRect) []byte {
	b = appendDouble(b, 1, r.MinX)
	b = appendDouble(b, 2, r.MinY)
	b = appendDouble(b, 3, r.Width)
	return appendDouble(b, 4, r.Height)
}

func appendSegment(b []byte, s domain.BoundarySegment) []byte {
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(s.NormalZone))
	if s.ExceptionZone != domain.NoZone {
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(s.ExceptionZone))
	}
	b = protowire.AppendTag(b, 3, protowire.BytesType)
	b = protowire.AppendBytes(b, appendPoint(nil, s.Start))
	b = protowire.AppendTag(b, 4, protowire.BytesType)
	return protowire.AppendBytes(b, appendPoint(nil, s.End))
}

func appendPoint(b []byte, p domain.ProjectedPoint) []byte {
	b = appendDouble(b, 1, p.X)
	return appendDouble(b, 2, p.Y)
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func unmarshalSegment(b []byte) (domain.BoundarySegment, error) {
	var s domain.BoundarySegment
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case 1:
			return consumeZone(typ, v, &s.NormalZone)
		case 2:
			return consumeZone(typ, v, &s.ExceptionZone)
		case 3:
			return consumeMessage(typ, v, func(m []byte) (err error) {
				s.Start, err = unmarshalPoint(m)
				return err
			})
		case 4:
			return consumeMessage(typ, v, func(m []byte) (err error) {
				s.End, err = unmarshalPoint(m)
				return err
			})
		}
		return skip(num, typ, v)
	})
	if err != nil {
		return domain.BoundarySegment{}, fmt.Errorf("segment: %w", err)
	}
	return s, nil
}

func unmarshalPoint(b []byte) (domain.ProjectedPoint, error) {
	var p domain.ProjectedPoint
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case 1:
			return consumeDouble(typ, v, &p.X)
		case 2:
			return consumeDouble(typ, v, &p.Y)
		}
		return skip(num, typ, v)
	})
	return p, err
}

// walk calls fn for each field in b. fn consumes the field value at the
// start of v and reports how many bytes it used.
func walk(b []byte, fn func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return malformed(n)
		}
		b = b[n:]
		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		b = b[m:]
	}
	return nil
}

func consumeDouble(typ protowire.Type, b []byte, dst *float64) (int, error) {
	if typ != protowire.Fixed64Type {
		return 0, fmt.Errorf("%w: want fixed64, got wire type %d", ErrMalformed, typ)
	}
	v, n := protowire.ConsumeFixed64(b)
	if n < 0 {
		return 0, malformed(n)
	}
	*dst = math.Float64frombits(v)
	return n, nil
}

func consumeZone(typ protowire.Type, b []byte, dst *domain.Zone) (int, error) {
	if typ != protowire.VarintType {
		return 0, fmt.Errorf("%w: want varint, got wire type %d", ErrMalformed, typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, malformed(n)
	}
	if v > domain.ZoneCount {
		return 0, fmt.Errorf("%w: zone %d", ErrMalformed, v)
	}
	*dst = domain.Zone(v)
	return n, nil
}

func consumeMessage(typ protowire.Type, b []byte, fn func([]byte) error) (int, error) {
	if typ != protowire.BytesType {
		return 0, fmt.Errorf("%w: want bytes, got wire type %d", ErrMalformed, typ)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, malformed(n)
	}
	return n, fn(v)
}

func skip(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, b)
	if n < 0 {
		return 0, malformed(n)
	}
	return n, nil
}

func malformed(n int) error {
	return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
}
