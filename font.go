package font

import (
	"encoding/binary"
	"fmt"

	xsfnt "golang.org/x/image/font/sfnt"
)

// ErrInvalidFontData is returned by the parse functions when the font data is
// malformed beyond use.
var ErrInvalidFontData = fmt.Errorf("invalid font data")

// ErrExceedsMemory is returned when a font exceeds the memory limit.
var ErrExceedsMemory = fmt.Errorf("font exceeds memory limit")

// Pather is the path constructing interface that receives glyph outlines in
// font design units.
type Pather interface {
	MoveTo(float64, float64)
	LineTo(float64, float64)
	QuadTo(float64, float64, float64, float64)
	CubeTo(float64, float64, float64, float64, float64, float64)
	Close()
}

type pathOp uint8

const (
	pathMoveTo pathOp = iota
	pathLineTo
	pathQuadTo
	pathCubeTo
	pathClose
)

type pathSegment struct {
	op   pathOp
	args [6]float64
}

// Path is an in-memory glyph outline, the default Pather implementation.
type Path struct {
	segs []pathSegment
}

func (p *Path) MoveTo(x, y float64) {
	p.segs = append(p.segs, pathSegment{pathMoveTo, [6]float64{x, y}})
}

func (p *Path) LineTo(x, y float64) {
	p.segs = append(p.segs, pathSegment{pathLineTo, [6]float64{x, y}})
}

func (p *Path) QuadTo(cpx, cpy, x, y float64) {
	p.segs = append(p.segs, pathSegment{pathQuadTo, [6]float64{cpx, cpy, x, y}})
}

func (p *Path) CubeTo(cpx1, cpy1, cpx2, cpy2, x, y float64) {
	p.segs = append(p.segs, pathSegment{pathCubeTo, [6]float64{cpx1, cpy1, cpx2, cpy2, x, y}})
}

func (p *Path) Close() {
	p.segs = append(p.segs, pathSegment{op: pathClose})
}

// Replay sends the recorded segments to another Pather.
func (p *Path) Replay(dst Pather) {
	for _, seg := range p.segs {
		a := seg.args
		switch seg.op {
		case pathMoveTo:
			dst.MoveTo(a[0], a[1])
		case pathLineTo:
			dst.LineTo(a[0], a[1])
		case pathQuadTo:
			dst.QuadTo(a[0], a[1], a[2], a[3])
		case pathCubeTo:
			dst.CubeTo(a[0], a[1], a[2], a[3], a[4], a[5])
		case pathClose:
			dst.Close()
		}
	}
}

// Empty returns true when the path holds no segments.
func (p *Path) Empty() bool {
	return len(p.segs) == 0
}

// Len returns the number of path segments.
func (p *Path) Len() int {
	return len(p.segs)
}

// FontProgram is the queryable font object produced by the parsers. Outlines
// are in font design units; the caller applies the font matrix or unitsPerEm
// scaling.
type FontProgram interface {
	GlyphPath(p Pather, glyphID uint16) error
	AdvanceWidth(glyphID uint16) float64
	HasGlyph(name string) bool
	FontMatrix() [6]float64
	NameToGID(name string) uint16
}

// ParseFont parses a font file in SFNT, WOFF, WOFF2, or EOT format, and for
// font collections selects the font at the given index.
func ParseFont(b []byte, index int) (*SFNT, error) {
	if len(b) < 4 {
		return nil, ErrInvalidFontData
	} else if uint32(MaxMemory) < uint32(len(b)) {
		return nil, ErrExceedsMemory
	}

	tag := string(b[:4])
	if tag == "wOFF" {
		var err error
		if b, err = ParseWOFF(b); err != nil {
			return nil, err
		}
	} else if tag == "wOF2" {
		var err error
		if b, err = ParseWOFF2(b); err != nil {
			return nil, err
		}
	} else if 36 <= len(b) && binary.LittleEndian.Uint16(b[34:]) == 0x504C {
		var err error
		if b, err = ParseEOT(b); err != nil {
			return nil, err
		}
	}
	return ParseSFNT(b, index)
}

// ParseTrueType parses a TrueType font. Setting isEmbedded relaxes the
// mandatory table checks to those that embedded (PDF) fonts must carry.
func ParseTrueType(b []byte, isEmbedded bool) (*SFNT, error) {
	return parseSFNT(b, 0, isEmbedded)
}

// ParseOpenType parses an OpenType font, with either TrueType (glyf) or CFF
// outlines.
func ParseOpenType(b []byte) (*SFNT, error) {
	return ParseSFNT(b, 0)
}

// ParseFontSFNT parses a font file and returns its mimetype together with an
// x/image/font/sfnt handle for callers on that API.
func ParseFontSFNT(b []byte) (string, *xsfnt.Font, error) {
	if len(b) < 4 {
		return "", nil, ErrInvalidFontData
	}

	mimetype := ""
	tag := string(b[:4])
	if tag == "wOFF" {
		mimetype = "font/woff"
		var err error
		if b, err = ParseWOFF(b); err != nil {
			return "", nil, err
		}
	} else if tag == "wOF2" {
		mimetype = "font/woff2"
		var err error
		if b, err = ParseWOFF2(b); err != nil {
			return "", nil, err
		}
	} else if tag == "true" || binary.BigEndian.Uint32(b[:4]) == 0x00010000 {
		mimetype = "font/truetype"
	} else if tag == "OTTO" {
		mimetype = "font/opentype"
	} else if tag == "ttcf" {
		mimetype = "font/collection"
	} else {
		return "", nil, fmt.Errorf("unrecognized font file format")
	}

	font, err := xsfnt.Parse(b)
	if err != nil {
		return "", nil, err
	}
	return mimetype, font, nil
}
