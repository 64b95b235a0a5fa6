package font

import (
	"fmt"
	"strings"
	"sync"
)

// maxCompositeDepth bounds composite glyph nesting beyond cycle detection.
const maxCompositeDepth = 8

////////////////////////////////////////////////////////////////

type glyfContour struct {
	GlyphID                uint16
	XMin, YMin, XMax, YMax int16
	EndPoints              []uint16
	Instructions           []byte
	OnCurve                []bool
	XCoordinates           []int16
	YCoordinates           []int16
}

func (contour *glyfContour) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Glyph %v:\n", contour.GlyphID)
	fmt.Fprintf(&b, "  Contours: %v\n", len(contour.EndPoints))
	fmt.Fprintf(&b, "  XMin: %v\n", contour.XMin)
	fmt.Fprintf(&b, "  YMin: %v\n", contour.YMin)
	fmt.Fprintf(&b, "  XMax: %v\n", contour.XMax)
	fmt.Fprintf(&b, "  YMax: %v\n", contour.YMax)
	fmt.Fprintf(&b, "  EndPoints: %v\n", contour.EndPoints)
	fmt.Fprintf(&b, "  Instruction length: %v\n", len(contour.Instructions))
	fmt.Fprintf(&b, "  Coordinates:\n")
	for i := 0; i <= int(contour.EndPoints[len(contour.EndPoints)-1]); i++ {
		fmt.Fprintf(&b, "    ")
		if i < len(contour.XCoordinates) {
			fmt.Fprintf(&b, "%8v", contour.XCoordinates[i])
		} else {
			fmt.Fprintf(&b, "  ----  ")
		}
		if i < len(contour.YCoordinates) {
			fmt.Fprintf(&b, " %8v", contour.YCoordinates[i])
		} else {
			fmt.Fprintf(&b, "   ----  ")
		}
		if i < len(contour.OnCurve) {
			onCurve := "Off"
			if contour.OnCurve[i] {
				onCurve = "On"
			}
			fmt.Fprintf(&b, " %3v\n", onCurve)
		} else {
			fmt.Fprintf(&b, " ---\n")
		}
	}
	return b.String()
}

type glyfTable struct {
	data []byte
	loca *locaTable

	mu    sync.Mutex
	cache map[uint16]*glyfContour
}

func errBadGlyf(glyphID uint16) error {
	return fmt.Errorf("glyf: bad table for glyphID %v", glyphID)
}

// Get returns the raw byte range of the glyph, or nil for a bad glyph ID. A
// zero-length range is a valid empty glyph.
func (glyf *glyfTable) Get(glyphID uint16) []byte {
	start, ok := glyf.loca.Get(glyphID)
	end, ok2 := glyf.loca.Get(glyphID + 1)
	if !ok || !ok2 || end < start || uint32(len(glyf.data)) < end {
		return nil
	}
	return glyf.data[start:end:end]
}

// IsComposite returns true when the glyph is built from component glyphs.
func (glyf *glyfTable) IsComposite(glyphID uint16) bool {
	b := glyf.Get(glyphID)
	if len(b) < 2 {
		return false
	}
	return int16(uint16(b[0])<<8|uint16(b[1])) < 0
}

// Dependencies returns the glyph and all glyphs it references, transitively.
func (glyf *glyfTable) Dependencies(glyphID uint16) ([]uint16, error) {
	return glyf.dependencies(glyphID, map[uint16]bool{})
}

func (glyf *glyfTable) dependencies(glyphID uint16, resolving map[uint16]bool) ([]uint16, error) {
	if resolving[glyphID] {
		return nil, fmt.Errorf("glyf: circular composite reference for glyphID %v", glyphID)
	} else if maxCompositeDepth < len(resolving) {
		return nil, fmt.Errorf("glyf: composite glyphs too deeply nested")
	}

	deps := []uint16{glyphID}
	b := glyf.Get(glyphID)
	if b == nil {
		return nil, fmt.Errorf("glyf: bad glyphID %v", glyphID)
	} else if len(b) == 0 {
		return deps, nil
	}
	r := newBinaryReader(b)
	if r.Len() < 10 {
		return nil, errBadGlyf(glyphID)
	}
	nContours := r.ReadInt16()
	_ = r.ReadBytes(8) // bounding box
	if nContours < 0 {
		resolving[glyphID] = true
		defer delete(resolving, glyphID)

		for {
			if r.Len() < 4 {
				return nil, errBadGlyf(glyphID)
			}

			flags := r.ReadUint16()
			componentID := r.ReadUint16()
			componentDeps, err := glyf.dependencies(componentID, resolving)
			if err != nil {
				return nil, err
			}
			deps = append(deps, componentDeps...)

			length, more := glyfCompositeLength(flags)
			if r.Len() < length-4 {
				return nil, errBadGlyf(glyphID)
			}
			_ = r.ReadBytes(length - 4)
			if !more {
				break
			}
		}
	}
	return deps, nil
}

// glyfCompositeLength returns the byte length of a composite component record
// with the given flags, and whether more components follow.
func glyfCompositeLength(flags uint16) (length uint32, more bool) {
	length = 4 + 2
	if flags&0x0001 != 0 { // ARG_1_AND_2_ARE_WORDS
		length += 2
	}
	if flags&0x0008 != 0 { // WE_HAVE_A_SCALE
		length += 2
	} else if flags&0x0040 != 0 { // WE_HAVE_AN_X_AND_Y_SCALE
		length += 4
	} else if flags&0x0080 != 0 { // WE_HAVE_A_TWO_BY_TWO
		length += 8
	}
	more = flags&0x0020 != 0 // MORE_COMPONENTS
	return
}

// decodeGlyfCoords reads one delta-encoded coordinate array of a simple
// glyph. shortBit selects the single-byte form; sameBit is the sign for the
// short form and "repeat previous" for the two-byte form.
func decodeGlyfCoords(r *binaryReader, flags []byte, shortBit, sameBit byte, glyphID uint16) ([]int16, error) {
	var v int16
	coords := make([]int16, len(flags))
	for i, flag := range flags {
		if flag&shortBit != 0 {
			if r.Len() < 1 {
				return nil, fmt.Errorf("glyf: bad table or flags for glyphID %v", glyphID)
			}
			if flag&sameBit != 0 {
				v += int16(r.ReadUint8())
			} else {
				v -= int16(r.ReadUint8())
			}
		} else if flag&sameBit == 0 {
			if r.Len() < 2 {
				return nil, fmt.Errorf("glyf: bad table or flags for glyphID %v", glyphID)
			}
			v += r.ReadInt16()
		}
		coords[i] = v
	}
	return coords, nil
}

// Contour returns the glyph's resolved point data, with composite components
// flattened. Results are cached per glyph.
func (glyf *glyfTable) Contour(glyphID uint16) (*glyfContour, error) {
	glyf.mu.Lock()
	contour, ok := glyf.cache[glyphID]
	glyf.mu.Unlock()
	if ok {
		return contour, nil
	}

	contour, err := glyf.contour(glyphID, map[uint16]bool{})
	if err != nil {
		return nil, err
	}

	glyf.mu.Lock()
	if glyf.cache == nil {
		glyf.cache = map[uint16]*glyfContour{}
	}
	glyf.cache[glyphID] = contour
	glyf.mu.Unlock()
	return contour, nil
}

func (glyf *glyfTable) contour(glyphID uint16, resolving map[uint16]bool) (*glyfContour, error) {
	if resolving[glyphID] {
		return nil, fmt.Errorf("glyf: circular composite reference for glyphID %v", glyphID)
	} else if maxCompositeDepth < len(resolving) {
		return nil, fmt.Errorf("glyf: composite glyphs too deeply nested")
	}

	b := glyf.Get(glyphID)
	if b == nil {
		return nil, fmt.Errorf("glyf: bad glyphID %v", glyphID)
	} else if len(b) == 0 {
		return &glyfContour{GlyphID: glyphID}, nil
	}
	r := newBinaryReader(b)
	if r.Len() < 10 {
		return nil, errBadGlyf(glyphID)
	}

	contour := &glyfContour{GlyphID: glyphID}
	nContours := r.ReadInt16()
	contour.XMin = r.ReadInt16()
	contour.YMin = r.ReadInt16()
	contour.XMax = r.ReadInt16()
	contour.YMax = r.ReadInt16()
	if 0 <= nContours {
		return glyf.simpleContour(r, contour, nContours)
	}
	return glyf.compositeContour(r, contour, resolving)
}

func (glyf *glyfTable) simpleContour(r *binaryReader, contour *glyfContour, nContours int16) (*glyfContour, error) {
	glyphID := contour.GlyphID
	if r.Len() < 2*uint32(nContours)+2 {
		return nil, errBadGlyf(glyphID)
	}
	contour.EndPoints = make([]uint16, nContours)
	for i := range contour.EndPoints {
		contour.EndPoints[i] = r.ReadUint16()
	}

	instructionLength := r.ReadUint16()
	if r.Len() < uint32(instructionLength) {
		return nil, errBadGlyf(glyphID)
	}
	contour.Instructions = r.ReadBytes(uint32(instructionLength))

	if nContours == 0 {
		return contour, nil
	}
	numPoints := int(contour.EndPoints[nContours-1]) + 1
	flags := make([]byte, numPoints)
	contour.OnCurve = make([]bool, numPoints)
	for i := 0; i < numPoints; i++ {
		if r.Len() < 1 {
			return nil, errBadGlyf(glyphID)
		}

		flags[i] = r.ReadByte()
		contour.OnCurve[i] = flags[i]&0x01 != 0
		if flags[i]&0x08 != 0 { // REPEAT_FLAG
			repeat := int(r.ReadByte())
			if numPoints <= i+repeat {
				return nil, errBadGlyf(glyphID)
			}
			for j := 1; j <= repeat; j++ {
				flags[i+j] = flags[i]
				contour.OnCurve[i+j] = contour.OnCurve[i]
			}
			i += repeat
		}
	}

	var err error
	if contour.XCoordinates, err = decodeGlyfCoords(r, flags, 0x02, 0x10, glyphID); err != nil {
		return nil, err
	}
	if contour.YCoordinates, err = decodeGlyfCoords(r, flags, 0x04, 0x20, glyphID); err != nil {
		return nil, err
	}
	return contour, nil
}

func (glyf *glyfTable) compositeContour(r *binaryReader, contour *glyfContour, resolving map[uint16]bool) (*glyfContour, error) {
	glyphID := contour.GlyphID
	resolving[glyphID] = true
	defer delete(resolving, glyphID)

	hasInstructions := false
	for {
		if r.Len() < 4 {
			return nil, errBadGlyf(glyphID)
		}

		flags := r.ReadUint16()
		componentID := r.ReadUint16()
		var dx, dy int16
		if flags&0x0001 != 0 { // ARG_1_AND_2_ARE_WORDS
			if r.Len() < 4 {
				return nil, errBadGlyf(glyphID)
			}
			dx = r.ReadInt16()
			dy = r.ReadInt16()
		} else {
			if r.Len() < 2 {
				return nil, errBadGlyf(glyphID)
			}
			dx = int16(r.ReadInt8())
			dy = int16(r.ReadInt8())
		}

		// the transform is stored as 2.14 fixed point
		var txx, txy, tyx, tyy int16
		if flags&0x0008 != 0 { // WE_HAVE_A_SCALE
			if r.Len() < 2 {
				return nil, errBadGlyf(glyphID)
			}
			txx = r.ReadInt16()
			tyy = txx
		} else if flags&0x0040 != 0 { // WE_HAVE_AN_X_AND_Y_SCALE
			if r.Len() < 4 {
				return nil, errBadGlyf(glyphID)
			}
			txx = r.ReadInt16()
			tyy = r.ReadInt16()
		} else if flags&0x0080 != 0 { // WE_HAVE_A_TWO_BY_TWO
			if r.Len() < 8 {
				return nil, errBadGlyf(glyphID)
			}
			txx = r.ReadInt16()
			txy = r.ReadInt16()
			tyx = r.ReadInt16()
			tyy = r.ReadInt16()
		}
		if flags&0x0100 != 0 { // WE_HAVE_INSTRUCTIONS
			hasInstructions = true
		}
		if flags&0x0002 == 0 { // ARGS_ARE_XY_VALUES
			// point-matching components are rare; skip the component
			if flags&0x0020 == 0 {
				break
			}
			continue
		}

		component, err := glyf.contour(componentID, resolving)
		if err != nil {
			return nil, err
		}

		var base uint16
		if 0 < len(contour.EndPoints) {
			base = contour.EndPoints[len(contour.EndPoints)-1] + 1
		}
		for _, endPoint := range component.EndPoints {
			contour.EndPoints = append(contour.EndPoints, base+endPoint)
		}
		contour.OnCurve = append(contour.OnCurve, component.OnCurve...)
		for i := range component.XCoordinates {
			x := component.XCoordinates[i]
			y := component.YCoordinates[i]
			if flags&0x00C8 != 0 {
				// scale first, then translate
				const half = 1 << 13
				xt := int16((int64(x)*int64(txx)+half)>>14) + int16((int64(y)*int64(tyx)+half)>>14)
				yt := int16((int64(x)*int64(txy)+half)>>14) + int16((int64(y)*int64(tyy)+half)>>14)
				x, y = xt, yt
			}
			contour.XCoordinates = append(contour.XCoordinates, dx+x)
			contour.YCoordinates = append(contour.YCoordinates, dy+y)
		}
		if flags&0x0020 == 0 { // MORE_COMPONENTS
			break
		}
	}
	if hasInstructions {
		instructionLength := r.ReadUint16()
		if r.Len() < uint32(instructionLength) {
			return nil, errBadGlyf(glyphID)
		}
		contour.Instructions = r.ReadBytes(uint32(instructionLength))
	}
	return contour, nil
}

// ToPath appends the glyph's outline to p in design units. Consecutive
// off-curve points imply an on-curve midpoint.
func (glyf *glyfTable) ToPath(p Pather, glyphID uint16) error {
	contour, err := glyf.Contour(glyphID)
	if err != nil {
		return err
	}

	x := func(i uint16) float64 { return float64(contour.XCoordinates[i]) }
	y := func(i uint16) float64 { return float64(contour.YCoordinates[i]) }
	xMid := func(i, j uint16) float64 { return float64(contour.XCoordinates[i]+contour.XCoordinates[j]) / 2.0 }
	yMid := func(i, j uint16) float64 { return float64(contour.YCoordinates[i]+contour.YCoordinates[j]) / 2.0 }

	var i uint16
	for _, endPoint := range contour.EndPoints {
		j := i
		first := true
		firstOff := false
		prevOff := false
		startX, startY := 0.0, 0.0
		for ; i <= endPoint; i++ {
			if first {
				if contour.OnCurve[i] {
					startX, startY = x(i), y(i)
					p.MoveTo(startX, startY)
					first = false
				} else if !prevOff {
					// the contour starts with an off-curve point
					firstOff = true
					prevOff = true
				} else {
					// two leading off-curve points; start at their midpoint
					startX, startY = xMid(i-1, i), yMid(i-1, i)
					p.MoveTo(startX, startY)
					first = false
					prevOff = true
				}
			} else if !prevOff {
				if contour.OnCurve[i] {
					p.LineTo(x(i), y(i))
				} else {
					prevOff = true
				}
			} else {
				if contour.OnCurve[i] {
					p.QuadTo(x(i-1), y(i-1), x(i), y(i))
					prevOff = false
				} else {
					p.QuadTo(x(i-1), y(i-1), xMid(i-1, i), yMid(i-1, i))
				}
			}
		}
		if i == j {
			continue
		}
		if firstOff {
			if prevOff {
				p.QuadTo(x(i-1), y(i-1), xMid(i-1, j), yMid(i-1, j))
			}
			p.QuadTo(x(j), y(j), startX, startY)
		} else if prevOff {
			p.QuadTo(x(i-1), y(i-1), startX, startY)
		}
		p.Close()
	}
	return nil
}

func (sfnt *SFNT) parseGlyf() error {
	// requires data from loca
	b, ok := sfnt.Tables["glyf"]
	if !ok {
		return fmt.Errorf("glyf: missing table")
	}
	if end, ok := sfnt.Loca.Get(sfnt.Maxp.NumGlyphs); !ok || uint32(len(b)) < end {
		return fmt.Errorf("glyf: bad table")
	}

	sfnt.Glyf = &glyfTable{
		data: b,
		loca: sfnt.Loca,
	}
	return nil
}

////////////////////////////////////////////////////////////////

type locaTable struct {
	Format  int16
	Offsets []uint32
}

// Get returns the byte offset into glyf of the glyph. Short format offsets
// are stored divided by two.
func (loca *locaTable) Get(glyphID uint16) (uint32, bool) {
	if len(loca.Offsets) <= int(glyphID) {
		return 0, false
	}
	return loca.Offsets[glyphID], true
}

func (sfnt *SFNT) parseLoca() error {
	b, ok := sfnt.Tables["loca"]
	if !ok {
		return fmt.Errorf("loca: missing table")
	}

	n := uint32(sfnt.Maxp.NumGlyphs) + 1
	loca := &locaTable{
		Format:  sfnt.Head.IndexToLocFormat,
		Offsets: make([]uint32, n),
	}
	entrySize := uint32(4)
	if loca.Format == 0 {
		entrySize = 2
	}
	if uint32(len(b)) < entrySize*n {
		return fmt.Errorf("loca: bad table")
	}
	r := newBinaryReader(b)
	for i := uint32(0); i < n; i++ {
		if loca.Format == 0 {
			loca.Offsets[i] = 2 * uint32(r.ReadUint16())
		} else {
			loca.Offsets[i] = r.ReadUint32()
		}
		if 0 < i && loca.Offsets[i] < loca.Offsets[i-1] {
			return fmt.Errorf("loca: bad offsets")
		}
	}
	sfnt.Loca = loca
	return nil
}
