package font

import (
	"sort"
	"testing"

	"github.com/tdewolff/test"
)

// buildSFNT assembles a TrueType font file from raw tables. Checksums are
// left zero as parsing ignores them.
func buildSFNT(tables map[string][]byte) []byte {
	tags := make([]string, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	w := newBinaryWriter([]byte{})
	w.WriteUint32(0x00010000)
	w.WriteUint16(uint16(len(tags)))
	w.WriteUint16(0) // searchRange
	w.WriteUint16(0) // entrySelector
	w.WriteUint16(0) // rangeShift

	offset := 12 + 16*uint32(len(tags))
	for _, tag := range tags {
		w.WriteString(tag)
		w.WriteUint32(0) // checksum
		w.WriteUint32(offset)
		w.WriteUint32(uint32(len(tables[tag])))
		offset += (uint32(len(tables[tag])) + 3) & 0xFFFFFFFC
	}
	for _, tag := range tags {
		w.WriteBytes(tables[tag])
		for w.Len()%4 != 0 {
			w.WriteByte(0)
		}
	}
	return w.Bytes()
}

func buildTestHead(indexToLocFormat int16) []byte {
	w := newBinaryWriter(make([]byte, 0, 54))
	w.WriteUint16(1) // majorVersion
	w.WriteUint16(0) // minorVersion
	w.WriteUint32(0x00010000)
	w.WriteUint32(0)          // checksumAdjustment
	w.WriteUint32(0x5F0F3CF5) // magicNumber
	w.WriteUint16(0)          // flags
	w.WriteUint16(1000)       // unitsPerEm
	w.WriteUint64(0)          // created
	w.WriteUint64(0)          // modified
	w.WriteInt16(0)           // xMin
	w.WriteInt16(0)           // yMin
	w.WriteInt16(300)         // xMax
	w.WriteInt16(250)         // yMax
	w.WriteUint16(0)          // macStyle
	w.WriteUint16(8)          // lowestRecPPEM
	w.WriteInt16(2)           // fontDirectionHint
	w.WriteInt16(indexToLocFormat)
	w.WriteInt16(0) // glyphDataFormat
	return w.Bytes()
}

func buildTestHhea(numberOfHMetrics uint16) []byte {
	w := newBinaryWriter(make([]byte, 0, 36))
	w.WriteUint16(1) // majorVersion
	w.WriteUint16(0) // minorVersion
	w.WriteInt16(800)
	w.WriteInt16(-200)
	w.WriteInt16(0)    // lineGap
	w.WriteUint16(600) // advanceWidthMax
	w.WriteInt16(0)    // minLeftSideBearing
	w.WriteInt16(0)    // minRightSideBearing
	w.WriteInt16(300)  // xMaxExtent
	w.WriteInt16(1)    // caretSlopeRise
	w.WriteInt16(0)    // caretSlopeRun
	w.WriteInt16(0)    // caretOffset
	w.WriteInt16(0)
	w.WriteInt16(0)
	w.WriteInt16(0)
	w.WriteInt16(0)
	w.WriteInt16(0) // metricDataFormat
	w.WriteUint16(numberOfHMetrics)
	return w.Bytes()
}

func buildTestMaxp(numGlyphs uint16) []byte {
	w := newBinaryWriter(make([]byte, 0, 32))
	w.WriteUint32(0x00010000)
	w.WriteUint16(numGlyphs)
	for i := 0; i < 13; i++ {
		w.WriteUint16(0)
	}
	return w.Bytes()
}

// buildTestCmap4 writes a format 4 subtable mapping the consecutive codes
// 'A'..'C' to glyphs 1..3.
func buildTestCmap4() []byte {
	w := newBinaryWriter([]byte{})
	w.WriteUint16(0) // version
	w.WriteUint16(1) // numTables
	w.WriteUint16(3) // platformID, Windows
	w.WriteUint16(1) // encodingID, Unicode BMP
	w.WriteUint32(12)

	w.WriteUint16(4)  // format
	w.WriteUint16(32) // length
	w.WriteUint16(0)  // language
	w.WriteUint16(4)  // segCountX2
	w.WriteUint16(0)  // searchRange
	w.WriteUint16(0)  // entrySelector
	w.WriteUint16(0)  // rangeShift
	w.WriteUint16(0x0043)
	w.WriteUint16(0xFFFF)
	w.WriteUint16(0) // reservedPad
	w.WriteUint16(0x0041)
	w.WriteUint16(0xFFFF)
	w.WriteInt16(-64) // 0x41 maps to glyph 1
	w.WriteInt16(1)
	w.WriteUint16(0) // idRangeOffsets
	w.WriteUint16(0)
	return w.Bytes()
}

func buildSimpleGlyph(w *binaryWriter, xs, ys []int16, onCurve []bool) {
	var xmin, ymin, xmax, ymax int16
	for i := range xs {
		if i == 0 || xs[i] < xmin {
			xmin = xs[i]
		}
		if i == 0 || xmax < xs[i] {
			xmax = xs[i]
		}
		if i == 0 || ys[i] < ymin {
			ymin = ys[i]
		}
		if i == 0 || ymax < ys[i] {
			ymax = ys[i]
		}
	}
	w.WriteInt16(1) // numberOfContours
	w.WriteInt16(xmin)
	w.WriteInt16(ymin)
	w.WriteInt16(xmax)
	w.WriteInt16(ymax)
	w.WriteUint16(uint16(len(xs) - 1)) // endPtsOfContours
	w.WriteUint16(0)                   // instructionLength
	for i := range xs {
		flags := uint8(0)
		if onCurve == nil || onCurve[i] {
			flags = 0x01
		}
		w.WriteUint8(flags)
	}
	prev := int16(0)
	for _, x := range xs {
		w.WriteInt16(x - prev)
		prev = x
	}
	prev = 0
	for _, y := range ys {
		w.WriteInt16(y - prev)
		prev = y
	}
}

// buildTestOS2 writes a version 0 OS/2 table (78 bytes) with the given
// character range.
func buildTestOS2(first, last uint16) []byte {
	w := newBinaryWriter(make([]byte, 0, 78))
	w.WriteUint16(0)   // version
	w.WriteInt16(500)  // xAvgCharWidth
	w.WriteUint16(400) // usWeightClass
	w.WriteUint16(5)   // usWidthClass
	w.WriteUint16(0)   // fsType
	for i := 0; i < 10; i++ {
		w.WriteInt16(0) // subscript, superscript, and strikeout metrics
	}
	w.WriteInt16(0)                // sFamilyClass
	w.WriteBytes(make([]byte, 10)) // panose
	for i := 0; i < 4; i++ {
		w.WriteUint32(0) // ulUnicodeRange
	}
	w.WriteString("TEST") // achVendID
	w.WriteUint16(0x0040) // fsSelection, regular
	w.WriteUint16(first)
	w.WriteUint16(last)
	w.WriteInt16(800)  // sTypoAscender
	w.WriteInt16(-200) // sTypoDescender
	w.WriteInt16(0)    // sTypoLineGap
	w.WriteUint16(800) // usWinAscent
	w.WriteUint16(200) // usWinDescent
	return w.Bytes()
}

func buildTestKern() []byte {
	w := newBinaryWriter([]byte{})
	w.WriteUint16(0) // version
	w.WriteUint16(1) // nTables
	w.WriteUint16(0) // subtable version
	w.WriteUint16(20)
	w.WriteUint8(0)    // format
	w.WriteUint8(0x01) // coverage, horizontal
	w.WriteUint16(1)   // nPairs
	w.WriteUint16(0)   // searchRange
	w.WriteUint16(0)   // entrySelector
	w.WriteUint16(0)   // rangeShift
	w.WriteUint32(1<<16 | 2)
	w.WriteInt16(-15)
	return w.Bytes()
}

// buildTestTTFTables assembles the tables of a four-glyph font: .notdef, the
// square 'A', the triangle 'B', and the composite 'C' referencing 'A' shifted
// by 10 units.
func buildTestTTFTables() map[string][]byte {
	glyf := newBinaryWriter([]byte{})
	// glyph 0, .notdef: empty
	// glyph 1, A: 200x200 square
	buildSimpleGlyph(glyf, []int16{0, 200, 200, 0}, []int16{0, 0, 200, 200}, nil)
	// glyph 2, B: triangle, odd length needs one byte of padding
	buildSimpleGlyph(glyf, []int16{0, 300, 150}, []int16{0, 0, 250}, nil)
	glyf.WriteByte(0)
	// glyph 3, C: composite of glyph 1 at dx=10
	glyf.WriteInt16(-1)
	glyf.WriteInt16(10)
	glyf.WriteInt16(0)
	glyf.WriteInt16(210)
	glyf.WriteInt16(200)
	glyf.WriteUint16(0x0003) // ARG_1_AND_2_ARE_WORDS | ARGS_ARE_XY_VALUES
	glyf.WriteUint16(1)
	glyf.WriteInt16(10)
	glyf.WriteInt16(0)

	loca := newBinaryWriter([]byte{})
	for _, offset := range []uint16{0, 0, 17, 32, 41} { // short format, halved
		loca.WriteUint16(offset)
	}

	hmtx := newBinaryWriter([]byte{})
	for _, m := range [][2]int16{{500, 0}, {600, 50}, {550, 25}, {600, 50}} {
		hmtx.WriteUint16(uint16(m[0]))
		hmtx.WriteInt16(m[1])
	}

	post := newBinaryWriter([]byte{})
	post.WriteUint32(0x00020000)
	post.WriteInt32(0)  // italicAngle
	post.WriteInt16(0)  // underlinePosition
	post.WriteInt16(0)  // underlineThickness
	post.WriteUint32(0) // isFixedPitch
	post.WriteUint32(0)
	post.WriteUint32(0)
	post.WriteUint32(0)
	post.WriteUint32(0)
	post.WriteUint16(4) // numGlyphs
	for _, index := range []uint16{0, 258, 259, 260} {
		post.WriteUint16(index)
	}
	for _, name := range []string{"A", "B", "C"} {
		post.WriteUint8(uint8(len(name)))
		post.WriteString(name)
	}

	return map[string][]byte{
		"cmap": buildTestCmap4(),
		"glyf": glyf.Bytes(),
		"head": buildTestHead(0),
		"hhea": buildTestHhea(4),
		"hmtx": hmtx.Bytes(),
		"kern": buildTestKern(),
		"loca": loca.Bytes(),
		"maxp": buildTestMaxp(4),
		"name": []byte{0, 0, 0, 0, 0, 6},
		"post": post.Bytes(),
	}
}

func buildTestTTF() []byte {
	return buildSFNT(buildTestTTFTables())
}

func TestSFNTParse(t *testing.T) {
	sfnt, err := ParseSFNT(buildTestTTF(), 0)
	test.Error(t, err)
	test.That(t, sfnt.IsTrueType)
	test.That(t, !sfnt.IsCFF)
	test.T(t, sfnt.Head.UnitsPerEm, uint16(1000))
	test.T(t, sfnt.NumGlyphs(), uint16(4))
	test.T(t, sfnt.Hhea.Ascender, int16(800))
	test.T(t, sfnt.Hhea.Descender, int16(-200))

	test.T(t, sfnt.GlyphIndex('A'), uint16(1))
	test.T(t, sfnt.GlyphIndex('C'), uint16(3))
	test.T(t, sfnt.GlyphIndex('Z'), uint16(0))

	test.Float(t, sfnt.AdvanceWidth(1), 600.0)
	test.Float(t, sfnt.AdvanceWidth(2), 550.0)
	// out of range reuses the last metric
	test.Float(t, sfnt.AdvanceWidth(100), 600.0)
	test.T(t, sfnt.Hmtx.LeftSideBearing(1), int16(50))

	test.T(t, sfnt.GlyphName(0), ".notdef")
	test.T(t, sfnt.GlyphName(2), "B")
	test.T(t, sfnt.NameToGID("B"), uint16(2))
	test.That(t, sfnt.HasGlyph("C"))
	test.That(t, !sfnt.HasGlyph("D"))

	matrix := sfnt.FontMatrix()
	test.Float(t, matrix[0], 0.001)
	test.Float(t, matrix[3], 0.001)

	test.T(t, sfnt.Kerning(1, 2), int16(-15))
	test.T(t, sfnt.Kerning(2, 1), int16(0))
}

func TestSFNTGlyphPath(t *testing.T) {
	sfnt, err := ParseSFNT(buildTestTTF(), 0)
	test.Error(t, err)

	p := &Path{}
	test.Error(t, sfnt.GlyphPath(p, 1))
	test.T(t, p.Len(), 5)
	test.T(t, p.segs[0].op, pathMoveTo)
	testPathArgs(t, p.segs[0].args, 0, 0)
	test.T(t, p.segs[1].op, pathLineTo)
	testPathArgs(t, p.segs[1].args, 200, 0)
	test.T(t, p.segs[2].op, pathLineTo)
	testPathArgs(t, p.segs[2].args, 200, 200)
	test.T(t, p.segs[3].op, pathLineTo)
	testPathArgs(t, p.segs[3].args, 0, 200)
	test.T(t, p.segs[4].op, pathClose)

	xmin, ymin, xmax, ymax, err := sfnt.GlyphBounds(1)
	test.Error(t, err)
	test.T(t, xmin, int16(0))
	test.T(t, ymin, int16(0))
	test.T(t, xmax, int16(200))
	test.T(t, ymax, int16(200))
}

func TestSFNTComposite(t *testing.T) {
	sfnt, err := ParseSFNT(buildTestTTF(), 0)
	test.Error(t, err)
	test.That(t, sfnt.Glyf.IsComposite(3))
	test.That(t, !sfnt.Glyf.IsComposite(1))

	deps, err := sfnt.Glyf.Dependencies(3)
	test.Error(t, err)
	test.T(t, len(deps), 2)
	test.T(t, deps[0], uint16(3))
	test.T(t, deps[1], uint16(1))

	contour, err := sfnt.Glyf.Contour(3)
	test.Error(t, err)
	test.T(t, len(contour.XCoordinates), 4)
	test.T(t, contour.XCoordinates[0], int16(10))
	test.T(t, contour.YCoordinates[0], int16(0))
	test.T(t, contour.XCoordinates[2], int16(210))
	test.T(t, contour.YCoordinates[2], int16(200))
}

func TestSFNTEmbedded(t *testing.T) {
	// embedded (PDF) fonts may omit cmap, name, and post
	glyf := newBinaryWriter([]byte{})
	buildSimpleGlyph(glyf, []int16{0, 100}, []int16{0, 100}, nil)
	loca := newBinaryWriter([]byte{})
	for _, offset := range []uint16{0, 0, 12} {
		loca.WriteUint16(offset)
	}
	hmtx := newBinaryWriter([]byte{})
	hmtx.WriteUint16(500)
	hmtx.WriteInt16(0)
	hmtx.WriteInt16(0) // leftSideBearing of glyph 1

	tables := map[string][]byte{
		"glyf": glyf.Bytes(),
		"head": buildTestHead(0),
		"hhea": buildTestHhea(1),
		"hmtx": hmtx.Bytes(),
		"loca": loca.Bytes(),
		"maxp": buildTestMaxp(2),
	}

	_, err := ParseSFNT(buildSFNT(tables), 0)
	test.That(t, err != nil)

	sfnt, err := ParseEmbeddedSFNT(buildSFNT(tables), 0)
	test.Error(t, err)
	test.T(t, sfnt.NumGlyphs(), uint16(2))
	test.Float(t, sfnt.AdvanceWidth(1), 500.0)
}

func TestSFNTPostBadStringIndex(t *testing.T) {
	// a version 2.0 name index pointing one past the last string must be
	// rejected, not read out of range
	tables := buildTestTTFTables()
	post := newBinaryWriter([]byte{})
	post.WriteUint32(0x00020000)
	for i := 0; i < 7; i++ {
		post.WriteUint32(0)
	}
	post.WriteUint16(4) // numGlyphs
	for _, index := range []uint16{0, 258, 259, 261} {
		post.WriteUint16(index)
	}
	for _, name := range []string{"A", "B", "C"} {
		post.WriteUint8(uint8(len(name)))
		post.WriteString(name)
	}
	tables["post"] = post.Bytes()

	_, err := ParseSFNT(buildSFNT(tables), 0)
	test.That(t, err != nil)

	// the lookup itself degrades to an empty name
	bad := &postTable{GlyphNameIndex: []uint16{261}, stringData: []string{"A", "B", "C"}}
	test.T(t, bad.Get(0), "")
}

func TestSFNTEmbeddedCorruptOptional(t *testing.T) {
	// corrupt tables that an embedded font does not require degrade to absent
	// instead of failing the whole font
	glyf := newBinaryWriter([]byte{})
	buildSimpleGlyph(glyf, []int16{0, 100}, []int16{0, 100}, nil)
	loca := newBinaryWriter([]byte{})
	for _, offset := range []uint16{0, 0, 12} {
		loca.WriteUint16(offset)
	}
	hmtx := newBinaryWriter([]byte{})
	hmtx.WriteUint16(500)
	hmtx.WriteInt16(0)
	hmtx.WriteInt16(0)

	tables := map[string][]byte{
		"glyf": glyf.Bytes(),
		"head": buildTestHead(0),
		"hhea": buildTestHhea(1),
		"hmtx": hmtx.Bytes(),
		"loca": loca.Bytes(),
		"maxp": buildTestMaxp(2),
		"post": {0x00, 0x02, 0x00, 0x00}, // truncated
		"kern": {0x00, 0x00},             // truncated
	}

	sfnt, err := ParseEmbeddedSFNT(buildSFNT(tables), 0)
	test.Error(t, err)
	test.That(t, sfnt.Post == nil)
	test.That(t, sfnt.Kern == nil)
	test.T(t, sfnt.GlyphName(1), "")
	test.T(t, sfnt.Kerning(0, 1), int16(0))
	test.Float(t, sfnt.AdvanceWidth(1), 500.0)
}

func TestSFNTParseWrappers(t *testing.T) {
	b := buildTestTTF()

	sfnt, err := ParseTrueType(b, false)
	test.Error(t, err)
	test.T(t, sfnt.NumGlyphs(), uint16(4))

	sfnt, err = ParseOpenType(b)
	test.Error(t, err)
	test.T(t, sfnt.NumGlyphs(), uint16(4))

	mimetype, _, err := ParseFontSFNT(b)
	test.Error(t, err)
	test.T(t, mimetype, "font/truetype")
}

func TestSFNTBadData(t *testing.T) {
	var tests = []struct {
		name   string
		mangle func(b []byte)
	}{
		{"signature", func(b []byte) { copy(b, "NONE") }},
		{"table count", func(b []byte) { b[4] = 0xFF }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := buildTestTTF()
			tt.mangle(b)
			_, err := ParseSFNT(b, 0)
			test.That(t, err != nil)
		})
	}
}
