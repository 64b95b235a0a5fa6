package font

import (
	"testing"

	"github.com/tdewolff/test"
)

func testPathArgs(t *testing.T, got [6]float64, want ...float64) {
	t.Helper()
	for i, v := range want {
		test.Float(t, got[i], v)
	}
}

func TestSubrBias(t *testing.T) {
	test.T(t, calcSubrBias(0), 107)
	test.T(t, calcSubrBias(1239), 107)
	test.T(t, calcSubrBias(1240), 1131)
	test.T(t, calcSubrBias(33899), 1131)
	test.T(t, calcSubrBias(33900), 32768)
}

func TestCharstringType1Flex(t *testing.T) {
	// hint replacement flex: othersubr 1 starts collecting, each reference or
	// curve point arrives as an rmoveto followed by othersubr 2, and othersubr 0
	// flushes two curves. The first collected point is the flex reference and
	// does not appear in the outline.
	cs := newBinaryWriter([]byte{})
	writeT1Int(cs, 0)
	writeT1Int(cs, 500)
	cs.WriteUint8(13) // hsbw
	writeT1Int(cs, 100)
	writeT1Int(cs, 100)
	cs.WriteUint8(21) // rmoveto

	writeT1Int(cs, 0)
	writeT1Int(cs, 1)
	cs.WriteUint8(12)
	cs.WriteUint8(16) // callothersubr 1
	for _, d := range [][2]int{{17, 0}, {-12, 5}, {10, 10}, {10, 0}, {10, -10}, {10, -5}, {15, 0}} {
		writeT1Int(cs, d[0])
		writeT1Int(cs, d[1])
		cs.WriteUint8(21) // rmoveto
		writeT1Int(cs, 0)
		writeT1Int(cs, 2)
		cs.WriteUint8(12)
		cs.WriteUint8(16) // callothersubr 2
	}
	writeT1Int(cs, 0)
	writeT1Int(cs, 0)
	cs.WriteUint8(12)
	cs.WriteUint8(16) // callothersubr 0
	cs.WriteUint8(12)
	cs.WriteUint8(17) // pop
	cs.WriteUint8(12)
	cs.WriteUint8(17) // pop
	cs.WriteUint8(12)
	cs.WriteUint8(33) // setcurrentpoint
	cs.WriteUint8(9)  // closepath
	cs.WriteUint8(14) // endchar

	b := buildTestCFF(1, [][]byte{{14}, cs.Bytes()}, []uint16{34}, buildTestPrivate(0, 0))
	fonts, err := ParseCFF(b)
	test.Error(t, err)
	f := fonts[0]

	p := &Path{}
	test.Error(t, f.GlyphPath(p, 1))
	test.T(t, p.Len(), 4)
	test.T(t, p.segs[0].op, pathMoveTo)
	test.Float(t, p.segs[0].args[0], 100.0)
	test.Float(t, p.segs[0].args[1], 100.0)
	test.T(t, p.segs[1].op, pathCubeTo)
	testPathArgs(t, p.segs[1].args, 105, 105, 115, 115, 125, 115)
	test.T(t, p.segs[2].op, pathCubeTo)
	testPathArgs(t, p.segs[2].args, 135, 105, 145, 100, 160, 100)
	test.T(t, p.segs[3].op, pathClose)

	test.Float(t, f.AdvanceWidth(1), 500.0)
}

func TestCharstringType2Flex1(t *testing.T) {
	cs := newBinaryWriter([]byte{})
	writeT2Int(cs, 0)
	writeT2Int(cs, 0)
	cs.WriteUint8(21) // rmoveto
	for _, v := range []int{10, 0, 10, 5, 10, -5, 10, 5, 10, -5, 15} {
		writeT2Int(cs, v)
	}
	cs.WriteUint8(12)
	cs.WriteUint8(37) // flex1
	cs.WriteUint8(14) // endchar

	b := buildTestCFF(2, [][]byte{{14}, cs.Bytes()}, []uint16{34}, buildTestPrivate(0, 0))
	fonts, err := ParseCFF(b)
	test.Error(t, err)
	f := fonts[0]

	p := &Path{}
	test.Error(t, f.GlyphPath(p, 1))
	test.T(t, p.Len(), 4)
	test.T(t, p.segs[0].op, pathMoveTo)
	testPathArgs(t, p.segs[0].args, 0, 0)
	test.T(t, p.segs[1].op, pathCubeTo)
	testPathArgs(t, p.segs[1].args, 10, 0, 20, 5, 30, 0)
	test.T(t, p.segs[2].op, pathCubeTo)
	// the net movement is horizontal, so the endpoint returns to the start y
	testPathArgs(t, p.segs[2].args, 40, 5, 50, 0, 65, 0)
	test.T(t, p.segs[3].op, pathClose)
}

func TestCharstringType2Hstem(t *testing.T) {
	// hint operators only eat their operands, and an odd count on the first
	// stack-clearing operator carries the width
	cs := newBinaryWriter([]byte{})
	writeT2Int(cs, 120)
	writeT2Int(cs, 0)
	writeT2Int(cs, 20)
	cs.WriteUint8(1) // hstem
	writeT2Int(cs, 50)
	writeT2Int(cs, 50)
	cs.WriteUint8(21) // rmoveto
	writeT2Int(cs, 100)
	cs.WriteUint8(6)  // hlineto
	cs.WriteUint8(14) // endchar

	b := buildTestCFF(2, [][]byte{{14}, cs.Bytes()}, []uint16{34}, buildTestPrivate(400, 50))
	fonts, err := ParseCFF(b)
	test.Error(t, err)
	f := fonts[0]
	test.Float(t, f.AdvanceWidth(1), 170.0) // nominal 50 + 120

	p := &Path{}
	test.Error(t, f.GlyphPath(p, 1))
	test.T(t, p.segs[0].op, pathMoveTo)
	testPathArgs(t, p.segs[0].args, 50, 50)
	test.T(t, p.segs[1].op, pathLineTo)
	testPathArgs(t, p.segs[1].args, 150, 50)
}

func TestCharstringType2Subrs(t *testing.T) {
	// local subr indices are biased by 107 for fewer than 1240 subrs
	private := newBinaryWriter([]byte{})
	writeDICTInteger(private, 0)
	private.WriteUint8(20) // defaultWidthX
	writeDICTInteger(private, 0)
	private.WriteUint8(21) // nominalWidthX

	subr := newBinaryWriter([]byte{})
	writeT2Int(subr, 100)
	writeT2Int(subr, 0)
	subr.WriteUint8(5)  // rlineto
	subr.WriteUint8(11) // return
	subrsINDEX := &cffINDEX{}
	subrsINDEX.Add(subr.Bytes())
	subrsData, _ := subrsINDEX.Write()

	// the Subrs offset is relative to the start of the Private DICT
	subrsOffset := int(private.Len()) + 6
	private.WriteUint8(29)
	private.WriteInt32(int32(subrsOffset))
	private.WriteUint8(19) // Subrs

	cs := newBinaryWriter([]byte{})
	writeT2Int(cs, 0)
	writeT2Int(cs, 0)
	cs.WriteUint8(21) // rmoveto
	writeT2Int(cs, -107)
	cs.WriteUint8(10) // callsubr 0
	cs.WriteUint8(14) // endchar

	// the Private DICT is the last region in the font, so the Subrs INDEX
	// lands at subrsOffset when appended after it
	b := append(buildTestCFF(2, [][]byte{{14}, cs.Bytes()}, []uint16{34}, private.Bytes()), subrsData...)
	fonts, err := ParseCFF(b)
	test.Error(t, err)

	p := &Path{}
	test.Error(t, fonts[0].GlyphPath(p, 1))
	test.T(t, p.segs[1].op, pathLineTo)
	testPathArgs(t, p.segs[1].args, 100, 0)
}

func TestCharstringType2AccentedChar(t *testing.T) {
	// the base glyph carries its own width; the four-operand endchar form
	// draws base and accent but must not override the composite's width
	base := newBinaryWriter([]byte{})
	writeT2Int(base, 150) // width, nominal 50 + 150 = 200
	writeT2Int(base, 0)
	writeT2Int(base, 0)
	base.WriteUint8(21) // rmoveto
	writeT2Int(base, 100)
	base.WriteUint8(6)  // hlineto
	base.WriteUint8(14) // endchar

	composite := newBinaryWriter([]byte{})
	writeT2Int(composite, 300) // width, nominal 50 + 300 = 350
	writeT2Int(composite, 10)  // adx
	writeT2Int(composite, 0)   // ady
	writeT2Int(composite, 65)  // bchar, 'A'
	writeT2Int(composite, 65)  // achar
	composite.WriteUint8(14)   // endchar

	b := buildTestCFF(2, [][]byte{{14}, base.Bytes(), composite.Bytes()}, []uint16{34, 35}, buildTestPrivate(400, 50))
	fonts, err := ParseCFF(b)
	test.Error(t, err)
	f := fonts[0]

	p := &Path{}
	test.Error(t, f.GlyphPath(p, 2))
	test.T(t, p.Len(), 6)
	test.T(t, p.segs[0].op, pathMoveTo)
	testPathArgs(t, p.segs[0].args, 0, 0)
	test.T(t, p.segs[3].op, pathMoveTo)
	// the accent is translated by adx
	testPathArgs(t, p.segs[3].args, 10, 0)

	test.Float(t, f.AdvanceWidth(1), 200.0)
	test.Float(t, f.AdvanceWidth(2), 350.0)
}

func TestCharstringInfiniteRecursion(t *testing.T) {
	// a charstring that calls subr 0, which calls itself
	private := newBinaryWriter([]byte{})
	writeDICTInteger(private, 0)
	private.WriteUint8(20)
	writeDICTInteger(private, 0)
	private.WriteUint8(21)

	subr := newBinaryWriter([]byte{})
	writeT2Int(subr, -107)
	subr.WriteUint8(10) // callsubr 0
	subr.WriteUint8(11)
	subrsINDEX := &cffINDEX{}
	subrsINDEX.Add(subr.Bytes())
	subrsData, _ := subrsINDEX.Write()

	subrsOffset := int(private.Len()) + 6
	private.WriteUint8(29)
	private.WriteInt32(int32(subrsOffset))
	private.WriteUint8(19)

	cs := newBinaryWriter([]byte{})
	writeT2Int(cs, 0)
	writeT2Int(cs, 0)
	cs.WriteUint8(21)
	writeT2Int(cs, -107)
	cs.WriteUint8(10)
	cs.WriteUint8(14)

	b := append(buildTestCFF(2, [][]byte{{14}, cs.Bytes()}, []uint16{34}, private.Bytes()), subrsData...)
	fonts, err := ParseCFF(b)
	test.Error(t, err)

	p := &Path{}
	test.That(t, fonts[0].GlyphPath(p, 1) != nil)
}
