package font

import (
	"fmt"
	"strings"
	"testing"

	"github.com/tdewolff/test"
)

func TestCFFOpenTypeData(t *testing.T) {
	// a whole OpenType font is not a bare CFF font program; the error should
	// say so instead of reporting a nonsense version number
	_, err := ParseCFF([]byte("OTTO\x00\x01\x00\x00"))
	test.That(t, err != nil)
	test.That(t, strings.Contains(err.Error(), "OpenType"))
}

func TestCFFINDEX(t *testing.T) {
	idx := &cffINDEX{}
	test.T(t, idx.Add([]byte("first")), 0)
	test.T(t, idx.Add([]byte{}), 1)
	test.T(t, idx.Add([]byte("third")), 2)

	b, err := idx.Write()
	test.Error(t, err)

	r := newBinaryReader(b)
	idx2, err := parseINDEX(r)
	test.Error(t, err)
	test.T(t, idx2.Len(), 3)
	test.Bytes(t, idx2.Get(0), []byte("first"))
	test.T(t, len(idx2.Get(1)), 0)
	test.Bytes(t, idx2.Get(2), []byte("third"))
	test.That(t, idx2.Get(3) == nil)
}

func TestCFFINDEXEmpty(t *testing.T) {
	idx := &cffINDEX{}
	b, err := idx.Write()
	test.Error(t, err)
	test.Bytes(t, b, []byte{0, 0})

	// an empty INDEX is two count bytes, without offSize or offsets
	r := newBinaryReader(append(b, 0xFF))
	idx2, err := parseINDEX(r)
	test.Error(t, err)
	test.T(t, idx2.Len(), 0)
	test.T(t, r.Len(), uint32(1))
}

func TestCFFINDEXBadOffsets(t *testing.T) {
	// count=1, offSize=1, offsets {2,1} are not monotonic
	r := newBinaryReader([]byte{0x00, 0x01, 0x01, 0x02, 0x01})
	_, err := parseINDEX(r)
	test.That(t, err != nil)

	// offset zero is invalid, the format biases offsets by one
	r = newBinaryReader([]byte{0x00, 0x01, 0x01, 0x00, 0x01})
	_, err = parseINDEX(r)
	test.That(t, err != nil)
}

func TestCFFDICTIntegers(t *testing.T) {
	values := []int{0, 1, -1, 107, -107, 108, -108, 1131, -1131, 1132, -1132, 32767, -32768, 32768, -32769, 1000000, -1000000}
	for _, v := range values {
		t.Run(fmt.Sprintf("%d", v), func(t *testing.T) {
			w := newBinaryWriter([]byte{})
			writeDICTInteger(w, v)
			w.WriteUint8(13) // UniqueID

			got := 0
			err := parseDICT(w.Bytes(), func(b0 int, is []int, fs []float64) bool {
				if b0 == 13 {
					got = is[0]
				}
				return true
			})
			test.Error(t, err)
			test.T(t, got, v)
		})
	}
}

func TestCFFDICTOperandBytes(t *testing.T) {
	tests := []struct {
		operand []byte
		v       int
	}{
		{[]byte{32}, -107},
		{[]byte{139}, 0},
		{[]byte{246}, 107},
		{[]byte{247, 0}, 108},
		{[]byte{250, 255}, 1131},
		{[]byte{251, 0}, -108},
		{[]byte{254, 255}, -1131},
		{[]byte{28, 0x7F, 0xFF}, 32767},
		{[]byte{28, 0x80, 0x00}, -32768},
		{[]byte{29, 0x00, 0x01, 0x00, 0x00}, 65536},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.v), func(t *testing.T) {
			got := 0
			err := parseDICT(append(tt.operand, 13), func(b0 int, is []int, fs []float64) bool {
				if b0 == 13 {
					got = is[0]
				}
				return true
			})
			test.Error(t, err)
			test.T(t, got, tt.v)
		})
	}
}

func TestCFFDICTReals(t *testing.T) {
	values := []float64{0.0, 0.5, -2.25, 0.039625, 1e-5, -1.5e4, 2.5e10}
	for _, v := range values {
		t.Run(fmt.Sprintf("%G", v), func(t *testing.T) {
			w := newBinaryWriter([]byte{})
			writeDICTReal(w, v)
			w.WriteUint8(12)
			w.WriteUint8(2) // ItalicAngle

			got := 0.0
			err := parseDICT(w.Bytes(), func(b0 int, is []int, fs []float64) bool {
				if b0 == 256+2 {
					got = fs[0]
				}
				return true
			})
			test.Error(t, err)
			test.Float(t, got, v)
		})
	}
}

func TestCFFDICTRealLeniency(t *testing.T) {
	parseReal := func(operand []byte) float64 {
		got := 0.0
		err := parseDICT(append(operand, 12, 2), func(b0 int, is []int, fs []float64) bool {
			if b0 == 256+2 {
				got = fs[0]
			}
			return true
		})
		test.Error(t, err)
		return got
	}

	// an exponent marker without mantissa digits reads as exponent zero
	test.Float(t, parseReal([]byte{30, 0x1B, 0xFF}), 1.0)
	// a trailing bare minus sign is dropped
	test.Float(t, parseReal([]byte{30, 0x1E, 0xFF}), 1.0)
}

////////////////////////////////////////////////////////////////

// writeT2Int writes a charstring number as a 16-bit integer.
func writeT2Int(w *binaryWriter, v int) {
	w.WriteUint8(28)
	w.WriteInt16(int16(v))
}

// writeT1Int writes a Type 1 charstring number as a 32-bit integer.
func writeT1Int(w *binaryWriter, v int) {
	w.WriteUint8(255)
	w.WriteInt32(int32(v))
}

// buildTestCFF assembles a Type1-flavored CFF font program with the given
// charstrings. charsetSIDs holds the SIDs of glyphs 1 and up.
func buildTestCFF(charstringType int, charstrings [][]byte, charsetSIDs []uint16, private []byte) []byte {
	charStringsINDEX := &cffINDEX{}
	for _, charstring := range charstrings {
		charStringsINDEX.Add(charstring)
	}
	charStringsData, _ := charStringsINDEX.Write()

	charset := newBinaryWriter([]byte{})
	charset.WriteUint8(0) // format
	for _, sid := range charsetSIDs {
		charset.WriteUint16(sid)
	}

	buildTop := func(charStringsOffset, charsetOffset, privateOffset int) []byte {
		w := newBinaryWriter([]byte{})
		w.WriteUint8(29)
		w.WriteInt32(int32(charstringType))
		w.WriteUint8(12)
		w.WriteUint8(6) // CharstringType
		w.WriteUint8(29)
		w.WriteInt32(int32(charsetOffset))
		w.WriteUint8(15) // charset
		w.WriteUint8(29)
		w.WriteInt32(int32(charStringsOffset))
		w.WriteUint8(17) // CharStrings
		w.WriteUint8(29)
		w.WriteInt32(int32(len(private)))
		w.WriteUint8(29)
		w.WriteInt32(int32(privateOffset))
		w.WriteUint8(18) // Private
		return w.Bytes()
	}

	assemble := func(top []byte) *binaryWriter {
		nameINDEX := &cffINDEX{}
		nameINDEX.Add([]byte("Test"))
		nameData, _ := nameINDEX.Write()

		topINDEX := &cffINDEX{}
		topINDEX.Add(top)
		topData, _ := topINDEX.Write()

		w := newBinaryWriter([]byte{})
		w.WriteUint8(1) // major
		w.WriteUint8(0) // minor
		w.WriteUint8(4) // hdrSize
		w.WriteUint8(2) // offSize
		w.WriteBytes(nameData)
		w.WriteBytes(topData)
		w.WriteBytes([]byte{0, 0}) // String INDEX
		w.WriteBytes([]byte{0, 0}) // Global Subrs INDEX
		return w
	}

	// the integer encodings are fixed size, so a first pass with zero offsets
	// yields the final layout
	front := assemble(buildTop(0, 0, 0)).Len()
	charStringsOffset := int(front)
	charsetOffset := charStringsOffset + len(charStringsData)
	privateOffset := charsetOffset + int(charset.Len())

	w := assemble(buildTop(charStringsOffset, charsetOffset, privateOffset))
	w.WriteBytes(charStringsData)
	w.WriteBytes(charset.Bytes())
	w.WriteBytes(private)
	return w.Bytes()
}

func buildTestPrivate(defaultWidthX, nominalWidthX int) []byte {
	w := newBinaryWriter([]byte{})
	writeDICTInteger(w, defaultWidthX)
	w.WriteUint8(20) // defaultWidthX
	writeDICTInteger(w, nominalWidthX)
	w.WriteUint8(21) // nominalWidthX
	return w.Bytes()
}

func TestCFFGlyphPath(t *testing.T) {
	notdef := []byte{14} // endchar

	// 'A' has a leading width operand and draws a square of four lines
	a := newBinaryWriter([]byte{})
	writeT2Int(a, 600)
	writeT2Int(a, 100)
	writeT2Int(a, 100)
	a.WriteUint8(21) // rmoveto
	for _, d := range [][2]int{{200, 0}, {0, 200}, {-200, 0}, {0, -200}} {
		writeT2Int(a, d[0])
		writeT2Int(a, d[1])
		a.WriteUint8(5) // rlineto
	}
	a.WriteUint8(14) // endchar

	b := buildTestCFF(2, [][]byte{notdef, a.Bytes()}, []uint16{34}, buildTestPrivate(400, 50))
	fonts, err := ParseCFF(b)
	test.Error(t, err)
	f := fonts[0]
	test.T(t, f.Name(), "Test")
	test.That(t, !f.IsCID())
	test.T(t, f.NumGlyphs(), uint16(2))
	test.T(t, f.GlyphName(1), "A")
	test.T(t, f.NameToGID("A"), uint16(1))
	test.That(t, f.HasGlyph("A"))
	test.That(t, !f.HasGlyph("B"))

	p := &Path{}
	test.Error(t, f.GlyphPath(p, 1))
	ops := []pathOp{}
	for _, seg := range p.segs {
		ops = append(ops, seg.op)
	}
	test.T(t, len(ops), 6)
	test.T(t, ops[0], pathMoveTo)
	for _, op := range ops[1:5] {
		test.T(t, op, pathLineTo)
	}
	test.T(t, ops[5], pathClose)
	test.Float(t, p.segs[0].args[0], 100.0)
	test.Float(t, p.segs[0].args[1], 100.0)
	test.Float(t, p.segs[1].args[0], 300.0)

	// odd operand count carries the width, even count takes the default
	test.Float(t, f.AdvanceWidth(1), 650.0)
	test.Float(t, f.AdvanceWidth(0), 400.0)
}

func TestCFFEncoding(t *testing.T) {
	notdef := []byte{14}
	a := newBinaryWriter([]byte{})
	writeT2Int(a, 0)
	writeT2Int(a, 0)
	a.WriteUint8(21)
	a.WriteUint8(14)

	// standard encoding maps code 65 to the glyph named 'A'
	b := buildTestCFF(2, [][]byte{notdef, a.Bytes()}, []uint16{34}, buildTestPrivate(0, 0))
	fonts, err := ParseCFF(b)
	test.Error(t, err)
	test.T(t, fonts[0].CodeToGID(65), uint16(1))
	test.T(t, fonts[0].CodeToGID(66), uint16(0))
}

// buildTestCFFCID assembles a CID-keyed CFF with two subfonts: glyphs below
// fdSplit use the first Private DICT, the rest the second.
func buildTestCFFCID(nGlyphs, fdSplit int, private0, private1 []byte) []byte {
	charStringsINDEX := &cffINDEX{}
	for i := 0; i < nGlyphs; i++ {
		charStringsINDEX.Add([]byte{14})
	}
	charStringsData, _ := charStringsINDEX.Write()

	fdSelect := newBinaryWriter([]byte{})
	fdSelect.WriteUint8(3)  // format
	fdSelect.WriteUint16(2) // nRanges
	fdSelect.WriteUint16(0)
	fdSelect.WriteUint8(0)
	fdSelect.WriteUint16(uint16(fdSplit))
	fdSelect.WriteUint8(1)
	fdSelect.WriteUint16(uint16(nGlyphs)) // sentinel

	buildFontDICT := func(offset, length int) []byte {
		w := newBinaryWriter([]byte{})
		w.WriteUint8(29)
		w.WriteInt32(int32(length))
		w.WriteUint8(29)
		w.WriteInt32(int32(offset))
		w.WriteUint8(18) // Private
		return w.Bytes()
	}
	buildFDArray := func(private0Offset, private1Offset int) []byte {
		idx := &cffINDEX{}
		idx.Add(buildFontDICT(private0Offset, len(private0)))
		idx.Add(buildFontDICT(private1Offset, len(private1)))
		b, _ := idx.Write()
		return b
	}

	buildTop := func(charStringsOffset, fdArrayOffset, fdSelectOffset int) []byte {
		w := newBinaryWriter([]byte{})
		w.WriteUint8(29)
		w.WriteInt32(0)
		w.WriteUint8(29)
		w.WriteInt32(0)
		w.WriteUint8(29)
		w.WriteInt32(0)
		w.WriteUint8(12)
		w.WriteUint8(30) // ROS
		w.WriteUint8(29)
		w.WriteInt32(int32(charStringsOffset))
		w.WriteUint8(17) // CharStrings
		w.WriteUint8(29)
		w.WriteInt32(int32(fdArrayOffset))
		w.WriteUint8(12)
		w.WriteUint8(36) // FDArray
		w.WriteUint8(29)
		w.WriteInt32(int32(fdSelectOffset))
		w.WriteUint8(12)
		w.WriteUint8(37) // FDSelect
		return w.Bytes()
	}

	assemble := func(top []byte) *binaryWriter {
		nameINDEX := &cffINDEX{}
		nameINDEX.Add([]byte("TestCID"))
		nameData, _ := nameINDEX.Write()

		topINDEX := &cffINDEX{}
		topINDEX.Add(top)
		topData, _ := topINDEX.Write()

		w := newBinaryWriter([]byte{})
		w.WriteUint8(1)
		w.WriteUint8(0)
		w.WriteUint8(4)
		w.WriteUint8(2)
		w.WriteBytes(nameData)
		w.WriteBytes(topData)
		w.WriteBytes([]byte{0, 0})
		w.WriteBytes([]byte{0, 0})
		return w
	}

	front := assemble(buildTop(0, 0, 0)).Len()
	charStringsOffset := int(front)
	fdArrayOffset := charStringsOffset + len(charStringsData)
	fdSelectOffset := fdArrayOffset + len(buildFDArray(0, 0))
	private0Offset := fdSelectOffset + int(fdSelect.Len())
	private1Offset := private0Offset + len(private0)

	w := assemble(buildTop(charStringsOffset, fdArrayOffset, fdSelectOffset))
	w.WriteBytes(charStringsData)
	w.WriteBytes(buildFDArray(private0Offset, private1Offset))
	w.WriteBytes(fdSelect.Bytes())
	w.WriteBytes(private0)
	w.WriteBytes(private1)
	return w.Bytes()
}

func TestCFFCIDFDSelect(t *testing.T) {
	b := buildTestCFFCID(20, 10, buildTestPrivate(111, 0), buildTestPrivate(222, 0))
	fonts, err := ParseCFF(b)
	test.Error(t, err)
	f := fonts[0]
	test.That(t, f.IsCID())
	test.T(t, f.NumGlyphs(), uint16(20))

	private, err := f.GetPrivateDict(5)
	test.Error(t, err)
	test.Float(t, private.DefaultWidthX, 111.0)

	private, err = f.GetPrivateDict(15)
	test.Error(t, err)
	test.Float(t, private.DefaultWidthX, 222.0)

	_, err = f.GetPrivateDict(25)
	test.That(t, err != nil)

	// no charset means the identity CID mapping
	test.T(t, f.CID(15), uint16(15))
	test.T(t, f.GlyphName(15), "")
}
