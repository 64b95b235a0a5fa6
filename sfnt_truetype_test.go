package font

import (
	"testing"

	"github.com/tdewolff/test"
)

func TestGlyfCompositeScale(t *testing.T) {
	w := newBinaryWriter([]byte{})
	// glyph 0: a single point at (5,5)
	buildSimpleGlyph(w, []int16{5}, []int16{5}, nil)
	// glyph 1: glyph 0 scaled by an F2Dot14 just under 2 and shifted by (10,0)
	w.WriteInt16(-1)
	w.WriteInt16(0)
	w.WriteInt16(0)
	w.WriteInt16(30)
	w.WriteInt16(20)
	w.WriteUint16(0x000B) // ARG_1_AND_2_ARE_WORDS | ARGS_ARE_XY_VALUES | WE_HAVE_A_SCALE
	w.WriteUint16(0)
	w.WriteInt16(10)
	w.WriteInt16(0)
	w.WriteUint16(0x7FFF)

	glyf := &glyfTable{
		data: w.Bytes(),
		loca: &locaTable{Format: 1, Offsets: []uint32{0, 19, 39}},
	}

	contour, err := glyf.Contour(1)
	test.Error(t, err)
	test.T(t, len(contour.XCoordinates), 1)
	test.T(t, contour.XCoordinates[0], int16(20))
	test.T(t, contour.YCoordinates[0], int16(10))
}

func TestGlyfCompositeCycle(t *testing.T) {
	// two composite glyphs referencing each other
	w := newBinaryWriter([]byte{})
	for _, child := range []uint16{1, 0} {
		w.WriteInt16(-1)
		w.WriteInt16(0)
		w.WriteInt16(0)
		w.WriteInt16(100)
		w.WriteInt16(100)
		w.WriteUint16(0x0003)
		w.WriteUint16(child)
		w.WriteInt16(0)
		w.WriteInt16(0)
	}

	glyf := &glyfTable{
		data: w.Bytes(),
		loca: &locaTable{Format: 1, Offsets: []uint32{0, 18, 36}},
	}

	_, err := glyf.Contour(0)
	test.That(t, err != nil)
	_, err = glyf.Dependencies(0)
	test.That(t, err != nil)
	p := &Path{}
	test.That(t, glyf.ToPath(p, 0) != nil)
}

func TestGlyfQuadratic(t *testing.T) {
	w := newBinaryWriter([]byte{})
	buildSimpleGlyph(w, []int16{0, 100, 200}, []int16{0, 100, 0}, []bool{true, false, true})

	glyf := &glyfTable{
		data: w.Bytes(),
		loca: &locaTable{Format: 1, Offsets: []uint32{0, w.Len()}},
	}

	p := &Path{}
	test.Error(t, glyf.ToPath(p, 0))
	test.T(t, p.Len(), 3)
	test.T(t, p.segs[0].op, pathMoveTo)
	testPathArgs(t, p.segs[0].args, 0, 0)
	test.T(t, p.segs[1].op, pathQuadTo)
	testPathArgs(t, p.segs[1].args, 100, 100, 200, 0)
	test.T(t, p.segs[2].op, pathClose)
}

func TestGlyfImpliedOnCurve(t *testing.T) {
	// consecutive off-curve points imply an on-curve midpoint
	w := newBinaryWriter([]byte{})
	buildSimpleGlyph(w, []int16{0, 0, 100, 100}, []int16{0, 100, 100, 0}, []bool{true, false, false, true})

	glyf := &glyfTable{
		data: w.Bytes(),
		loca: &locaTable{Format: 1, Offsets: []uint32{0, w.Len()}},
	}

	p := &Path{}
	test.Error(t, glyf.ToPath(p, 0))
	test.T(t, p.Len(), 4)
	test.T(t, p.segs[1].op, pathQuadTo)
	testPathArgs(t, p.segs[1].args, 0, 100, 50, 100)
	test.T(t, p.segs[2].op, pathQuadTo)
	testPathArgs(t, p.segs[2].args, 100, 100, 100, 0)
	test.T(t, p.segs[3].op, pathClose)
}

func TestGlyfEmptyGlyph(t *testing.T) {
	glyf := &glyfTable{
		data: []byte{},
		loca: &locaTable{Format: 1, Offsets: []uint32{0, 0}},
	}

	test.That(t, !glyf.IsComposite(0))
	deps, err := glyf.Dependencies(0)
	test.Error(t, err)
	test.T(t, len(deps), 1)
	test.T(t, deps[0], uint16(0))

	p := &Path{}
	test.Error(t, glyf.ToPath(p, 0))
	test.That(t, p.Empty())
}
