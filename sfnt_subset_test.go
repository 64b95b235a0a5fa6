package font

import (
	"encoding/binary"
	"reflect"
	"testing"

	"github.com/tdewolff/test"
)

func TestSubset(t *testing.T) {
	sfnt, err := ParseSFNT(buildTestTTF(), 0)
	test.Error(t, err)

	b, ids := sfnt.Subset([]uint16{2}, nil)
	test.T(t, len(ids), 2)
	test.T(t, ids[0], uint16(0))
	test.T(t, ids[1], uint16(2))

	subset, err := ParseSFNT(b, 0)
	test.Error(t, err)
	test.T(t, subset.Head.IndexToLocFormat, int16(1))
	test.T(t, subset.NumGlyphs(), uint16(2))
	test.T(t, subset.GlyphIndex('B'), uint16(1))
	test.T(t, subset.GlyphIndex('A'), uint16(0))
	test.T(t, subset.GlyphName(1), "B")
	test.Float(t, subset.AdvanceWidth(1), 550.0)
	test.T(t, subset.Hmtx.LeftSideBearing(1), int16(25))

	// the renumbered glyph keeps its outline
	orig, renumbered := &Path{}, &Path{}
	test.Error(t, sfnt.GlyphPath(orig, 2))
	test.Error(t, subset.GlyphPath(renumbered, 1))
	test.That(t, !renumbered.Empty())
	test.That(t, reflect.DeepEqual(renumbered.segs, orig.segs))
}

func TestSubsetComposite(t *testing.T) {
	sfnt, err := ParseSFNT(buildTestTTF(), 0)
	test.Error(t, err)

	// requesting the composite pulls in its component
	b, ids := sfnt.Subset([]uint16{3}, nil)
	test.T(t, len(ids), 3)
	test.T(t, ids[0], uint16(0))
	test.T(t, ids[1], uint16(1))
	test.T(t, ids[2], uint16(3))

	subset, err := ParseSFNT(b, 0)
	test.Error(t, err)
	test.T(t, subset.NumGlyphs(), uint16(3))
	test.T(t, subset.GlyphIndex('A'), uint16(1))
	test.T(t, subset.GlyphIndex('C'), uint16(2))
	test.T(t, subset.GlyphIndex('B'), uint16(0))

	deps, err := subset.Glyf.Dependencies(2)
	test.Error(t, err)
	test.T(t, len(deps), 2)
	test.T(t, deps[1], uint16(1))

	// trailing equal advances collapse into the last hMetric
	test.T(t, subset.Hhea.NumberOfHMetrics, uint16(2))
	test.Float(t, subset.AdvanceWidth(2), 600.0)
}

func TestSubsetCompositeRenumber(t *testing.T) {
	// point the composite at the triangle so that the subset must renumber the
	// component: old glyph 2 becomes glyph 1
	tables := buildTestTTFTables()
	glyf := append([]byte{}, tables["glyf"]...)
	binary.BigEndian.PutUint16(glyf[76:], 2) // component glyph ID of glyph 3
	tables["glyf"] = glyf

	sfnt, err := ParseSFNT(buildSFNT(tables), 0)
	test.Error(t, err)

	b, ids := sfnt.Subset([]uint16{3}, nil)
	test.T(t, len(ids), 3)
	test.T(t, ids[1], uint16(2))
	test.T(t, ids[2], uint16(3))

	subset, err := ParseSFNT(b, 0)
	test.Error(t, err)
	deps, err := subset.Glyf.Dependencies(2)
	test.Error(t, err)
	test.T(t, len(deps), 2)
	test.T(t, deps[1], uint16(1))

	contour, err := subset.Glyf.Contour(2)
	test.Error(t, err)
	test.T(t, len(contour.XCoordinates), 3)
	test.T(t, contour.XCoordinates[1], int16(310))
	test.T(t, contour.YCoordinates[2], int16(250))
}

func TestSubsetKern(t *testing.T) {
	sfnt, err := ParseSFNT(buildTestTTF(), 0)
	test.Error(t, err)

	// both glyphs of the kerning pair retained, glyph IDs unchanged
	b, _ := sfnt.Subset([]uint16{1, 2}, nil)
	subset, err := ParseSFNT(b, 0)
	test.Error(t, err)
	test.T(t, subset.Kerning(1, 2), int16(-15))

	// dropping one side of the pair drops the pair
	b, _ = sfnt.Subset([]uint16{2}, nil)
	subset, err = ParseSFNT(b, 0)
	test.Error(t, err)
	test.T(t, subset.Kerning(1, 2), int16(0))
}

func TestSubsetOS2Range(t *testing.T) {
	tables := buildTestTTFTables()
	tables["OS/2"] = buildTestOS2(0x0041, 0x0043)
	sfnt, err := ParseSFNT(buildSFNT(tables), 0)
	test.Error(t, err)
	test.T(t, sfnt.OS2.UsFirstCharIndex, uint16(0x0041))
	test.T(t, sfnt.OS2.UsLastCharIndex, uint16(0x0043))

	// only 'B' retained, so the character range narrows
	b, _ := sfnt.Subset([]uint16{2}, nil)
	subset, err := ParseSFNT(b, 0)
	test.Error(t, err)
	test.T(t, subset.OS2.UsFirstCharIndex, uint16(0x0042))
	test.T(t, subset.OS2.UsLastCharIndex, uint16(0x0042))
}

func TestSubsetNotdefOnly(t *testing.T) {
	sfnt, err := ParseSFNT(buildTestTTF(), 0)
	test.Error(t, err)

	b, ids := sfnt.Subset([]uint16{}, nil)
	test.T(t, len(ids), 1)
	test.T(t, ids[0], uint16(0))

	subset, err := ParseSFNT(b, 0)
	test.Error(t, err)
	test.T(t, subset.NumGlyphs(), uint16(1))
	test.T(t, subset.GlyphIndex('A'), uint16(0))
}

func TestSubsetKeepTables(t *testing.T) {
	tables := buildTestTTFTables()
	tables["gasp"] = []byte{0, 0, 0, 0}
	sfnt, err := ParseSFNT(buildSFNT(tables), 0)
	test.Error(t, err)

	b, _ := sfnt.Subset([]uint16{1}, nil)
	subset, err := ParseSFNT(b, 0)
	test.Error(t, err)
	_, ok := subset.Tables["gasp"]
	test.That(t, !ok)

	b, _ = sfnt.Subset([]uint16{1}, []string{"gasp"})
	subset, err = ParseSFNT(b, 0)
	test.Error(t, err)
	_, ok = subset.Tables["gasp"]
	test.That(t, ok)
}

func TestSubsetTwice(t *testing.T) {
	sfnt, err := ParseSFNT(buildTestTTF(), 0)
	test.Error(t, err)

	b, _ := sfnt.Subset([]uint16{1, 2, 3}, nil)
	subset, err := ParseSFNT(b, 0)
	test.Error(t, err)

	b2, ids := subset.Subset([]uint16{1, 2, 3}, nil)
	test.T(t, len(ids), 4)
	subset2, err := ParseSFNT(b2, 0)
	test.Error(t, err)

	test.T(t, subset2.NumGlyphs(), subset.NumGlyphs())
	test.T(t, subset2.GlyphIndex('B'), subset.GlyphIndex('B'))
	p1, p2 := &Path{}, &Path{}
	test.Error(t, subset.GlyphPath(p1, 1))
	test.Error(t, subset2.GlyphPath(p2, 1))
	test.That(t, reflect.DeepEqual(p2.segs, p1.segs))
}
