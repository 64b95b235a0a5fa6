package font

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// MaxCmapSegments bounds the segment count accepted in cmap subtables.
const MaxCmapSegments = 20000

// SFNT is a parsed OpenType font program with TrueType or CFF outlines.
type SFNT struct {
	Data              []byte
	Version           string
	IsCFF, IsTrueType bool // mutually exclusive
	Tables            map[string][]byte

	Cmap *cmapTable
	Head *headTable
	Hhea *hheaTable
	Hmtx *hmtxTable
	Maxp *maxpTable
	Name *nameTable
	OS2  *os2Table
	Post *postTable

	// TrueType outlines
	Glyf *glyfTable
	Loca *locaTable

	// CFF outlines
	CFF *CFFFont

	// optional
	Kern *kernTable
	Vhea *vheaTable
	Vmtx *vmtxTable

	nameToGIDOnce sync.Once
	nameToGID     map[string]uint16
}

// NumGlyphs returns the number of glyphs the font contains.
func (sfnt *SFNT) NumGlyphs() uint16 {
	if sfnt.Maxp != nil {
		return sfnt.Maxp.NumGlyphs
	} else if sfnt.CFF != nil {
		return sfnt.CFF.NumGlyphs()
	}
	return 0
}

// GlyphIndex returns the glyph ID for a rune, or 0 when the rune is not
// mapped by any cmap subtable.
func (sfnt *SFNT) GlyphIndex(r rune) uint16 {
	if sfnt.Cmap == nil {
		return 0
	}
	return sfnt.Cmap.Get(r)
}

// GlyphName returns the glyph's PostScript name, or the empty string when the
// font carries no name for it.
func (sfnt *SFNT) GlyphName(glyphID uint16) string {
	if sfnt.Post != nil {
		if name := sfnt.Post.Get(glyphID); name != "" {
			return name
		}
	}
	if sfnt.CFF != nil {
		return sfnt.CFF.GlyphName(glyphID)
	}
	return ""
}

// NameToGID resolves a glyph name to its glyph ID. The post table is
// consulted first, then names of the uniXXXX and uXXXX patterns go through
// cmap; unresolvable names yield 0 (.notdef).
func (sfnt *SFNT) NameToGID(name string) uint16 {
	sfnt.nameToGIDOnce.Do(func() {
		sfnt.nameToGID = map[string]uint16{}
		if sfnt.Post == nil {
			return
		}
		for glyphID := uint16(0); glyphID < sfnt.NumGlyphs(); glyphID++ {
			name := sfnt.Post.Get(glyphID)
			if name == "" {
				continue
			}
			if _, ok := sfnt.nameToGID[name]; !ok {
				sfnt.nameToGID[name] = glyphID
			}
		}
	})
	if glyphID, ok := sfnt.nameToGID[name]; ok {
		return glyphID
	}
	if sfnt.CFF != nil {
		if glyphID := sfnt.CFF.NameToGID(name); glyphID != 0 {
			return glyphID
		}
	}
	if r := glyphNameRune(name); r != 0 {
		return sfnt.GlyphIndex(r)
	}
	return 0
}

// glyphNameRune parses the uniXXXX and uXXXX[XX] glyph name patterns.
func glyphNameRune(name string) rune {
	var hex string
	if len(name) == 7 && name[:3] == "uni" {
		hex = name[3:]
	} else if 5 <= len(name) && len(name) <= 7 && name[0] == 'u' {
		hex = name[1:]
	} else {
		return 0
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0
	}
	return rune(v)
}

// HasGlyph returns true when the font has a glyph with the given name.
func (sfnt *SFNT) HasGlyph(name string) bool {
	if name == ".notdef" {
		return true
	}
	return sfnt.NameToGID(name) != 0
}

// FontMatrix returns the matrix mapping design units to text space: the CFF
// font matrix for PostScript-flavored fonts, else a uniform 1/unitsPerEm
// scale.
func (sfnt *SFNT) FontMatrix() [6]float64 {
	if sfnt.IsCFF && sfnt.CFF != nil {
		return sfnt.CFF.FontMatrix()
	}
	scale := 1.0
	if sfnt.Head != nil && sfnt.Head.UnitsPerEm != 0 {
		scale = 1.0 / float64(sfnt.Head.UnitsPerEm)
	}
	return [6]float64{scale, 0.0, 0.0, scale, 0.0, 0.0}
}

// GlyphPath appends the glyph's outline to p, in font design units.
func (sfnt *SFNT) GlyphPath(p Pather, glyphID uint16) error {
	if sfnt.IsTrueType {
		return sfnt.Glyf.ToPath(p, glyphID)
	} else if sfnt.IsCFF {
		return sfnt.CFF.GlyphPath(p, glyphID)
	}
	return fmt.Errorf("only TrueType and CFF are supported")
}

// AdvanceWidth returns the horizontal advance width of the glyph in design
// units.
func (sfnt *SFNT) AdvanceWidth(glyphID uint16) float64 {
	if sfnt.Hmtx != nil {
		return float64(sfnt.Hmtx.Advance(glyphID))
	} else if sfnt.CFF != nil {
		return sfnt.CFF.AdvanceWidth(glyphID)
	}
	return 0.0
}

// GlyphVerticalAdvance returns the vertical advance of the glyph, defaulting
// to the em size when the font carries no vertical metrics.
func (sfnt *SFNT) GlyphVerticalAdvance(glyphID uint16) uint16 {
	if sfnt.Vmtx == nil {
		return sfnt.Head.UnitsPerEm
	}
	return sfnt.Vmtx.Advance(glyphID)
}

// VerticalMetrics returns the ascender, descender, and line gap. The hhea
// values are the baseline; OS/2 overrides them with the "typo" values when
// USE_TYPO_METRICS is set and with the "win" values otherwise.
func (sfnt *SFNT) VerticalMetrics() (uint16, uint16, uint16) {
	var ascender, descender, lineGap uint16
	if 0 < sfnt.Hhea.Ascender {
		ascender = uint16(sfnt.Hhea.Ascender)
	}
	if sfnt.Hhea.Descender < 0 {
		descender = uint16(-sfnt.Hhea.Descender)
	}
	if 0 < sfnt.Hhea.LineGap {
		lineGap = uint16(sfnt.Hhea.LineGap)
	}
	if sfnt.OS2 == nil {
		return ascender, descender, lineGap
	}

	useTypoMetrics := sfnt.OS2.FsSelection&0x0080 != 0
	if useTypoMetrics {
		if 0 < sfnt.OS2.STypoAscender && sfnt.OS2.STypoDescender < 0 {
			ascender = uint16(sfnt.OS2.STypoAscender)
			descender = uint16(-sfnt.OS2.STypoDescender)
			lineGap = 0
			if 0 < sfnt.OS2.STypoLineGap {
				lineGap = uint16(sfnt.OS2.STypoLineGap)
			}
		}
	} else if sfnt.OS2.UsWinAscent != 0 && sfnt.OS2.UsWinDescent != 0 {
		ascender, descender = sfnt.OS2.UsWinAscent, sfnt.OS2.UsWinDescent
		lineGap = 0
		hheaHeight := int(sfnt.Hhea.Ascender-sfnt.Hhea.Descender) + int(sfnt.Hhea.LineGap)
		if winHeight := int(sfnt.OS2.UsWinAscent + sfnt.OS2.UsWinDescent); winHeight < hheaHeight {
			lineGap = uint16(hheaHeight - winHeight)
		}
	}
	return ascender, descender, lineGap
}

// boundsPather tracks the extremes of all path coordinates it receives.
type boundsPather struct {
	xmin, ymin, xmax, ymax float64
}

func (p *boundsPather) MoveTo(x, y float64) {
	p.xmin = math.Min(p.xmin, x)
	p.ymin = math.Min(p.ymin, y)
	p.xmax = math.Max(p.xmax, x)
	p.ymax = math.Max(p.ymax, y)
}

func (p *boundsPather) LineTo(x, y float64) {
	p.MoveTo(x, y)
}

func (p *boundsPather) QuadTo(cpx, cpy, x, y float64) {
	p.MoveTo(cpx, cpy)
	p.MoveTo(x, y)
}

func (p *boundsPather) CubeTo(cpx1, cpy1, cpx2, cpy2, x, y float64) {
	p.MoveTo(cpx1, cpy1)
	p.MoveTo(cpx2, cpy2)
	p.MoveTo(x, y)
}

func (p *boundsPather) Close() {
}

// GlyphBounds returns the bounding rectangle (xmin,ymin,xmax,ymax) of the
// glyph in design units.
func (sfnt *SFNT) GlyphBounds(glyphID uint16) (int16, int16, int16, int16, error) {
	if sfnt.IsTrueType {
		contour, err := sfnt.Glyf.Contour(glyphID)
		if err != nil {
			return 0, 0, 0, 0, err
		}
		return contour.XMin, contour.YMin, contour.XMax, contour.YMax, nil
	} else if sfnt.IsCFF {
		p := &boundsPather{}
		if err := sfnt.CFF.GlyphPath(p, glyphID); err != nil {
			return 0, 0, 0, 0, err
		}
		return int16(p.xmin), int16(p.ymin), int16(math.Ceil(p.xmax)), int16(math.Ceil(p.ymax)), nil
	}
	return 0, 0, 0, 0, fmt.Errorf("only TrueType and CFF are supported")
}

// Kerning returns the advance correction for the glyph pair.
func (sfnt *SFNT) Kerning(left, right uint16) int16 {
	if sfnt.Kern == nil {
		return 0
	}
	return sfnt.Kern.Get(left, right)
}

// ParseSFNT parses an OpenType file format (TTF, OTF, TTC). The index is
// used for font collections to select a single font.
func ParseSFNT(b []byte, index int) (*SFNT, error) {
	return parseSFNT(b, index, false)
}

// ParseEmbeddedSFNT is like ParseSFNT but for font files embedded in PDFs,
// which may omit the cmap, name, and post tables.
func ParseEmbeddedSFNT(b []byte, index int) (*SFNT, error) {
	return parseSFNT(b, index, true)
}

func parseSFNT(b []byte, index int, embedded bool) (*SFNT, error) {
	if len(b) < 12 || uint(math.MaxUint32) < uint(len(b)) {
		return nil, ErrInvalidFontData
	}

	r := newBinaryReader(b)
	sfntVersion := r.ReadString(4)
	if sfntVersion == "ttcf" {
		majorVersion := r.ReadUint16()
		minorVersion := r.ReadUint16()
		if majorVersion != 1 && majorVersion != 2 || minorVersion != 0 {
			return nil, fmt.Errorf("bad TTC version")
		}

		numFonts := r.ReadUint32()
		if index < 0 || numFonts <= uint32(index) {
			return nil, fmt.Errorf("bad font index %d", index)
		}
		if r.Len() < 4*numFonts {
			return nil, ErrInvalidFontData
		}

		_ = r.ReadBytes(uint32(4 * index))
		offset := r.ReadUint32()
		var length uint32
		if uint32(index)+1 == numFonts {
			length = uint32(len(b)) - offset
		} else {
			length = r.ReadUint32() - offset
		}
		if uint32(len(b))-8 < offset || uint32(len(b))-8-offset < length {
			return nil, ErrInvalidFontData
		}

		r.Seek(offset)
		sfntVersion = r.ReadString(4)
	} else if index != 0 {
		return nil, fmt.Errorf("bad font index %d", index)
	}
	if sfntVersion != "OTTO" && sfntVersion != "true" && binary.BigEndian.Uint32([]byte(sfntVersion)) != 0x00010000 {
		return nil, fmt.Errorf("bad SFNT version")
	}

	// searchRange, entrySelector, and rangeShift are derivable and ignored
	numTables := r.ReadUint16()
	_ = r.ReadBytes(6)
	if r.Len() < 16*uint32(numTables) {
		return nil, ErrInvalidFontData
	}

	tables := make(map[string][]byte, numTables)
	for i := 0; i < int(numTables); i++ {
		tag := r.ReadString(4)
		_ = r.ReadUint32() // checksum
		offset := r.ReadUint32()
		length := r.ReadUint32()

		padding := (4 - length&3) & 3
		if uint32(len(b)) <= offset || uint32(len(b))-offset < length || uint32(len(b))-offset-length < padding {
			return nil, ErrInvalidFontData
		}
		if length == 0 && tag != "glyf" {
			// a font can legitimately carry an empty glyf entry
			continue
		}
		tables[tag] = b[offset : offset+length : offset+length]
	}

	sfnt := &SFNT{
		Data:       b,
		Version:    sfntVersion,
		IsCFF:      sfntVersion == "OTTO",
		IsTrueType: sfntVersion == "true" || binary.BigEndian.Uint32([]byte(sfntVersion)) == 0x00010000,
		Tables:     tables,
	}

	if sfnt.IsCFF {
		_, hasCFF := tables["CFF "]
		_, hasCFF2 := tables["CFF2"]
		if !hasCFF && hasCFF2 {
			return nil, fmt.Errorf("CFF2: not supported")
		} else if !hasCFF {
			return nil, fmt.Errorf("CFF: missing table")
		}
	}

	// missing or corrupt required tables are fatal; all other tables degrade
	// to absent when their data is bad
	required := map[string]bool{"head": true, "hhea": true, "hmtx": true, "maxp": true}
	if !embedded {
		required["cmap"] = true
		required["name"] = true
		required["post"] = true
	}
	if sfnt.IsTrueType {
		required["glyf"] = true
		required["loca"] = true
	}
	if sfnt.IsCFF {
		required["CFF "] = true
	}
	for tag := range required {
		if _, ok := tables[tag]; !ok {
			return nil, fmt.Errorf("%s: missing table", tag)
		}
	}

	// head, maxp, and hhea carry counts and formats the other tables depend on
	if err := sfnt.parseHead(); err != nil {
		return nil, err
	} else if err := sfnt.parseMaxp(); err != nil {
		return nil, err
	} else if err := sfnt.parseHhea(); err != nil {
		return nil, err
	}
	if sfnt.IsTrueType {
		if err := sfnt.parseLoca(); err != nil {
			return nil, err
		}
	}

	tags := make([]string, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		var err error
		switch tag {
		case "CFF ":
			err = sfnt.parseCFF()
		case "cmap":
			err = sfnt.parseCmap()
		case "glyf":
			err = sfnt.parseGlyf()
		case "hmtx":
			err = sfnt.parseHmtx()
		case "kern":
			err = sfnt.parseKern()
		case "name":
			err = sfnt.parseName()
		case "OS/2":
			err = sfnt.parseOS2()
		case "post":
			err = sfnt.parsePost()
		case "vhea":
			err = sfnt.parseVhea()
		case "vmtx":
			err = sfnt.parseVmtx()
		}
		if err != nil && required[tag] {
			return nil, err
		}
	}
	if sfnt.OS2 != nil && sfnt.OS2.Version <= 1 {
		sfnt.estimateOS2()
	}
	return sfnt, nil
}

func (sfnt *SFNT) parseCFF() error {
	b, ok := sfnt.Tables["CFF "]
	if !ok {
		return fmt.Errorf("CFF: missing table")
	}
	fonts, err := ParseCFF(b)
	if err != nil {
		return err
	} else if len(fonts) == 0 {
		return fmt.Errorf("CFF: empty table")
	}
	sfnt.CFF = fonts[0]
	return nil
}

////////////////////////////////////////////////////////////////

type cmapFormat0 struct {
	GlyphIdArray [256]uint8

	unicodeMap map[uint16]rune
}

func (sub *cmapFormat0) Get(r rune) (uint16, bool) {
	if r < 0 || 256 <= r {
		return 0, false
	}
	return uint16(sub.GlyphIdArray[r]), true
}

func (sub *cmapFormat0) ToUnicode(glyphID uint16) (rune, bool) {
	if 256 <= glyphID {
		return 0, false
	}
	if sub.unicodeMap == nil {
		sub.unicodeMap = make(map[uint16]rune, 256)
		for r, id := range sub.GlyphIdArray {
			sub.unicodeMap[uint16(id)] = rune(r)
		}
	}
	r, ok := sub.unicodeMap[glyphID]
	return r, ok
}

type cmapFormat4 struct {
	StartCode     []uint16
	EndCode       []uint16
	IdDelta       []int16
	IdRangeOffset []uint16
	GlyphIdArray  []uint16

	unicodeMap map[uint16]rune
}

// glyphID resolves the rune against segment i. Segment bounds were validated
// at parse time, so the glyphIdArray index cannot be out of range.
func (sub *cmapFormat4) glyphID(i int, r uint16) uint16 {
	if sub.IdRangeOffset[i] == 0 {
		// modulo 65536 by way of uint16 overflow
		return uint16(sub.IdDelta[i]) + r
	}
	// idRangeOffset is a byte offset from its own position in the file; in
	// array terms that is idRangeOffset/2 words minus the records remaining
	// after segment i
	index := int(sub.IdRangeOffset[i]/2) + int(r-sub.StartCode[i]) - (len(sub.StartCode) - i)
	return sub.GlyphIdArray[index]
}

func (sub *cmapFormat4) Get(r rune) (uint16, bool) {
	if r < 0 || 65536 <= r {
		return 0, false
	}
	for i := range sub.StartCode {
		if sub.StartCode[i] <= uint16(r) && uint16(r) <= sub.EndCode[i] {
			return sub.glyphID(i, uint16(r)), true
		}
	}
	return 0, false
}

func (sub *cmapFormat4) ToUnicode(glyphID uint16) (rune, bool) {
	if sub.unicodeMap == nil {
		sub.unicodeMap = map[uint16]rune{}
		for i := range sub.StartCode {
			// segment bounds are inclusive
			for r := uint32(sub.StartCode[i]); r <= uint32(sub.EndCode[i]); r++ {
				if id := sub.glyphID(i, uint16(r)); id != 0 {
					sub.unicodeMap[id] = rune(r)
				}
			}
		}
	}
	r, ok := sub.unicodeMap[glyphID]
	return r, ok
}

type cmapFormat6 struct {
	FirstCode    uint16
	GlyphIdArray []uint16
}

func (sub *cmapFormat6) Get(r rune) (uint16, bool) {
	if r < int32(sub.FirstCode) || uint32(len(sub.GlyphIdArray)) <= uint32(r)-uint32(sub.FirstCode) {
		return 0, false
	}
	return sub.GlyphIdArray[uint32(r)-uint32(sub.FirstCode)], true
}

func (sub *cmapFormat6) ToUnicode(glyphID uint16) (rune, bool) {
	for i, id := range sub.GlyphIdArray {
		if id == glyphID {
			return rune(sub.FirstCode) + rune(i), true
		}
	}
	return 0, false
}

type cmapFormat12 struct {
	StartCharCode []uint32
	EndCharCode   []uint32
	StartGlyphID  []uint32

	unicodeMap map[uint16]rune
}

func (sub *cmapFormat12) Get(r rune) (uint16, bool) {
	if r < 0 {
		return 0, false
	}
	for i := range sub.StartCharCode {
		if sub.StartCharCode[i] <= uint32(r) && uint32(r) <= sub.EndCharCode[i] {
			return uint16(uint32(r) - sub.StartCharCode[i] + sub.StartGlyphID[i]), true
		}
	}
	return 0, false
}

func (sub *cmapFormat12) ToUnicode(glyphID uint16) (rune, bool) {
	if sub.unicodeMap == nil {
		sub.unicodeMap = map[uint16]rune{}
		for i := range sub.StartCharCode {
			for r := uint64(sub.StartCharCode[i]); r <= uint64(sub.EndCharCode[i]); r++ {
				if id := uint16(uint32(r) - sub.StartCharCode[i] + sub.StartGlyphID[i]); id != 0 {
					sub.unicodeMap[id] = rune(r)
				}
			}
		}
	}
	r, ok := sub.unicodeMap[glyphID]
	return r, ok
}

type cmapEncodingRecord struct {
	PlatformID uint16
	EncodingID uint16
	Format     uint16
	Subtable   uint16
}

type cmapSubtable interface {
	Get(rune) (uint16, bool)
	ToUnicode(uint16) (rune, bool)
}

type cmapTable struct {
	EncodingRecords []cmapEncodingRecord
	Subtables       []cmapSubtable
}

// Get returns the glyph ID for a rune, trying the subtables in preference
// order before falling back to any subtable that maps the rune.
func (cmap *cmapTable) Get(r rune) uint16 {
	for _, i := range cmap.preference() {
		if glyphID, ok := cmap.Subtables[i].Get(r); ok && glyphID != 0 {
			return glyphID
		}
	}
	for _, sub := range cmap.Subtables {
		if glyphID, ok := sub.Get(r); ok && glyphID != 0 {
			return glyphID
		}
	}
	return 0
}

// ToUnicode returns a rune mapping to the glyph, or 0 when no subtable maps
// back to it.
func (cmap *cmapTable) ToUnicode(glyphID uint16) rune {
	for _, sub := range cmap.Subtables {
		if r, ok := sub.ToUnicode(glyphID); ok {
			return r
		}
	}
	return 0
}

// preference orders the subtables: full Unicode repertoire first, then
// Unicode BMP, then the Windows symbol encoding.
func (cmap *cmapTable) preference() []uint16 {
	order := []uint16{}
	add := func(match func(rec cmapEncodingRecord) bool) {
		for _, rec := range cmap.EncodingRecords {
			if match(rec) && int(rec.Subtable) < len(cmap.Subtables) {
				order = append(order, rec.Subtable)
			}
		}
	}
	add(func(rec cmapEncodingRecord) bool {
		return rec.PlatformID == 0 && rec.EncodingID == 4 || rec.PlatformID == 3 && rec.EncodingID == 10
	})
	add(func(rec cmapEncodingRecord) bool {
		return rec.PlatformID == 0 && rec.EncodingID == 3 || rec.PlatformID == 3 && rec.EncodingID == 1
	})
	add(func(rec cmapEncodingRecord) bool {
		return rec.PlatformID == 3 && rec.EncodingID == 0
	})
	return order
}

func (sfnt *SFNT) parseCmap() error {
	// requires data from maxp
	b, ok := sfnt.Tables["cmap"]
	if !ok {
		return fmt.Errorf("cmap: missing table")
	} else if len(b) < 4 {
		return fmt.Errorf("cmap: bad table")
	}

	cmap := &cmapTable{}
	r := newBinaryReader(b)
	if r.ReadUint16() != 0 {
		return fmt.Errorf("cmap: bad version")
	}
	numTables := r.ReadUint16()
	if uint32(len(b)) < 4+8*uint32(numTables) {
		return fmt.Errorf("cmap: bad table")
	}

	// encoding records may share a subtable; track the extracted ranges both
	// to dedupe and to reject overlapping subtables
	offsets, lengths := []uint32{0}, []uint32{4 + 8*uint32(numTables)}
	for j := 0; j < int(numTables); j++ {
		platformID := r.ReadUint16()
		encodingID := r.ReadUint16()
		subtableID := -1

		offset := r.ReadUint32()
		if uint32(len(b))-8 < offset { // a subtable needs at least 8 bytes for its header
			return fmt.Errorf("cmap: bad subtable %d", j)
		}
		for i := 0; i < len(offsets); i++ {
			if offsets[i] < offset && offset < lengths[i] {
				return fmt.Errorf("cmap: bad subtable %d", j)
			}
		}

		rs := newBinaryReader(b[offset:])
		format := rs.ReadUint16()
		var length uint32
		switch format {
		case 0, 2, 4, 6:
			length = uint32(rs.ReadUint16())
		case 8, 10, 12, 13:
			_ = rs.ReadUint16() // reserved
			length = rs.ReadUint32()
		case 14:
			length = rs.ReadUint32()
		default:
			return fmt.Errorf("cmap: bad format %d for subtable %d", format, j)
		}
		if length < 8 || math.MaxUint32-offset < length {
			return fmt.Errorf("cmap: bad subtable %d", j)
		}
		for i := 0; i < len(offsets); i++ {
			if offset == offsets[i] && length == lengths[i] {
				subtableID = int(i)
				break
			} else if offset <= offsets[i] && offsets[i] < offset+length {
				return fmt.Errorf("cmap: bad subtable %d", j)
			}
		}
		rs.buf = rs.buf[:length:length]

		if subtableID == -1 {
			subtableID = len(cmap.Subtables)
			offsets = append(offsets, offset)
			lengths = append(lengths, length)

			sub, err := sfnt.parseCmapSubtable(rs, format, j)
			if err != nil {
				return err
			}
			if sub != nil {
				cmap.Subtables = append(cmap.Subtables, sub)
			}
		}
		cmap.EncodingRecords = append(cmap.EncodingRecords, cmapEncodingRecord{
			PlatformID: platformID,
			EncodingID: encodingID,
			Format:     format,
			Subtable:   uint16(subtableID),
		})
	}
	sfnt.Cmap = cmap
	return nil
}

// parseCmapSubtable decodes a single cmap subtable of format 0, 4, 6, or 12;
// other formats are valid but unused and yield nil.
func (sfnt *SFNT) parseCmapSubtable(rs *binaryReader, format uint16, j int) (cmapSubtable, error) {
	switch format {
	case 0:
		if rs.Len() != 258 {
			return nil, fmt.Errorf("cmap: bad subtable %d", j)
		}
		_ = rs.ReadUint16() // languageID

		sub := &cmapFormat0{}
		copy(sub.GlyphIdArray[:], rs.ReadBytes(256))
		for _, glyphID := range sub.GlyphIdArray {
			if sfnt.Maxp.NumGlyphs <= uint16(glyphID) {
				return nil, fmt.Errorf("cmap: bad glyphID in subtable %d", j)
			}
		}
		return sub, nil
	case 4:
		if rs.Len() < 10 {
			return nil, fmt.Errorf("cmap: bad subtable %d", j)
		}
		_ = rs.ReadUint16() // languageID

		segCount := rs.ReadUint16()
		if segCount%2 != 0 || segCount == 0 {
			return nil, fmt.Errorf("cmap: bad segCount in subtable %d", j)
		}
		segCount /= 2
		if MaxCmapSegments < segCount {
			return nil, fmt.Errorf("cmap: too many segments in subtable %d", j)
		}
		_ = rs.ReadBytes(6) // searchRange, entrySelector, rangeShift

		sub := &cmapFormat4{}
		if rs.Len() < 2+8*uint32(segCount) {
			return nil, fmt.Errorf("cmap: bad subtable %d", j)
		}
		sub.EndCode = make([]uint16, segCount)
		for i := 0; i < int(segCount); i++ {
			endCode := rs.ReadUint16()
			if 0 < i && endCode <= sub.EndCode[i-1] {
				return nil, fmt.Errorf("cmap: bad endCode in subtable %d", j)
			}
			sub.EndCode[i] = endCode
		}
		_ = rs.ReadUint16() // reservedPad
		sub.StartCode = make([]uint16, segCount)
		for i := 0; i < int(segCount); i++ {
			startCode := rs.ReadUint16()
			if sub.EndCode[i] < startCode || 0 < i && startCode <= sub.EndCode[i-1] {
				return nil, fmt.Errorf("cmap: bad startCode in subtable %d", j)
			}
			sub.StartCode[i] = startCode
		}
		if sub.StartCode[segCount-1] != 0xFFFF || sub.EndCode[segCount-1] != 0xFFFF {
			return nil, fmt.Errorf("cmap: bad last startCode or endCode in subtable %d", j)
		}

		sub.IdDelta = make([]int16, segCount)
		for i := 0; i < int(segCount-1); i++ {
			sub.IdDelta[i] = rs.ReadInt16()
		}
		// the final segment maps 0xFFFF to .notdef regardless of stored data
		_ = rs.ReadUint16()
		sub.IdDelta[segCount-1] = 1

		glyphIdArrayLength := rs.Len() - 2*uint32(segCount)
		if glyphIdArrayLength%2 != 0 {
			return nil, fmt.Errorf("cmap: bad subtable %d", j)
		}
		glyphIdArrayLength /= 2

		sub.IdRangeOffset = make([]uint16, segCount)
		for i := 0; i < int(segCount-1); i++ {
			idRangeOffset := rs.ReadUint16()
			if idRangeOffset%2 != 0 {
				return nil, fmt.Errorf("cmap: bad idRangeOffset in subtable %d", j)
			} else if idRangeOffset != 0 {
				index := int(idRangeOffset/2) + int(sub.EndCode[i]-sub.StartCode[i]) - (int(segCount) - i)
				if index < 0 || glyphIdArrayLength <= uint32(index) {
					return nil, fmt.Errorf("cmap: bad idRangeOffset in subtable %d", j)
				}
			}
			sub.IdRangeOffset[i] = idRangeOffset
		}
		_ = rs.ReadUint16()
		sub.IdRangeOffset[segCount-1] = 0

		sub.GlyphIdArray = make([]uint16, glyphIdArrayLength)
		for i := 0; i < int(glyphIdArrayLength); i++ {
			glyphID := rs.ReadUint16()
			if sfnt.Maxp.NumGlyphs <= glyphID {
				return nil, fmt.Errorf("cmap: bad glyphID in subtable %d", j)
			}
			sub.GlyphIdArray[i] = glyphID
		}
		return sub, nil
	case 6:
		if rs.Len() < 6 {
			return nil, fmt.Errorf("cmap: bad subtable %d", j)
		}
		_ = rs.ReadUint16() // language

		sub := &cmapFormat6{}
		sub.FirstCode = rs.ReadUint16()
		entryCount := rs.ReadUint16()
		if rs.Len() < 2*uint32(entryCount) {
			return nil, fmt.Errorf("cmap: bad subtable %d", j)
		}
		sub.GlyphIdArray = make([]uint16, entryCount)
		for i := 0; i < int(entryCount); i++ {
			sub.GlyphIdArray[i] = rs.ReadUint16()
		}
		return sub, nil
	case 12:
		if rs.Len() < 8 {
			return nil, fmt.Errorf("cmap: bad subtable %d", j)
		}
		_ = rs.ReadUint32() // language
		numGroups := rs.ReadUint32()
		if MaxCmapSegments < numGroups {
			return nil, fmt.Errorf("cmap: too many segments in subtable %d", j)
		} else if rs.Len() < 12*numGroups {
			return nil, fmt.Errorf("cmap: bad subtable %d", j)
		}

		sub := &cmapFormat12{}
		sub.StartCharCode = make([]uint32, numGroups)
		sub.EndCharCode = make([]uint32, numGroups)
		sub.StartGlyphID = make([]uint32, numGroups)
		for i := 0; i < int(numGroups); i++ {
			startCharCode := rs.ReadUint32()
			endCharCode := rs.ReadUint32()
			startGlyphID := rs.ReadUint32()
			if endCharCode < startCharCode || 0 < i && startCharCode <= sub.EndCharCode[i-1] {
				return nil, fmt.Errorf("cmap: bad character code range in subtable %d", j)
			} else if uint32(sfnt.Maxp.NumGlyphs) <= endCharCode-startCharCode || uint32(sfnt.Maxp.NumGlyphs)-(endCharCode-startCharCode) <= startGlyphID {
				return nil, fmt.Errorf("cmap: bad glyphID in subtable %d", j)
			}
			sub.StartCharCode[i] = startCharCode
			sub.EndCharCode[i] = endCharCode
			sub.StartGlyphID[i] = startGlyphID
		}
		return sub, nil
	}
	return nil, nil
}

////////////////////////////////////////////////////////////////

type headTable struct {
	FontRevision           uint32
	Flags                  [16]bool
	UnitsPerEm             uint16
	Created, Modified      time.Time
	XMin, YMin, XMax, YMax int16
	MacStyle               [16]bool
	LowestRecPPEM          uint16
	FontDirectionHint      int16
	IndexToLocFormat       int16
	GlyphDataFormat        int16
}

// macEpoch is the zero of the head table's timestamps.
var macEpoch = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)

func (sfnt *SFNT) parseHead() error {
	b, ok := sfnt.Tables["head"]
	if !ok {
		return fmt.Errorf("head: missing table")
	} else if len(b) != 54 {
		return fmt.Errorf("head: bad table")
	}

	head := &headTable{}
	r := newBinaryReader(b)
	majorVersion := r.ReadUint16()
	minorVersion := r.ReadUint16()
	if majorVersion != 1 && minorVersion != 0 {
		return fmt.Errorf("head: bad version")
	}
	head.FontRevision = r.ReadUint32()
	_ = r.ReadUint32()                // checksumAdjustment
	if r.ReadUint32() != 0x5F0F3CF5 { // magicNumber
		return fmt.Errorf("head: bad magic version")
	}
	head.Flags = uint16ToFlags(r.ReadUint16())
	head.UnitsPerEm = r.ReadUint16()
	created := r.ReadUint64()
	modified := r.ReadUint64()
	if math.MaxInt64 < created || math.MaxInt64 < modified {
		return fmt.Errorf("head: created and/or modified dates too large")
	}
	head.Created = macEpoch.Add(time.Second * time.Duration(created))
	head.Modified = macEpoch.Add(time.Second * time.Duration(modified))
	head.XMin = r.ReadInt16()
	head.YMin = r.ReadInt16()
	head.XMax = r.ReadInt16()
	head.YMax = r.ReadInt16()
	head.MacStyle = uint16ToFlags(r.ReadUint16())
	head.LowestRecPPEM = r.ReadUint16()
	head.FontDirectionHint = r.ReadInt16()
	head.IndexToLocFormat = r.ReadInt16()
	if head.IndexToLocFormat != 0 && head.IndexToLocFormat != 1 {
		return fmt.Errorf("head: bad indexToLocFormat")
	}
	head.GlyphDataFormat = r.ReadInt16()
	sfnt.Head = head
	return nil
}

////////////////////////////////////////////////////////////////

type hheaTable struct {
	Ascender            int16
	Descender           int16
	LineGap             int16
	AdvanceWidthMax     uint16
	MinLeftSideBearing  int16
	MinRightSideBearing int16
	XMaxExtent          int16
	CaretSlopeRise      int16
	CaretSlopeRun       int16
	CaretOffset         int16
	MetricDataFormat    int16
	NumberOfHMetrics    uint16
}

func (sfnt *SFNT) parseHhea() error {
	// requires data from maxp
	b, ok := sfnt.Tables["hhea"]
	if !ok {
		return fmt.Errorf("hhea: missing table")
	} else if len(b) != 36 {
		return fmt.Errorf("hhea: bad table")
	}

	hhea := &hheaTable{}
	r := newBinaryReader(b)
	majorVersion := r.ReadUint16()
	minorVersion := r.ReadUint16()
	if majorVersion != 1 && minorVersion != 0 {
		return fmt.Errorf("hhea: bad version")
	}
	hhea.Ascender = r.ReadInt16()
	hhea.Descender = r.ReadInt16()
	hhea.LineGap = r.ReadInt16()
	hhea.AdvanceWidthMax = r.ReadUint16()
	hhea.MinLeftSideBearing = r.ReadInt16()
	hhea.MinRightSideBearing = r.ReadInt16()
	hhea.XMaxExtent = r.ReadInt16()
	hhea.CaretSlopeRise = r.ReadInt16()
	hhea.CaretSlopeRun = r.ReadInt16()
	hhea.CaretOffset = r.ReadInt16()
	_ = r.ReadBytes(8) // reserved
	hhea.MetricDataFormat = r.ReadInt16()
	hhea.NumberOfHMetrics = r.ReadUint16()
	if sfnt.Maxp.NumGlyphs < hhea.NumberOfHMetrics || hhea.NumberOfHMetrics == 0 {
		return fmt.Errorf("hhea: bad numberOfHMetrics")
	}
	sfnt.Hhea = hhea
	return nil
}

////////////////////////////////////////////////////////////////

type vheaTable struct {
	Ascender             int16
	Descender            int16
	LineGap              int16
	AdvanceHeightMax     int16
	MinTopSideBearing    int16
	MinBottomSideBearing int16
	YMaxExtent           int16
	CaretSlopeRise       int16
	CaretSlopeRun        int16
	CaretOffset          int16
	MetricDataFormat     int16
	NumberOfVMetrics     uint16
}

func (sfnt *SFNT) parseVhea() error {
	// requires data from maxp
	b, ok := sfnt.Tables["vhea"]
	if !ok {
		return fmt.Errorf("vhea: missing table")
	} else if len(b) != 36 {
		return fmt.Errorf("vhea: bad table")
	}

	vhea := &vheaTable{}
	r := newBinaryReader(b)
	majorVersion := r.ReadUint16()
	minorVersion := r.ReadUint16()
	if majorVersion != 1 && minorVersion != 0 && minorVersion != 1 {
		return fmt.Errorf("vhea: bad version")
	}
	vhea.Ascender = r.ReadInt16()
	vhea.Descender = r.ReadInt16()
	vhea.LineGap = r.ReadInt16()
	vhea.AdvanceHeightMax = r.ReadInt16()
	vhea.MinTopSideBearing = r.ReadInt16()
	vhea.MinBottomSideBearing = r.ReadInt16()
	vhea.YMaxExtent = r.ReadInt16()
	vhea.CaretSlopeRise = r.ReadInt16()
	vhea.CaretSlopeRun = r.ReadInt16()
	vhea.CaretOffset = r.ReadInt16()
	_ = r.ReadBytes(8) // reserved
	vhea.MetricDataFormat = r.ReadInt16()
	vhea.NumberOfVMetrics = r.ReadUint16()
	if sfnt.Maxp.NumGlyphs < vhea.NumberOfVMetrics || vhea.NumberOfVMetrics == 0 {
		return fmt.Errorf("vhea: bad numberOfVMetrics")
	}
	sfnt.Vhea = vhea
	return nil
}

////////////////////////////////////////////////////////////////

type hmtxLongHorMetric struct {
	AdvanceWidth    uint16
	LeftSideBearing int16
}

type hmtxTable struct {
	HMetrics         []hmtxLongHorMetric
	LeftSideBearings []int16
}

func (hmtx *hmtxTable) LeftSideBearing(glyphID uint16) int16 {
	if glyphID < uint16(len(hmtx.HMetrics)) {
		return hmtx.HMetrics[glyphID].LeftSideBearing
	}
	if i := int(glyphID) - len(hmtx.HMetrics); i < len(hmtx.LeftSideBearings) {
		return hmtx.LeftSideBearings[i]
	}
	return 0
}

// Advance returns the advance width; beyond numberOfHMetrics the last width
// is reused.
func (hmtx *hmtxTable) Advance(glyphID uint16) uint16 {
	if uint16(len(hmtx.HMetrics)) <= glyphID {
		glyphID = uint16(len(hmtx.HMetrics)) - 1
	}
	return hmtx.HMetrics[glyphID].AdvanceWidth
}

func (sfnt *SFNT) parseHmtx() error {
	// requires data from hhea and maxp
	b, ok := sfnt.Tables["hmtx"]
	nMetrics := sfnt.Hhea.NumberOfHMetrics
	nBearings := sfnt.Maxp.NumGlyphs - nMetrics
	if !ok {
		return fmt.Errorf("hmtx: missing table")
	} else if uint32(len(b)) != 4*uint32(nMetrics)+2*uint32(nBearings) {
		return fmt.Errorf("hmtx: bad table")
	}

	hmtx := &hmtxTable{
		HMetrics:         make([]hmtxLongHorMetric, nMetrics),
		LeftSideBearings: make([]int16, nBearings),
	}
	r := newBinaryReader(b)
	for i := 0; i < int(nMetrics); i++ {
		hmtx.HMetrics[i].AdvanceWidth = r.ReadUint16()
		hmtx.HMetrics[i].LeftSideBearing = r.ReadInt16()
	}
	for i := 0; i < int(nBearings); i++ {
		hmtx.LeftSideBearings[i] = r.ReadInt16()
	}
	sfnt.Hmtx = hmtx
	return nil
}

////////////////////////////////////////////////////////////////

type vmtxLongVerMetric struct {
	AdvanceHeight  uint16
	TopSideBearing int16
}

type vmtxTable struct {
	VMetrics        []vmtxLongVerMetric
	TopSideBearings []int16
}

func (vmtx *vmtxTable) TopSideBearing(glyphID uint16) int16 {
	if glyphID < uint16(len(vmtx.VMetrics)) {
		return vmtx.VMetrics[glyphID].TopSideBearing
	}
	if i := int(glyphID) - len(vmtx.VMetrics); i < len(vmtx.TopSideBearings) {
		return vmtx.TopSideBearings[i]
	}
	return 0
}

func (vmtx *vmtxTable) Advance(glyphID uint16) uint16 {
	if uint16(len(vmtx.VMetrics)) <= glyphID {
		glyphID = uint16(len(vmtx.VMetrics)) - 1
	}
	return vmtx.VMetrics[glyphID].AdvanceHeight
}

func (sfnt *SFNT) parseVmtx() error {
	// requires data from vhea and maxp
	if sfnt.Vhea == nil {
		return fmt.Errorf("vhea: missing table")
	}

	b, ok := sfnt.Tables["vmtx"]
	nMetrics := sfnt.Vhea.NumberOfVMetrics
	nBearings := sfnt.Maxp.NumGlyphs - nMetrics
	if !ok {
		return fmt.Errorf("vmtx: missing table")
	} else if uint32(len(b)) != 4*uint32(nMetrics)+2*uint32(nBearings) {
		return fmt.Errorf("vmtx: bad table")
	}

	vmtx := &vmtxTable{
		VMetrics:        make([]vmtxLongVerMetric, nMetrics),
		TopSideBearings: make([]int16, nBearings),
	}
	r := newBinaryReader(b)
	for i := 0; i < int(nMetrics); i++ {
		vmtx.VMetrics[i].AdvanceHeight = r.ReadUint16()
		vmtx.VMetrics[i].TopSideBearing = r.ReadInt16()
	}
	for i := 0; i < int(nBearings); i++ {
		vmtx.TopSideBearings[i] = r.ReadInt16()
	}
	sfnt.Vmtx = vmtx
	return nil
}

////////////////////////////////////////////////////////////////

type kernPair struct {
	Key   uint32
	Value int16
}

type kernFormat0 struct {
	Coverage [8]bool
	Pairs    []kernPair
}

func (sub *kernFormat0) Get(l, r uint16) int16 {
	key := uint32(l)<<16 | uint32(r)
	lo, hi := 0, len(sub.Pairs)
	for lo < hi {
		mid := (lo + hi) / 2
		pair := sub.Pairs[mid]
		if pair.Key < key {
			lo = mid + 1
		} else if key < pair.Key {
			hi = mid
		} else {
			return pair.Value
		}
	}
	return 0
}

type kernTable struct {
	Subtables []kernFormat0
}

// Get sums the kerning values over the subtables; subtables flagged as
// minimum values clamp instead of add.
func (kern *kernTable) Get(l, r uint16) (k int16) {
	for _, sub := range kern.Subtables {
		if !sub.Coverage[1] {
			k += sub.Get(l, r)
		} else if min := sub.Get(l, r); k < min {
			k = min
		}
	}
	return
}

func (sfnt *SFNT) parseKern() error {
	b, ok := sfnt.Tables["kern"]
	if !ok {
		return fmt.Errorf("kern: missing table")
	} else if len(b) < 4 {
		return fmt.Errorf("kern: bad table")
	}

	r := newBinaryReader(b)
	majorVersion := r.ReadUint16()
	if majorVersion != 0 && majorVersion != 1 {
		return fmt.Errorf("kern: bad version %d", majorVersion)
	}

	var nTables uint32
	if majorVersion == 0 {
		nTables = uint32(r.ReadUint16())
	} else {
		minorVersion := r.ReadUint16()
		if minorVersion != 0 {
			return fmt.Errorf("kern: bad minor version %d", minorVersion)
		}
		nTables = r.ReadUint32()
	}

	kern := &kernTable{}
	for j := 0; j < int(nTables); j++ {
		if r.Len() < 6 {
			return fmt.Errorf("kern: bad subtable %d", j)
		}

		sub := kernFormat0{}
		startPos := r.Pos()
		subtableVersion := r.ReadUint16()
		if subtableVersion != 0 {
			continue
		}
		length := r.ReadUint16()
		format := r.ReadUint8()
		sub.Coverage = uint8ToFlags(r.ReadUint8())
		if format != 0 {
			// only format 0 subtables carry pair kerning
			continue
		}
		if r.Len() < 8 {
			return fmt.Errorf("kern: bad subtable %d", j)
		}
		nPairs := r.ReadUint16()
		_ = r.ReadBytes(6) // searchRange, entrySelector, rangeShift
		if uint32(length) < 14+6*uint32(nPairs) || r.Len() < uint32(length) {
			// some fonts write a subtable whose real length exceeds the
			// uint16 length field; tolerate the truncated value for the
			// last subtable as long as the pairs stay within the table
			pairsLength := (6 * uint32(nPairs)) & 0xFFFF
			if j+1 != int(nTables) || uint32(length) != 14+pairsLength || r.Len() < pairsLength {
				return fmt.Errorf("kern: bad length for subtable %d", j)
			}
		}

		sub.Pairs = make([]kernPair, nPairs)
		for i := 0; i < int(nPairs); i++ {
			sub.Pairs[i].Key = r.ReadUint32()
			sub.Pairs[i].Value = r.ReadInt16()
			if 0 < i && sub.Pairs[i].Key <= sub.Pairs[i-1].Key {
				return fmt.Errorf("kern: bad left right pair for subtable %d", j)
			}
		}

		// skip any subtable bytes past the pairs
		_ = r.ReadBytes(uint32(length) - (r.Pos() - startPos))
		kern.Subtables = append(kern.Subtables, sub)
	}
	sfnt.Kern = kern
	return nil
}

////////////////////////////////////////////////////////////////

type maxpTable struct {
	NumGlyphs             uint16
	MaxPoints             uint16
	MaxContours           uint16
	MaxCompositePoints    uint16
	MaxCompositeContours  uint16
	MaxZones              uint16
	MaxTwilightPoints     uint16
	MaxStorage            uint16
	MaxFunctionDefs       uint16
	MaxInstructionDefs    uint16
	MaxStackElements      uint16
	MaxSizeOfInstructions uint16
	MaxComponentElements  uint16
	MaxComponentDepth     uint16
}

func (sfnt *SFNT) parseMaxp() error {
	b, ok := sfnt.Tables["maxp"]
	if !ok {
		return fmt.Errorf("maxp: missing table")
	} else if len(b) < 6 {
		return fmt.Errorf("maxp: bad table")
	}

	maxp := &maxpTable{}
	r := newBinaryReader(b)
	version := r.ReadUint32()
	maxp.NumGlyphs = r.ReadUint16()
	if version == 0x00005000 && !sfnt.IsTrueType && len(b) == 6 {
		// version 0.5, CFF outlines
		sfnt.Maxp = maxp
		return nil
	} else if version == 0x00010000 && !sfnt.IsCFF && len(b) == 32 {
		maxp.MaxPoints = r.ReadUint16()
		maxp.MaxContours = r.ReadUint16()
		maxp.MaxCompositePoints = r.ReadUint16()
		maxp.MaxCompositeContours = r.ReadUint16()
		maxp.MaxZones = r.ReadUint16()
		maxp.MaxTwilightPoints = r.ReadUint16()
		maxp.MaxStorage = r.ReadUint16()
		maxp.MaxFunctionDefs = r.ReadUint16()
		maxp.MaxInstructionDefs = r.ReadUint16()
		maxp.MaxStackElements = r.ReadUint16()
		maxp.MaxSizeOfInstructions = r.ReadUint16()
		maxp.MaxComponentElements = r.ReadUint16()
		maxp.MaxComponentDepth = r.ReadUint16()
		sfnt.Maxp = maxp
		return nil
	}
	return fmt.Errorf("maxp: bad table")
}

////////////////////////////////////////////////////////////////

type nameRecord struct {
	Platform PlatformID
	Encoding EncodingID
	Language uint16
	Name     NameID
	Value    []byte
}

// String decodes the record value: UTF-16BE for the Unicode and Windows
// platforms, MacRoman for the Macintosh platform, raw bytes otherwise.
func (record nameRecord) String() string {
	var decoder *encoding.Decoder
	if record.Platform == PlatformUnicode || record.Platform == PlatformWindows {
		decoder = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	} else if record.Platform == PlatformMacintosh && record.Encoding == EncodingMacintoshRoman {
		decoder = charmap.Macintosh.NewDecoder()
	}
	if s, _, err := transform.String(decoder, string(record.Value)); err == nil {
		return s
	}
	return string(record.Value)
}

type nameLangTagRecord struct {
	Value []byte
}

func (record nameLangTagRecord) String() string {
	decoder := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	if s, _, err := transform.String(decoder, string(record.Value)); err == nil {
		return s
	}
	return string(record.Value)
}

type nameTable struct {
	NameRecord []nameRecord
	LangTag    []nameLangTagRecord
}

// Get returns all records carrying the given name ID.
func (t *nameTable) Get(name NameID) []nameRecord {
	records := []nameRecord{}
	for _, record := range t.NameRecord {
		if record.Name == name {
			records = append(records, record)
		}
	}
	return records
}

func (sfnt *SFNT) parseName() error {
	b, ok := sfnt.Tables["name"]
	if !ok {
		return fmt.Errorf("name: missing table")
	} else if len(b) < 6 {
		return fmt.Errorf("name: bad table")
	}

	name := &nameTable{}
	r := newBinaryReader(b)
	version := r.ReadUint16()
	if version != 0 && version != 1 {
		return fmt.Errorf("name: bad version")
	}
	count := r.ReadUint16()
	storageOffset := r.ReadUint16()
	if uint32(len(b)) < 6+12*uint32(count) || uint16(len(b)) < storageOffset {
		return fmt.Errorf("name: bad table")
	}
	name.NameRecord = make([]nameRecord, count)
	for i := range name.NameRecord {
		record := &name.NameRecord[i]
		record.Platform = PlatformID(r.ReadUint16())
		record.Encoding = EncodingID(r.ReadUint16())
		record.Language = r.ReadUint16()
		record.Name = NameID(r.ReadUint16())

		length := r.ReadUint16()
		offset := r.ReadUint16()
		if uint16(len(b))-storageOffset < offset || uint16(len(b))-storageOffset-offset < length {
			return fmt.Errorf("name: bad table")
		}
		record.Value = b[storageOffset+offset : storageOffset+offset+length]
	}
	if version == 1 {
		if uint32(len(b)) < 6+12*uint32(count)+2 {
			return fmt.Errorf("name: bad table")
		}
		langTagCount := r.ReadUint16()
		if uint32(len(b)) < 6+12*uint32(count)+2+4*uint32(langTagCount) {
			return fmt.Errorf("name: bad table")
		}
		name.LangTag = make([]nameLangTagRecord, langTagCount)
		for i := range name.LangTag {
			length := r.ReadUint16()
			offset := r.ReadUint16()
			if uint16(len(b))-storageOffset < offset || uint16(len(b))-storageOffset-offset < length {
				return fmt.Errorf("name: bad table")
			}
			name.LangTag[i].Value = b[storageOffset+offset : storageOffset+offset+length]
		}
	}
	if r.Pos() != uint32(storageOffset) {
		return fmt.Errorf("name: bad storageOffset")
	}
	sfnt.Name = name
	return nil
}

////////////////////////////////////////////////////////////////

type os2Table struct {
	Version                 uint16
	XAvgCharWidth           int16
	UsWeightClass           uint16
	UsWidthClass            uint16
	FsType                  uint16
	YSubscriptXSize         int16
	YSubscriptYSize         int16
	YSubscriptXOffset       int16
	YSubscriptYOffset       int16
	YSuperscriptXSize       int16
	YSuperscriptYSize       int16
	YSuperscriptXOffset     int16
	YSuperscriptYOffset     int16
	YStrikeoutSize          int16
	YStrikeoutPosition      int16
	SFamilyClass            int16
	BFamilyType             uint8
	BSerifStyle             uint8
	BWeight                 uint8
	BProportion             uint8
	BContrast               uint8
	BStrokeVariation        uint8
	BArmStyle               uint8
	BLetterform             uint8
	BMidline                uint8
	BXHeight                uint8
	UlUnicodeRange1         uint32
	UlUnicodeRange2         uint32
	UlUnicodeRange3         uint32
	UlUnicodeRange4         uint32
	AchVendID               [4]byte
	FsSelection             uint16
	UsFirstCharIndex        uint16
	UsLastCharIndex         uint16
	STypoAscender           int16
	STypoDescender          int16
	STypoLineGap            int16
	UsWinAscent             uint16
	UsWinDescent            uint16
	UlCodePageRange1        uint32
	UlCodePageRange2        uint32
	SxHeight                int16
	SCapHeight              int16
	UsDefaultChar           uint16
	UsBreakChar             uint16
	UsMaxContent            uint16
	UsLowerOpticalPointSize uint16
	UsUpperOpticalPointSize uint16
}

func (sfnt *SFNT) parseOS2() error {
	b, ok := sfnt.Tables["OS/2"]
	if !ok {
		return fmt.Errorf("OS/2: missing table")
	} else if len(b) < 68 {
		return fmt.Errorf("OS/2: bad table")
	}

	os2 := &os2Table{}
	r := newBinaryReader(b)
	os2.Version = r.ReadUint16()
	if 5 < os2.Version {
		return fmt.Errorf("OS/2: bad version")
	} else if os2.Version == 0 && len(b) != 68 && len(b) != 78 ||
		os2.Version == 1 && len(b) != 86 ||
		2 <= os2.Version && os2.Version <= 4 && len(b) != 96 ||
		os2.Version == 5 && len(b) != 100 {
		return fmt.Errorf("OS/2: bad table")
	}
	os2.XAvgCharWidth = r.ReadInt16()
	os2.UsWeightClass = r.ReadUint16()
	os2.UsWidthClass = r.ReadUint16()
	os2.FsType = r.ReadUint16()
	os2.YSubscriptXSize = r.ReadInt16()
	os2.YSubscriptYSize = r.ReadInt16()
	os2.YSubscriptXOffset = r.ReadInt16()
	os2.YSubscriptYOffset = r.ReadInt16()
	os2.YSuperscriptXSize = r.ReadInt16()
	os2.YSuperscriptYSize = r.ReadInt16()
	os2.YSuperscriptXOffset = r.ReadInt16()
	os2.YSuperscriptYOffset = r.ReadInt16()
	os2.YStrikeoutSize = r.ReadInt16()
	os2.YStrikeoutPosition = r.ReadInt16()
	os2.SFamilyClass = r.ReadInt16()
	os2.BFamilyType = r.ReadUint8()
	os2.BSerifStyle = r.ReadUint8()
	os2.BWeight = r.ReadUint8()
	os2.BProportion = r.ReadUint8()
	os2.BContrast = r.ReadUint8()
	os2.BStrokeVariation = r.ReadUint8()
	os2.BArmStyle = r.ReadUint8()
	os2.BLetterform = r.ReadUint8()
	os2.BMidline = r.ReadUint8()
	os2.BXHeight = r.ReadUint8()
	os2.UlUnicodeRange1 = r.ReadUint32()
	os2.UlUnicodeRange2 = r.ReadUint32()
	os2.UlUnicodeRange3 = r.ReadUint32()
	os2.UlUnicodeRange4 = r.ReadUint32()
	copy(os2.AchVendID[:], r.ReadBytes(4))
	os2.FsSelection = r.ReadUint16()
	os2.UsFirstCharIndex = r.ReadUint16()
	os2.UsLastCharIndex = r.ReadUint16()
	if 78 <= len(b) {
		os2.STypoAscender = r.ReadInt16()
		os2.STypoDescender = r.ReadInt16()
		os2.STypoLineGap = r.ReadInt16()
		os2.UsWinAscent = r.ReadUint16()
		os2.UsWinDescent = r.ReadUint16()
	}
	sfnt.OS2 = os2
	if os2.Version == 0 {
		return nil
	}
	os2.UlCodePageRange1 = r.ReadUint32()
	os2.UlCodePageRange2 = r.ReadUint32()
	if os2.Version == 1 {
		return nil
	}
	os2.SxHeight = r.ReadInt16()
	os2.SCapHeight = r.ReadInt16()
	os2.UsDefaultChar = r.ReadUint16()
	os2.UsBreakChar = r.ReadUint16()
	os2.UsMaxContent = r.ReadUint16()
	if os2.Version <= 4 {
		return nil
	}
	os2.UsLowerOpticalPointSize = r.ReadUint16()
	os2.UsUpperOpticalPointSize = r.ReadUint16()
	return nil
}

// estimateOS2 fills the x-height and cap-height fields absent from OS/2
// versions 0 and 1 by measuring the 'x' and 'H' glyphs.
func (sfnt *SFNT) estimateOS2() {
	if sfnt.Cmap == nil {
		return
	}
	if sfnt.IsTrueType {
		if contour, err := sfnt.Glyf.Contour(sfnt.GlyphIndex('x')); err == nil {
			sfnt.OS2.SxHeight = contour.YMax
		}
		if contour, err := sfnt.Glyf.Contour(sfnt.GlyphIndex('H')); err == nil {
			sfnt.OS2.SCapHeight = contour.YMax
		}
	} else if sfnt.IsCFF && sfnt.CFF != nil {
		p := &boundsPather{}
		if err := sfnt.CFF.GlyphPath(p, sfnt.GlyphIndex('x')); err == nil {
			sfnt.OS2.SxHeight = int16(p.ymax)
		}
		p = &boundsPather{}
		if err := sfnt.CFF.GlyphPath(p, sfnt.GlyphIndex('H')); err == nil {
			sfnt.OS2.SCapHeight = int16(p.ymax)
		}
	}
}

////////////////////////////////////////////////////////////////

type postTable struct {
	ItalicAngle        float64
	UnderlinePosition  int16
	UnderlineThickness int16
	IsFixedPitch       uint32
	MinMemType42       uint32
	MaxMemType42       uint32
	MinMemType1        uint32
	MaxMemType1        uint32
	GlyphNameIndex     []uint16
	stringData         []string
}

// Get returns the glyph's name: indices below 258 select the standard
// Macintosh names, higher indices the font's own string data. Out-of-range
// indices degrade to the empty string.
func (post *postTable) Get(glyphID uint16) string {
	if len(post.GlyphNameIndex) <= int(glyphID) {
		return ""
	}
	index := int(post.GlyphNameIndex[glyphID])
	if index < 258 {
		return macintoshGlyphNames[index]
	} else if len(post.stringData) <= index-258 {
		return ""
	}
	return post.stringData[index-258]
}

func (sfnt *SFNT) parsePost() error {
	// requires data from maxp
	b, ok := sfnt.Tables["post"]
	if !ok {
		return fmt.Errorf("post: missing table")
	} else if len(b) < 32 {
		return fmt.Errorf("post: bad table")
	}

	post := &postTable{}
	r := newBinaryReader(b)
	version := r.ReadUint32()
	post.ItalicAngle = float64(r.ReadInt32()) / (1 << 16)
	post.UnderlinePosition = r.ReadInt16()
	post.UnderlineThickness = r.ReadInt16()
	post.IsFixedPitch = r.ReadUint32()
	post.MinMemType42 = r.ReadUint32()
	post.MaxMemType42 = r.ReadUint32()
	post.MinMemType1 = r.ReadUint32()
	post.MaxMemType1 = r.ReadUint32()

	switch {
	case version == 0x00010000 && sfnt.IsTrueType && len(b) == 32:
		// version 1.0 is the standard Macintosh order verbatim
		post.GlyphNameIndex = make([]uint16, 258)
		for i := range post.GlyphNameIndex {
			post.GlyphNameIndex[i] = uint16(i)
		}
	case version == 0x00020000 && 34 <= len(b):
		if r.ReadUint16() != sfnt.Maxp.NumGlyphs {
			return fmt.Errorf("post: numGlyphs does not match maxp table numGlyphs")
		}
		if uint32(len(b)) < 34+2*uint32(sfnt.Maxp.NumGlyphs) {
			return fmt.Errorf("post: bad table")
		}

		// read the Pascal strings after the index so that the indices can be
		// bounds-checked against the string count
		r.Seek(34 + 2*uint32(sfnt.Maxp.NumGlyphs))
		for 2 <= r.Len() {
			length := r.ReadUint8()
			if r.Len() < uint32(length) || 63 < length {
				return fmt.Errorf("post: bad stringData")
			}
			post.stringData = append(post.stringData, r.ReadString(uint32(length)))
		}
		if 1 < r.Len() {
			return fmt.Errorf("post: bad stringData")
		}

		r.Seek(34)
		post.GlyphNameIndex = make([]uint16, sfnt.Maxp.NumGlyphs)
		for i := range post.GlyphNameIndex {
			index := r.ReadUint16()
			if 258 <= index && len(post.stringData) <= int(index)-258 {
				return fmt.Errorf("post: bad stringData")
			}
			post.GlyphNameIndex[i] = index
		}
	case version == 0x00025000 && sfnt.IsTrueType && len(b) == 32:
		return fmt.Errorf("post: version 2.5 not supported")
	case version == 0x00030000 && len(b) == 32:
		// no glyph names provided
	default:
		return fmt.Errorf("post: bad version")
	}
	sfnt.Post = post
	return nil
}
