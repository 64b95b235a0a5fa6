package font

import (
	"fmt"
	"math"
	"strconv"
	"sync"
)

////////////////////////////////////////////////////////////////

// CFFFont is a single font program inside a Compact Font Format container.
// It may be Type1-flavored (glyphs named through the charset) or CID-keyed
// (glyphs routed through FDSelect to per-subfont Private dictionaries).
type CFFFont struct {
	name        string
	top         *cffTopDICT
	strings     *cffINDEX
	globalSubrs *cffINDEX
	charStrings *cffINDEX
	charset     []uint16   // GID to SID, or GID to CID for CID-keyed fonts
	encoding    []uint16   // character code to GID, nil for CID-keyed fonts
	fonts       *cffFontINDEX

	mu         sync.Mutex
	pathCache  map[uint16]*Path
	widthCache map[uint16]float64
	sidToGID   map[uint16]uint16
}

// ParseCFF parses a bare CFF font program. A CFF container may hold several
// fonts; PDF embedding uses index 0.
func ParseCFF(b []byte) ([]*CFFFont, error) {
	if len(b) < 4 {
		return nil, ErrInvalidFontData
	} else if string(b[:4]) == "OTTO" {
		return nil, fmt.Errorf("CFF: bare CFF expected, data is an OpenType font")
	}

	r := newBinaryReader(b)
	major := r.ReadUint8()
	minor := r.ReadUint8()
	if major != 1 || minor != 0 {
		return nil, fmt.Errorf("CFF: bad version %d.%d", major, minor)
	}
	hdrSize := r.ReadUint8()
	_ = r.ReadUint8() // offSize
	if hdrSize < 4 || uint32(len(b)) < uint32(hdrSize) {
		return nil, fmt.Errorf("CFF: bad header")
	}
	r.Seek(uint32(hdrSize))

	nameINDEX, err := parseINDEX(r)
	if err != nil {
		return nil, fmt.Errorf("CFF: Name INDEX: %w", err)
	} else if nameINDEX.Len() == 0 {
		return nil, fmt.Errorf("CFF: Name INDEX: empty")
	}
	topINDEX, err := parseINDEX(r)
	if err != nil {
		return nil, fmt.Errorf("CFF: Top DICT INDEX: %w", err)
	} else if topINDEX.Len() != nameINDEX.Len() {
		return nil, fmt.Errorf("CFF: Top DICT INDEX: bad count")
	}
	stringINDEX, err := parseINDEX(r)
	if err != nil {
		return nil, fmt.Errorf("CFF: String INDEX: %w", err)
	}
	globalSubrs, err := parseINDEX(r)
	if err != nil {
		return nil, fmt.Errorf("CFF: Global Subrs INDEX: %w", err)
	}

	fonts := make([]*CFFFont, nameINDEX.Len())
	for i := 0; i < nameINDEX.Len(); i++ {
		font, err := parseCFFFont(b, string(nameINDEX.Get(uint16(i))), topINDEX.Get(uint16(i)), stringINDEX, globalSubrs)
		if err != nil {
			return nil, err
		}
		fonts[i] = font
	}
	return fonts, nil
}

func parseCFFFont(b []byte, name string, topDICT []byte, stringINDEX, globalSubrs *cffINDEX) (*CFFFont, error) {
	top, err := parseTopDICT(topDICT, stringINDEX)
	if err != nil {
		return nil, fmt.Errorf("CFF: Top DICT: %w", err)
	} else if top.IsSynthetic {
		return nil, fmt.Errorf("CFF: synthetic fonts not supported")
	} else if top.CharstringType != 1 && top.CharstringType != 2 {
		return nil, fmt.Errorf("CFF: bad CharstringType")
	}

	charStrings := &cffINDEX{}
	if top.CharStrings == 0 || len(b) <= top.CharStrings {
		// a CID-keyed font with unreadable charstrings degrades to empty
		if !top.IsCID {
			return nil, fmt.Errorf("CFF: bad CharStrings offset")
		}
	} else {
		r := newBinaryReader(b)
		r.Seek(uint32(top.CharStrings))
		if charStrings, err = parseINDEX(r); err != nil {
			if !top.IsCID {
				return nil, fmt.Errorf("CFF: CharStrings INDEX: %w", err)
			}
			charStrings = &cffINDEX{}
		}
	}
	nGlyphs := charStrings.Len()

	font := &CFFFont{
		name:        name,
		top:         top,
		strings:     stringINDEX,
		globalSubrs: globalSubrs,
		charStrings: charStrings,
	}

	if top.IsCID {
		// CID-keyed: FDArray of Font DICTs, each with its own Private DICT,
		// routed per glyph through FDSelect
		fonts, err := parseFontINDEX(b, top.FDArray, top.FDSelect, nGlyphs)
		if err != nil {
			return nil, fmt.Errorf("CFF: %w", err)
		}
		font.fonts = fonts

		charset, err := parseCharset(b, top.Charset, nGlyphs, true)
		if err != nil {
			// a broken charset on a CID font degrades to the identity mapping
			charset = identityCharset(nGlyphs)
		}
		font.charset = charset
	} else {
		if top.PrivateOffset == 0 || top.PrivateLength == 0 {
			return nil, fmt.Errorf("CFF: missing Private DICT")
		} else if len(b) < top.PrivateOffset+top.PrivateLength {
			return nil, fmt.Errorf("CFF: bad Private DICT offset")
		}
		private, err := parsePrivateDICT(b[top.PrivateOffset : top.PrivateOffset+top.PrivateLength])
		if err != nil {
			return nil, fmt.Errorf("CFF: Private DICT: %w", err)
		}

		localSubrs := &cffINDEX{}
		if private.Subrs != 0 {
			offset := top.PrivateOffset + private.Subrs
			if len(b) <= offset {
				return nil, fmt.Errorf("CFF: bad Local Subrs offset")
			}
			rs := newBinaryReader(b)
			rs.Seek(uint32(offset))
			if localSubrs, err = parseINDEX(rs); err != nil {
				return nil, fmt.Errorf("CFF: Local Subrs INDEX: %w", err)
			}
		}
		font.fonts = &cffFontINDEX{
			private:    []*cffPrivateDICT{private},
			localSubrs: []*cffINDEX{localSubrs},
			first:      []uint32{0, uint32(nGlyphs)},
			fd:         []uint16{0},
		}

		charset, err := parseCharset(b, top.Charset, nGlyphs, false)
		if err != nil {
			return nil, fmt.Errorf("CFF: charset: %w", err)
		}
		font.charset = charset

		encoding, err := parseEncoding(b, top.Encoding, charset)
		if err != nil {
			return nil, fmt.Errorf("CFF: encoding: %w", err)
		}
		font.encoding = encoding
	}
	return font, nil
}

// Name returns the font name from the Name INDEX.
func (f *CFFFont) Name() string {
	return f.name
}

// IsCID returns true for CID-keyed fonts.
func (f *CFFFont) IsCID() bool {
	return f.top.IsCID
}

// NumGlyphs returns the number of glyphs.
func (f *CFFFont) NumGlyphs() uint16 {
	return uint16(f.charStrings.Len())
}

// FontMatrix returns the font matrix mapping design units to text space. For
// CID-keyed fonts whose Font DICTs carry their own matrix, the matrices are
// concatenated.
func (f *CFFFont) FontMatrix() [6]float64 {
	return f.fontMatrix(0)
}

func (f *CFFFont) fontMatrix(glyphID uint16) [6]float64 {
	m := f.top.FontMatrix
	if f.top.IsCID {
		if i, ok := f.fonts.Index(glyphID); ok && f.fonts.fontMatrix[i] != nil {
			n := *f.fonts.fontMatrix[i]
			if !f.top.HasFontMatrix {
				return n
			}
			return [6]float64{
				m[0]*n[0] + m[1]*n[2],
				m[0]*n[1] + m[1]*n[3],
				m[2]*n[0] + m[3]*n[2],
				m[2]*n[1] + m[3]*n[3],
				m[4]*n[0] + m[5]*n[2] + n[4],
				m[4]*n[1] + m[5]*n[3] + n[5],
			}
		}
	}
	return m
}

// GetPrivateDict returns the Private DICT that applies to the glyph. For
// CID-keyed fonts this routes through FDSelect.
func (f *CFFFont) GetPrivateDict(glyphID uint16) (*cffPrivateDICT, error) {
	return f.fonts.GetPrivate(glyphID)
}

// CharstringBytes returns the charstring byte range of the glyph, falling
// back to .notdef for a missing glyph.
func (f *CFFFont) CharstringBytes(glyphID uint16) []byte {
	charstring := f.charStrings.Get(glyphID)
	if charstring == nil {
		charstring = f.charStrings.Get(0)
	}
	return charstring
}

// GlyphName returns the glyph's name through the charset, or the empty string
// for CID-keyed fonts.
func (f *CFFFont) GlyphName(glyphID uint16) string {
	if f.top.IsCID || int(glyphID) >= len(f.charset) {
		return ""
	}
	return f.strings.GetSID(int(f.charset[glyphID]))
}

// CID returns the character ID of the glyph in a CID-keyed font.
func (f *CFFFont) CID(glyphID uint16) uint16 {
	if int(glyphID) < len(f.charset) {
		return f.charset[glyphID]
	}
	return 0
}

// NameToGID returns the glyph ID of a named glyph, or 0 when absent.
func (f *CFFFont) NameToGID(name string) uint16 {
	if f.top.IsCID {
		return 0
	}
	f.mu.Lock()
	if f.sidToGID == nil {
		f.sidToGID = make(map[uint16]uint16, len(f.charset))
		for gid, sid := range f.charset {
			if _, ok := f.sidToGID[sid]; !ok {
				f.sidToGID[sid] = uint16(gid)
			}
		}
	}
	f.mu.Unlock()

	for sid := 0; sid < len(cffStandardStrings); sid++ {
		if cffStandardStrings[sid] == name {
			if gid, ok := f.sidToGID[uint16(sid)]; ok {
				return gid
			}
			return 0
		}
	}
	for i := 0; i < f.strings.Len(); i++ {
		if string(f.strings.Get(uint16(i))) == name {
			if gid, ok := f.sidToGID[uint16(i+len(cffStandardStrings))]; ok {
				return gid
			}
			return 0
		}
	}
	return 0
}

// HasGlyph returns true when the font has a glyph with the given name.
func (f *CFFFont) HasGlyph(name string) bool {
	if name == ".notdef" {
		return true
	}
	return f.NameToGID(name) != 0
}

// CodeToGID returns the glyph ID for a character code through the font's
// built-in encoding.
func (f *CFFFont) CodeToGID(code byte) uint16 {
	if f.encoding == nil {
		return 0
	}
	return f.encoding[code]
}

////////////////////////////////////////////////////////////////

// cffINDEX is the CFF INDEX structure: count, offset size, count+1 offsets,
// and the packed object data. Offsets are stored unbiased (the format biases
// them by one).
type cffINDEX struct {
	offset []uint32
	data   []byte
}

func (t *cffINDEX) Len() int {
	if len(t.offset) == 0 {
		return 0
	}
	return len(t.offset) - 1
}

func (t *cffINDEX) Get(i uint16) []byte {
	if int(i) < t.Len() {
		return t.data[t.offset[i]:t.offset[i+1]:t.offset[i+1]]
	}
	return nil
}

// GetSID resolves a SID through the standard strings and this String INDEX.
func (t *cffINDEX) GetSID(sid int) string {
	if sid < 0 {
		return ""
	} else if sid < len(cffStandardStrings) {
		return cffStandardStrings[sid]
	}
	sid -= len(cffStandardStrings)
	if sid < t.Len() {
		return string(t.Get(uint16(sid)))
	}
	return ""
}

// Add appends an object and returns its index.
func (t *cffINDEX) Add(data []byte) int {
	if len(t.offset) == 0 {
		t.offset = []uint32{0}
	}
	t.data = append(t.data, data...)
	t.offset = append(t.offset, uint32(len(t.data)))
	return len(t.offset) - 2
}

// AddSID appends a string and returns its SID.
func (t *cffINDEX) AddSID(data []byte) int {
	for sid, s := range cffStandardStrings {
		if s == string(data) {
			return sid
		}
	}
	for i := 0; i < t.Len(); i++ {
		if string(t.Get(uint16(i))) == string(data) {
			return i + len(cffStandardStrings)
		}
	}
	return t.Add(data) + len(cffStandardStrings)
}

func parseINDEX(r *binaryReader) (*cffINDEX, error) {
	t := &cffINDEX{}
	if r.Len() < 2 {
		return nil, fmt.Errorf("bad INDEX")
	}
	count := uint32(r.ReadUint16())
	if count == 0 {
		// empty INDEX is two count bytes without offSize
		return t, nil
	} else if 1e6 < count {
		return nil, fmt.Errorf("too big")
	}

	offSize := r.ReadUint8()
	if offSize == 0 || 4 < offSize {
		return nil, fmt.Errorf("bad offSize")
	}
	if r.Len() < uint32(offSize)*(count+1) {
		return nil, fmt.Errorf("bad data")
	}

	t.offset = make([]uint32, count+1)
	for i := uint32(0); i < count+1; i++ {
		offset := r.ReadUintN(int(offSize))
		if offset == 0 {
			return nil, fmt.Errorf("bad offsets")
		}
		t.offset[i] = offset - 1
	}
	for i := uint32(0); i < count; i++ {
		if t.offset[i+1] < t.offset[i] {
			return nil, fmt.Errorf("bad offsets")
		}
	}
	if r.Len() < t.offset[count] {
		return nil, fmt.Errorf("bad data")
	}
	t.data = r.ReadBytes(t.offset[count])
	return t, nil
}

func cffINDEXOffSize(n int) int {
	if n <= math.MaxUint8 {
		return 1
	} else if n <= math.MaxUint16 {
		return 2
	} else if n <= 1<<24-1 {
		return 3
	}
	return 4
}

func (t *cffINDEX) Write() ([]byte, error) {
	if math.MaxUint16 < t.Len() {
		return nil, fmt.Errorf("too many indices")
	} else if t.Len() == 0 {
		return []byte{0, 0}, nil // zero count
	} else if t.offset[0] != 0 || int(t.offset[len(t.offset)-1]) != len(t.data) {
		return nil, fmt.Errorf("bad offsets")
	}

	offSize := cffINDEXOffSize(len(t.data) + 1)
	w := newBinaryWriter(make([]byte, 0, 3+len(t.data)+offSize*len(t.offset)))
	w.WriteUint16(uint16(t.Len()))
	w.WriteUint8(uint8(offSize))
	for _, offset := range t.offset {
		w.WriteUintN(offset+1, offSize)
	}
	w.WriteBytes(t.data)
	return w.Bytes(), nil
}

////////////////////////////////////////////////////////////////

type cffTopDICT struct {
	IsSynthetic   bool
	IsCID         bool
	HasFontMatrix bool

	Version            string
	Notice             string
	Copyright          string
	FullName           string
	FamilyName         string
	Weight             string
	IsFixedPitch       bool
	ItalicAngle        float64
	UnderlinePosition  float64
	UnderlineThickness float64
	PaintType          int
	CharstringType     int
	FontMatrix         [6]float64
	UniqueID           int
	FontBBox           [4]float64
	StrokeWidth        float64
	XUID               []int
	Charset            int
	Encoding           int
	CharStrings        int
	PrivateOffset      int
	PrivateLength      int
	SyntheticBase      int
	PostScript         string
	BaseFontName       string
	BaseFontBlend      []int
	ROS1               string
	ROS2               string
	ROS3               int
	CIDFontVersion     int
	CIDFontRevision    int
	CIDFontType        int
	CIDCount           int
	UIDBase            int
	FDArray            int
	FDSelect           int
	FontName           string
}

func parseTopDICT(b []byte, stringINDEX *cffINDEX) (*cffTopDICT, error) {
	dict := &cffTopDICT{
		UnderlinePosition:  -100.0,
		UnderlineThickness: 50.0,
		CharstringType:     2,
		FontMatrix:         [6]float64{0.001, 0.0, 0.0, 0.001, 0.0, 0.0},
		CIDCount:           8720,
	}
	err := parseDICT(b, func(b0 int, is []int, fs []float64) bool {
		switch b0 {
		case 0:
			dict.Version = stringINDEX.GetSID(is[0])
		case 1:
			dict.Notice = stringINDEX.GetSID(is[0])
		case 256 + 0:
			dict.Copyright = stringINDEX.GetSID(is[0])
		case 2:
			dict.FullName = stringINDEX.GetSID(is[0])
		case 3:
			dict.FamilyName = stringINDEX.GetSID(is[0])
		case 4:
			dict.Weight = stringINDEX.GetSID(is[0])
		case 256 + 1:
			dict.IsFixedPitch = is[0] != 0
		case 256 + 2:
			dict.ItalicAngle = fs[0]
		case 256 + 3:
			dict.UnderlinePosition = fs[0]
		case 256 + 4:
			dict.UnderlineThickness = fs[0]
		case 256 + 5:
			dict.PaintType = is[0]
		case 256 + 6:
			dict.CharstringType = is[0]
		case 256 + 7:
			dict.HasFontMatrix = true
			copy(dict.FontMatrix[:], fs)
		case 13:
			dict.UniqueID = is[0]
		case 5:
			copy(dict.FontBBox[:], fs)
		case 256 + 8:
			dict.StrokeWidth = fs[0]
		case 14:
			dict.XUID = is
		case 15:
			dict.Charset = is[0]
		case 16:
			dict.Encoding = is[0]
		case 17:
			dict.CharStrings = is[0]
		case 18:
			dict.PrivateOffset = is[1]
			dict.PrivateLength = is[0]
		case 256 + 20:
			dict.IsSynthetic = true
			dict.SyntheticBase = is[0]
		case 256 + 21:
			dict.PostScript = stringINDEX.GetSID(is[0])
		case 256 + 22:
			dict.BaseFontName = stringINDEX.GetSID(is[0])
		case 256 + 23:
			dict.BaseFontBlend = is
		case 256 + 30:
			dict.IsCID = true
			dict.ROS1 = stringINDEX.GetSID(is[0])
			dict.ROS2 = stringINDEX.GetSID(is[1])
			dict.ROS3 = is[2]
		case 256 + 31:
			dict.CIDFontVersion = is[0]
		case 256 + 32:
			dict.CIDFontRevision = is[0]
		case 256 + 33:
			dict.CIDFontType = is[0]
		case 256 + 34:
			dict.CIDCount = is[0]
		case 256 + 35:
			dict.UIDBase = is[0]
		case 256 + 36:
			dict.FDArray = is[0]
		case 256 + 37:
			dict.FDSelect = is[0]
		case 256 + 38:
			dict.FontName = stringINDEX.GetSID(is[0])
		default:
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return dict, nil
}

type cffFontDICT struct {
	FontMatrix    *[6]float64
	FontName      string
	PrivateOffset int
	PrivateLength int
}

func parseFontDICT(b []byte, stringINDEX *cffINDEX) (*cffFontDICT, error) {
	dict := &cffFontDICT{}
	return dict, parseDICT(b, func(b0 int, is []int, fs []float64) bool {
		switch b0 {
		case 18:
			dict.PrivateOffset = is[1]
			dict.PrivateLength = is[0]
		case 256 + 7:
			m := [6]float64{}
			copy(m[:], fs)
			dict.FontMatrix = &m
		case 256 + 38:
			dict.FontName = stringINDEX.GetSID(is[0])
		default:
			return false
		}
		return true
	})
}

type cffPrivateDICT struct {
	BlueValues        []float64
	OtherBlues        []float64
	FamilyBlues       []float64
	FamilyOtherBlues  []float64
	BlueScale         float64
	BlueShift         float64
	BlueFuzz          float64
	StdHW             float64
	StdVW             float64
	StemSnapH         []float64
	StemSnapV         []float64
	ForceBold         bool
	LanguageGroup     int
	ExpansionFactor   float64
	InitialRandomSeed int
	Subrs             int
	DefaultWidthX     float64
	NominalWidthX     float64
}

func parsePrivateDICT(b []byte) (*cffPrivateDICT, error) {
	dict := &cffPrivateDICT{
		BlueScale:       0.039625,
		BlueShift:       7.0,
		BlueFuzz:        1.0,
		ExpansionFactor: 0.06,
	}
	return dict, parseDICT(b, func(b0 int, is []int, fs []float64) bool {
		switch b0 {
		case 6:
			dict.BlueValues = fs
		case 7:
			dict.OtherBlues = fs
		case 8:
			dict.FamilyBlues = fs
		case 9:
			dict.FamilyOtherBlues = fs
		case 256 + 9:
			dict.BlueScale = fs[0]
		case 256 + 10:
			dict.BlueShift = fs[0]
		case 256 + 11:
			dict.BlueFuzz = fs[0]
		case 10:
			dict.StdHW = fs[0]
		case 11:
			dict.StdVW = fs[0]
		case 256 + 12:
			dict.StemSnapH = fs
		case 256 + 13:
			dict.StemSnapV = fs
		case 256 + 14:
			dict.ForceBold = is[0] != 0
		case 256 + 17:
			dict.LanguageGroup = is[0]
		case 256 + 18:
			dict.ExpansionFactor = fs[0]
		case 256 + 19:
			dict.InitialRandomSeed = is[0]
		case 19:
			dict.Subrs = is[0]
		case 20:
			dict.DefaultWidthX = fs[0]
		case 21:
			dict.NominalWidthX = fs[0]
		default:
			return false
		}
		return true
	})
}

////////////////////////////////////////////////////////////////

// parseDICT decodes the alternating operand/operator stream of a DICT. The
// callback receives the operator (256+x for the escaped operator space) and
// its operands both as integers and as floats.
func parseDICT(b []byte, callback func(b0 int, is []int, fs []float64) bool) error {
	// number of operands per operator, -1 accepts all accumulated operands
	opSize := map[int]int{
		256 + 7:  6,
		5:        4,
		14:       -1,
		18:       2,
		256 + 23: -1,
		256 + 30: 3,
		6:        -1,
		7:        -1,
		8:        -1,
		9:        -1,
		256 + 12: -1,
		256 + 13: -1,
	}

	r := newBinaryReader(b)
	ints := []int{}
	reals := []float64{}
	for 0 < r.Len() {
		b0 := int(r.ReadUint8())
		if b0 < 22 {
			// operator
			if b0 == 12 {
				b0 = 256 + int(r.ReadUint8())
			}

			size := 1
			if s, ok := opSize[b0]; ok {
				if s == -1 {
					size = len(ints)
				} else {
					size = s
				}
			}
			if len(ints) < size {
				return fmt.Errorf("too few operands for operator")
			}

			is := ints[len(ints)-size:]
			fs := reals[len(reals)-size:]
			ints = ints[:len(ints)-size]
			reals = reals[:len(reals)-size]

			if ok := callback(b0, is, fs); !ok {
				return fmt.Errorf("bad operator")
			}
		} else if 22 <= b0 && b0 < 28 || b0 == 31 || b0 == 255 {
			// reserved
		} else {
			if 48 <= len(ints) {
				return fmt.Errorf("too many operands for operator")
			}
			i, f := parseDICTNumber(b0, r)
			if math.IsNaN(f) {
				f = float64(i)
			} else {
				i = int(f + math.Copysign(0.5, f))
			}
			ints = append(ints, i)
			reals = append(reals, f)
		}
	}
	return nil
}

func parseDICTNumber(b0 int, r *binaryReader) (int, float64) {
	if b0 == 28 {
		return int(r.ReadInt16()), math.NaN()
	} else if b0 == 29 {
		return int(r.ReadInt32()), math.NaN()
	} else if b0 == 30 {
		return 0, parseDICTReal(r)
	} else if 32 <= b0 && b0 < 247 {
		return b0 - 139, math.NaN()
	} else if 247 <= b0 && b0 < 251 {
		b1 := int(r.ReadUint8())
		return (b0-247)*256 + b1 + 108, math.NaN()
	} else if 251 <= b0 && b0 < 255 {
		b1 := int(r.ReadUint8())
		return -(b0-251)*256 - b1 - 108, math.NaN()
	}
	// reserved
	return 0, math.NaN()
}

// parseDICTReal decodes the packed BCD real number encoding: a nibble stream
// with 0xA the decimal point, 0xB/0xC the exponent markers, 0xE the minus
// sign, terminated by 0xF. Broken fonts get two leniencies: a missing
// mantissa after the exponent marker reads as zero, and a trailing bare minus
// sign is dropped.
func parseDICTReal(r *binaryReader) float64 {
	num := []byte{}
	for !r.EOF() {
		b := r.ReadUint8()
		for i := 0; i < 2; i++ {
			switch b >> 4 {
			case 0x0A:
				num = append(num, '.')
			case 0x0B:
				num = append(num, 'E')
			case 0x0C:
				num = append(num, 'E', '-')
			case 0x0D:
				// reserved
			case 0x0E:
				num = append(num, '-')
			case 0x0F:
				if 0 < len(num) && num[len(num)-1] == 'E' || 1 < len(num) && num[len(num)-2] == 'E' && num[len(num)-1] == '-' {
					num = append(num, '0')
				}
				if 0 < len(num) && num[len(num)-1] == '-' {
					num = num[:len(num)-1]
				}
				f, err := strconv.ParseFloat(string(num), 64)
				if err != nil {
					return math.NaN()
				}
				return f
			default:
				num = append(num, '0'+byte(b>>4))
			}
			b = b << 4
		}
	}
	return math.NaN()
}

// writeDICTInteger encodes an integer operand in its shortest DICT form.
func writeDICTInteger(w *binaryWriter, v int) {
	if -107 <= v && v <= 107 {
		w.WriteUint8(uint8(v + 139))
	} else if 108 <= v && v <= 1131 {
		v -= 108
		w.WriteUint8(uint8(v/256 + 247))
		w.WriteUint8(uint8(v % 256))
	} else if -1131 <= v && v <= -108 {
		v = -v - 108
		w.WriteUint8(uint8(v/256 + 251))
		w.WriteUint8(uint8(v % 256))
	} else if math.MinInt16 <= v && v <= math.MaxInt16 {
		w.WriteUint8(28)
		w.WriteInt16(int16(v))
	} else {
		w.WriteUint8(29)
		w.WriteInt32(int32(v))
	}
}

// writeDICTReal encodes a real operand in the packed BCD form.
func writeDICTReal(w *binaryWriter, f float64) {
	s := strconv.FormatFloat(f, 'G', -1, 64)
	w.WriteUint8(30)
	nibbles := []uint8{}
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case '0' <= c && c <= '9':
			nibbles = append(nibbles, c-'0')
		case c == '.':
			nibbles = append(nibbles, 0x0A)
		case c == 'E':
			if i+1 < len(s) && s[i+1] == '-' {
				nibbles = append(nibbles, 0x0C)
				i++
			} else {
				nibbles = append(nibbles, 0x0B)
				if i+1 < len(s) && s[i+1] == '+' {
					i++
				}
			}
		case c == '-':
			nibbles = append(nibbles, 0x0E)
		}
	}
	nibbles = append(nibbles, 0x0F)
	if len(nibbles)%2 == 1 {
		nibbles = append(nibbles, 0x0F)
	}
	for i := 0; i < len(nibbles); i += 2 {
		w.WriteUint8(nibbles[i]<<4 | nibbles[i+1])
	}
}

////////////////////////////////////////////////////////////////

// cffFontINDEX unifies the single Private DICT of a Type1-flavored font and
// the FDArray/FDSelect indirection of a CID-keyed font: glyph ranges map to a
// subfont holding a Private DICT and Local Subrs.
type cffFontINDEX struct {
	private    []*cffPrivateDICT
	localSubrs []*cffINDEX
	fontMatrix []*[6]float64

	// either per-range or per-glyph
	first []uint32 // subsequent ranges of glyphs with same fd
	fd    []uint16
}

// Index returns the subfont index for a glyph.
func (t *cffFontINDEX) Index(glyphID uint16) (uint16, bool) {
	for i := 0; i < len(t.fd); i++ {
		if uint32(glyphID) < t.first[i+1] {
			if t.first[i] <= uint32(glyphID) {
				return t.fd[i], true
			}
			break
		}
	}
	return 0, false
}

func (t *cffFontINDEX) GetPrivate(glyphID uint16) (*cffPrivateDICT, error) {
	if i, ok := t.Index(glyphID); ok && int(i) < len(t.private) {
		return t.private[i], nil
	}
	return nil, fmt.Errorf("CFF: bad FDSelect for glyph %d", glyphID)
}

func (t *cffFontINDEX) GetLocalSubrs(glyphID uint16) *cffINDEX {
	if i, ok := t.Index(glyphID); ok && int(i) < len(t.localSubrs) {
		return t.localSubrs[i]
	}
	return &cffINDEX{}
}

func parseFontINDEX(b []byte, fdArray, fdSelect, nGlyphs int) (*cffFontINDEX, error) {
	if fdArray == 0 || len(b) <= fdArray {
		return nil, fmt.Errorf("bad FDArray offset")
	}
	r := newBinaryReader(b)
	r.Seek(uint32(fdArray))
	fontDICTs, err := parseINDEX(r)
	if err != nil {
		return nil, fmt.Errorf("FDArray INDEX: %w", err)
	}

	t := &cffFontINDEX{}
	for i := 0; i < fontDICTs.Len(); i++ {
		fontDICT, err := parseFontDICT(fontDICTs.Get(uint16(i)), &cffINDEX{})
		if err != nil {
			return nil, fmt.Errorf("Font DICT: %w", err)
		}

		private := &cffPrivateDICT{
			BlueScale:       0.039625,
			BlueShift:       7.0,
			BlueFuzz:        1.0,
			ExpansionFactor: 0.06,
		}
		localSubrs := &cffINDEX{}
		if fontDICT.PrivateLength != 0 {
			if len(b) < fontDICT.PrivateOffset+fontDICT.PrivateLength {
				return nil, fmt.Errorf("bad Private DICT offset")
			}
			if private, err = parsePrivateDICT(b[fontDICT.PrivateOffset : fontDICT.PrivateOffset+fontDICT.PrivateLength]); err != nil {
				return nil, fmt.Errorf("Private DICT: %w", err)
			}
			if private.Subrs != 0 {
				offset := fontDICT.PrivateOffset + private.Subrs
				if len(b) <= offset {
					return nil, fmt.Errorf("bad Local Subrs offset")
				}
				rs := newBinaryReader(b)
				rs.Seek(uint32(offset))
				if localSubrs, err = parseINDEX(rs); err != nil {
					return nil, fmt.Errorf("Local Subrs INDEX: %w", err)
				}
			}
		}
		t.private = append(t.private, private)
		t.localSubrs = append(t.localSubrs, localSubrs)
		t.fontMatrix = append(t.fontMatrix, fontDICT.FontMatrix)
	}

	if fdSelect == 0 || len(b) <= fdSelect {
		return nil, fmt.Errorf("bad FDSelect offset")
	}
	r.Seek(uint32(fdSelect))
	switch format := r.ReadUint8(); format {
	case 0:
		if r.Len() < uint32(nGlyphs) {
			return nil, fmt.Errorf("bad FDSelect")
		}
		t.first = make([]uint32, nGlyphs+1)
		t.fd = make([]uint16, nGlyphs)
		for i := 0; i < nGlyphs; i++ {
			t.first[i] = uint32(i)
			t.fd[i] = uint16(r.ReadUint8())
		}
		t.first[nGlyphs] = uint32(nGlyphs)
	case 3:
		nRanges := int(r.ReadUint16())
		if nRanges == 0 || r.Len() < uint32(nRanges)*3+2 {
			return nil, fmt.Errorf("bad FDSelect")
		}
		t.first = make([]uint32, nRanges+1)
		t.fd = make([]uint16, nRanges)
		for i := 0; i < nRanges; i++ {
			t.first[i] = uint32(r.ReadUint16())
			t.fd[i] = uint16(r.ReadUint8())
		}
		t.first[nRanges] = uint32(r.ReadUint16()) // sentinel
	default:
		return nil, fmt.Errorf("bad FDSelect format %d", format)
	}

	for _, fd := range t.fd {
		if len(t.private) <= int(fd) {
			return nil, fmt.Errorf("bad FDSelect")
		}
	}
	return t, nil
}

////////////////////////////////////////////////////////////////

func identityCharset(nGlyphs int) []uint16 {
	charset := make([]uint16, nGlyphs)
	for i := range charset {
		charset[i] = uint16(i)
	}
	return charset
}

// parseCharset reads the GID-to-SID (or GID-to-CID) mapping. Values 0, 1,
// and 2 of the charset operator select the predefined ISOAdobe, Expert, and
// ExpertSubset charsets; any other value is an offset to an embedded table.
func parseCharset(b []byte, offset, nGlyphs int, isCID bool) ([]uint16, error) {
	if offset == 0 || offset == 1 || offset == 2 {
		if isCID {
			// predefined charsets are not defined for CID-keyed fonts
			return identityCharset(nGlyphs), nil
		}
		var predefined []uint16
		switch offset {
		case 0:
			predefined = cffISOAdobeCharset
		case 1:
			predefined = cffExpertCharset
		case 2:
			predefined = cffExpertSubsetCharset
		}
		charset := make([]uint16, nGlyphs)
		for i := 0; i < nGlyphs; i++ {
			if i < len(predefined) {
				charset[i] = predefined[i]
			} else {
				charset[i] = uint16(i)
			}
		}
		return charset, nil
	}

	if len(b) <= offset {
		return nil, fmt.Errorf("bad offset")
	}
	r := newBinaryReader(b)
	r.Seek(uint32(offset))

	charset := make([]uint16, nGlyphs)
	switch format := r.ReadUint8(); format {
	case 0:
		if r.Len() < 2*uint32(nGlyphs-1) {
			return nil, fmt.Errorf("bad data")
		}
		for i := 1; i < nGlyphs; i++ {
			charset[i] = r.ReadUint16()
		}
	case 1, 2:
		gid := 1
		for gid < nGlyphs {
			first := r.ReadUint16()
			var nLeft int
			if format == 1 {
				nLeft = int(r.ReadUint8())
			} else {
				nLeft = int(r.ReadUint16())
			}
			if r.EOF() {
				return nil, fmt.Errorf("bad data")
			}
			for i := 0; i <= nLeft && gid < nGlyphs; i++ {
				charset[gid] = first + uint16(i)
				gid++
			}
		}
	default:
		return nil, fmt.Errorf("bad format %d", format)
	}
	return charset, nil
}

// parseEncoding reads the code-to-GID mapping of a Type1-flavored font.
// Values 0 and 1 of the Encoding operator select the predefined Standard and
// Expert encodings, resolved through the charset; any other value is an
// offset to an embedded table. The high bit of an embedded table's format
// byte flags a supplement list of explicit (code, SID) overrides.
func parseEncoding(b []byte, offset int, charset []uint16) ([]uint16, error) {
	encoding := make([]uint16, 256)
	sidToGID := map[uint16]uint16{}
	for gid := len(charset) - 1; 0 <= gid; gid-- {
		sidToGID[charset[gid]] = uint16(gid)
	}

	if offset == 0 || offset == 1 {
		var predefined *[256]uint16
		if offset == 0 {
			predefined = &cffStandardEncoding
		} else {
			predefined = &cffExpertEncoding
		}
		for code, sid := range predefined {
			if gid, ok := sidToGID[sid]; ok && sid != 0 {
				encoding[code] = gid
			}
		}
		return encoding, nil
	}

	if len(b) <= offset {
		return nil, fmt.Errorf("bad offset")
	}
	r := newBinaryReader(b)
	r.Seek(uint32(offset))

	format := r.ReadUint8()
	switch format & 0x7F {
	case 0:
		nCodes := int(r.ReadUint8())
		if r.Len() < uint32(nCodes) {
			return nil, fmt.Errorf("bad data")
		}
		for i := 1; i <= nCodes && i < len(charset); i++ {
			code := r.ReadUint8()
			encoding[code] = uint16(i)
		}
	case 1:
		nRanges := int(r.ReadUint8())
		if r.Len() < 2*uint32(nRanges) {
			return nil, fmt.Errorf("bad data")
		}
		gid := 1
		for i := 0; i < nRanges; i++ {
			first := int(r.ReadUint8())
			nLeft := int(r.ReadUint8())
			for j := 0; j <= nLeft && gid < len(charset); j++ {
				if first+j < 256 {
					encoding[first+j] = uint16(gid)
				}
				gid++
			}
		}
	default:
		return nil, fmt.Errorf("bad format %d", format&0x7F)
	}

	if format&0x80 != 0 {
		nSups := int(r.ReadUint8())
		if r.Len() < 3*uint32(nSups) {
			return nil, fmt.Errorf("bad data")
		}
		for i := 0; i < nSups; i++ {
			code := r.ReadUint8()
			sid := r.ReadUint16()
			if gid, ok := sidToGID[sid]; ok {
				encoding[code] = gid
			}
		}
	}
	return encoding, nil
}
