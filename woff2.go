package font

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/dsnet/compress/brotli"
)

type woff2Table struct {
	tag              string
	origLength       uint32
	transformVersion int
	transformLength  uint32
}

var woff2TableTags = []string{
	"cmap", "head", "hhea", "hmtx",
	"maxp", "name", "OS/2", "post",
	"cvt ", "fpgm", "glyf", "loca",
	"prep", "CFF ", "VORG", "EBDT",
	"EBLC", "gasp", "hdmx", "kern",
	"LTSH", "PCLT", "VDMX", "vhea",
	"vmtx", "BASE", "GDEF", "GPOS",
	"GSUB", "EBSC", "JSTF", "MATH",
	"CBDT", "CBLC", "COLR", "CPAL",
	"SVG ", "sbix", "acnt", "avar",
	"bdat", "bloc", "bsln", "cvar",
	"fdsc", "feat", "fmtx", "fvar",
	"gvar", "hsty", "just", "lcar",
	"mort", "morx", "opbd", "prop",
	"trak", "Zapf", "Silf", "Glat",
	"Gloc", "Feat", "Sill",
}

// ParseWOFF2 parses the WOFF2 font format and returns its contained SFNT font
// format (TTF or OTF). Fonts with transformed glyf, loca, or hmtx tables are
// not supported.
// See https://www.w3.org/TR/WOFF2/
func ParseWOFF2(b []byte) ([]byte, error) {
	if len(b) < 48 {
		return nil, ErrInvalidFontData
	}

	r := newBinaryReader(b)
	signature := r.ReadString(4)
	if signature != "wOF2" {
		return nil, fmt.Errorf("bad signature")
	}
	flavor := r.ReadUint32()
	if uint32ToString(flavor) == "ttcf" {
		return nil, fmt.Errorf("collections are unsupported")
	}
	length := r.ReadUint32()
	numTables := r.ReadUint16()
	reserved := r.ReadUint16()
	_ = r.ReadUint32()                    // totalSfntSize
	totalCompressedSize := r.ReadUint32() // totalCompressedSize
	_ = r.ReadUint16()                    // majorVersion
	_ = r.ReadUint16()                    // minorVersion
	_ = r.ReadUint32()                    // metaOffset
	_ = r.ReadUint32()                    // metaLength
	_ = r.ReadUint32()                    // metaOrigLength
	_ = r.ReadUint32()                    // privOffset
	_ = r.ReadUint32()                    // privLength
	if length != uint32(len(b)) || numTables == 0 || reserved != 0 {
		return nil, ErrInvalidFontData
	}

	tables := []woff2Table{}
	sfntLength := 12 + 16*uint32(numTables) // can never exceed uint32 as numTables is uint16
	for i := 0; i < int(numTables); i++ {
		flags := r.ReadByte()
		tagIndex := int(flags & 0x3F)
		transformVersion := int(flags&0xC0) >> 6

		var tag string
		if tagIndex == 63 {
			tag = uint32ToString(r.ReadUint32())
		} else {
			tag = woff2TableTags[tagIndex]
		}
		origLength := r.ReadBase128()

		// glyf and loca are transformed unless the transform version is 3,
		// all other tables are transformed unless the version is 0
		isTransformed := transformVersion != 0
		if tag == "glyf" || tag == "loca" {
			isTransformed = transformVersion != 3
		}
		var transformLength uint32
		if isTransformed {
			transformLength = r.ReadBase128()
		}
		if r.EOF() {
			return nil, ErrInvalidFontData
		}
		if isTransformed {
			return nil, fmt.Errorf("%s: table transformation is not supported", tag)
		}

		tables = append(tables, woff2Table{
			tag:              tag,
			origLength:       origLength,
			transformVersion: transformVersion,
			transformLength:  transformLength,
		})

		origPadded := (origLength + 3) & 0xFFFFFFFC
		if math.MaxUint32-origPadded < sfntLength {
			return nil, ErrInvalidFontData
		}
		sfntLength += origPadded
	}

	compressed := r.ReadBytes(totalCompressedSize)
	if r.EOF() {
		return nil, ErrInvalidFontData
	}

	rBrotli, err := brotli.NewReader(bytes.NewReader(compressed), nil)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err = io.Copy(&buf, rBrotli); err != nil {
		return nil, err
	}
	if err = rBrotli.Close(); err != nil {
		return nil, err
	}
	data := buf.Bytes()

	var searchRange uint16 = 1
	var entrySelector uint16
	var rangeShift uint16
	for {
		if searchRange*2 > numTables {
			break
		}
		searchRange *= 2
		entrySelector++
	}
	searchRange *= 16
	rangeShift = numTables*16 - searchRange

	w := newBinaryWriter(make([]byte, 0, sfntLength))
	w.WriteUint32(flavor)
	w.WriteUint16(numTables)
	w.WriteUint16(searchRange)
	w.WriteUint16(entrySelector)
	w.WriteUint16(rangeShift)

	// the table records are patched with the checksums after the table data
	// is written, as WOFF2 does not transport them
	for range tables {
		w.WriteUint64(0)
		w.WriteUint64(0)
	}

	var iCheckSumAdjustment uint32
	offsets := make([]uint32, len(tables))
	var offset uint32
	for i, table := range tables {
		if uint32(len(data))-offset < table.origLength {
			return nil, ErrInvalidFontData
		}
		tableData := data[offset : offset+table.origLength : offset+table.origLength]
		offset += table.origLength

		offsets[i] = w.Len()
		if table.tag == "head" {
			if len(tableData) < 12 {
				return nil, ErrInvalidFontData
			}
			iCheckSumAdjustment = w.Len() + 8
		}
		w.WriteBytes(tableData)
		for w.Len()%4 != 0 {
			w.WriteByte(0)
		}
	}
	if w.Len() != sfntLength {
		return nil, ErrInvalidFontData
	}

	out := w.Bytes()
	if iCheckSumAdjustment != 0 {
		binary.BigEndian.PutUint32(out[iCheckSumAdjustment:], 0)
	}
	for i, table := range tables {
		pos := 12 + 16*i
		copy(out[pos:], table.tag)
		end := offsets[i] + (table.origLength+3)&0xFFFFFFFC
		binary.BigEndian.PutUint32(out[pos+4:], calcChecksum(out[offsets[i]:end]))
		binary.BigEndian.PutUint32(out[pos+8:], offsets[i])
		binary.BigEndian.PutUint32(out[pos+12:], table.origLength)
	}
	if iCheckSumAdjustment != 0 {
		binary.BigEndian.PutUint32(out[iCheckSumAdjustment:], 0xB1B0AFBA-calcChecksum(out))
	}
	return out, nil
}
