package font

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

type woffEntry struct {
	tag          string
	offset       uint32
	compLength   uint32
	origLength   uint32
	origChecksum uint32
}

// spanSet records byte ranges of a file to detect overlapping blocks.
type spanSet struct {
	offsets []uint32
	lengths []uint32
}

func (s *spanSet) add(offset, length uint32) {
	i := len(s.offsets)
	for 0 < i && offset < s.offsets[i-1] {
		i--
	}
	s.offsets = append(s.offsets, 0)
	s.lengths = append(s.lengths, 0)
	copy(s.offsets[i+1:], s.offsets[i:])
	copy(s.lengths[i+1:], s.lengths[i:])
	s.offsets[i] = offset
	s.lengths[i] = length
}

func (s *spanSet) overlaps() bool {
	for i := 1; i < len(s.offsets); i++ {
		if s.offsets[i] < s.offsets[i-1]+s.lengths[i-1] {
			return true
		}
	}
	return false
}

func inflateTable(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, zr); err != nil {
		return nil, err
	}
	if err := zr.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseWOFF decodes a WOFF file (https://www.w3.org/TR/WOFF/) and returns the
// SFNT data (TTF or OTF) it wraps.
func ParseWOFF(b []byte) ([]byte, error) {
	if len(b) < 44 {
		return nil, ErrInvalidFontData
	}

	r := newBinaryReader(b)
	if r.ReadString(4) != "wOFF" {
		return nil, fmt.Errorf("bad signature")
	}
	flavor := r.ReadUint32()
	if uint32ToString(flavor) == "ttcf" {
		return nil, fmt.Errorf("collections are unsupported")
	}
	length := r.ReadUint32()
	numTables := r.ReadUint16()
	reserved := r.ReadUint16()
	totalSfntSize := r.ReadUint32()
	_ = r.ReadUint32() // majorVersion, minorVersion
	metaOffset := r.ReadUint32()
	metaLength := r.ReadUint32()
	metaOrigLength := r.ReadUint32()
	privOffset := r.ReadUint32()
	privLength := r.ReadUint32()

	// the declared length must match the file size exactly and the header
	// plus table directory must leave room for table data
	dirEnd := 44 + 20*uint32(numTables) // numTables is uint16, cannot overflow
	if length != uint32(len(b)) || numTables == 0 || length <= dirEnd || reserved != 0 {
		return nil, ErrInvalidFontData
	}

	entries := make([]woffEntry, 0, numTables)
	spans := &spanSet{}
	spans.add(0, dirEnd)
	sfntOffset := 12 + 16*uint32(numTables)
	for i := 0; i < int(numTables); i++ {
		entry := woffEntry{
			tag:          uint32ToString(r.ReadUint32()),
			offset:       r.ReadUint32(),
			compLength:   r.ReadUint32(),
			origLength:   r.ReadUint32(),
			origChecksum: r.ReadUint32(),
		}
		// tables lie within the file, never grow when compressed, and are
		// sorted by tag
		if length-entry.compLength < entry.offset || entry.origLength < entry.compLength {
			return nil, ErrInvalidFontData
		} else if 0 < i && entry.tag < entries[i-1].tag {
			return nil, ErrInvalidFontData
		}
		padded := (entry.origLength + 3) &^ 3
		if math.MaxUint32-padded < sfntOffset {
			return nil, ErrInvalidFontData
		}
		sfntOffset += padded

		entries = append(entries, entry)
		spans.add(entry.offset, entry.compLength)
	}
	if totalSfntSize != sfntOffset {
		// totalSfntSize must equal sfnt header + table directory + padded tables
		return nil, ErrInvalidFontData
	}

	// the metadata and private blocks are optional but their offset and
	// length fields must agree, and no two blocks may overlap
	if (metaOffset == 0) != (metaLength == 0) || (metaOffset == 0) != (metaOrigLength == 0) {
		return nil, ErrInvalidFontData
	} else if metaOffset != 0 {
		spans.add(metaOffset, metaLength)
	}
	if (privOffset == 0) != (privLength == 0) {
		return nil, ErrInvalidFontData
	} else if privOffset != 0 {
		spans.add(privOffset, privLength)
	}
	if spans.overlaps() {
		return nil, ErrInvalidFontData
	}

	entrySelector := uint16(0)
	for 2<<entrySelector <= int(numTables) {
		entrySelector++
	}
	searchRange := uint16(16) << entrySelector
	rangeShift := numTables*16 - searchRange

	w := newBinaryWriter(make([]byte, totalSfntSize))
	w.WriteUint32(flavor)
	w.WriteUint16(numTables)
	w.WriteUint16(searchRange)
	w.WriteUint16(entrySelector)
	w.WriteUint16(rangeShift)

	offset := 12 + 16*uint32(numTables)
	for _, entry := range entries {
		w.WriteString(entry.tag)
		w.WriteUint32(entry.origChecksum)
		w.WriteUint32(offset)
		w.WriteUint32(entry.origLength)
		offset += (entry.origLength + 3) &^ 3
	}

	var checkSumAdjustment uint32
	var iCheckSumAdjustment uint32
	for _, entry := range entries {
		data := b[entry.offset : entry.offset+entry.compLength : entry.offset+entry.compLength]
		if entry.compLength != entry.origLength {
			var err error
			if data, err = inflateTable(data); err != nil {
				return nil, fmt.Errorf("%s: %v", entry.tag, err)
			}
		}
		if len(data) != int(entry.origLength) {
			return nil, ErrInvalidFontData
		}
		for len(data)&3 != 0 {
			data = append(data, 0x00)
		}

		if entry.tag == "head" {
			if len(data) < 12 {
				return nil, ErrInvalidFontData
			}
			// the head checksum is computed with checkSumAdjustment zeroed;
			// remember the value and its output position to restore below
			checkSumAdjustment = binary.BigEndian.Uint32(data[8:])
			iCheckSumAdjustment = w.Len() + 8
			binary.BigEndian.PutUint32(data[8:], 0x00000000)
		}
		if calcChecksum(data) != entry.origChecksum {
			return nil, fmt.Errorf("%s: bad checksum", entry.tag)
		}
		w.WriteBytes(data)
	}
	if w.Len() != totalSfntSize || iCheckSumAdjustment == 0 {
		return nil, ErrInvalidFontData
	}

	buf := w.Bytes()
	binary.BigEndian.PutUint32(buf[iCheckSumAdjustment:], checkSumAdjustment)
	return buf, nil
}
