package font

import (
	"encoding/binary"
	"sort"
	"time"
)

// Subset trims the font to the given glyph IDs. The set is transitively
// closed over composite glyph references and the glyphs are renumbered
// sequentially in ascending order of old glyph ID, with .notdef staying at
// glyph ID 0. The glyf, loca, cmap, post, hmtx, and bookkeeping tables are
// rebuilt for the new numbering; loca is always written in the long (32-bit)
// format. keepTables names auxiliary tables to copy verbatim in addition to
// cvt, fpgm, and prep. It returns the subsetted font program and the old
// glyph IDs in new glyph ID order.
func (sfnt *SFNT) Subset(glyphIDs []uint16, keepTables []string) ([]byte, []uint16) {
	if sfnt.IsCFF {
		// CFF subsetting not supported
		return sfnt.Data, glyphIDs
	}

	glyphSet := map[uint16]bool{0: true}
	for _, glyphID := range glyphIDs {
		if glyphID < sfnt.Maxp.NumGlyphs {
			glyphSet[glyphID] = true
		}
	}

	// composite glyphs pull in their components, which may themselves be
	// composite, so repeat until the set settles
	for {
		var added []uint16
		for glyphID := range glyphSet {
			b := sfnt.Glyf.Get(glyphID)
			if len(b) < 10 || 0 <= int16(binary.BigEndian.Uint16(b)) {
				continue
			}
			pos := uint32(10)
			for pos+4 <= uint32(len(b)) {
				flags := binary.BigEndian.Uint16(b[pos:])
				subGlyphID := binary.BigEndian.Uint16(b[pos+2:])
				if !glyphSet[subGlyphID] {
					added = append(added, subGlyphID)
				}
				length, more := glyfCompositeLength(flags)
				if !more {
					break
				}
				pos += length
			}
		}
		if len(added) == 0 {
			break
		}
		for _, glyphID := range added {
			glyphSet[glyphID] = true
		}
	}

	glyphIDs = make([]uint16, 0, len(glyphSet))
	for glyphID := range glyphSet {
		glyphIDs = append(glyphIDs, glyphID)
	}
	sort.Slice(glyphIDs, func(i, j int) bool { return glyphIDs[i] < glyphIDs[j] })

	glyphMap := make(map[uint16]uint16, len(glyphIDs))
	for newGlyphID, oldGlyphID := range glyphIDs {
		glyphMap[oldGlyphID] = uint16(newGlyphID)
	}
	numGlyphs := uint16(len(glyphIDs))

	// trailing glyphs with equal advance widths are covered by the last
	// hMetric, relative to the new glyph order
	numberOfHMetrics := numGlyphs
	for 1 < numberOfHMetrics && sfnt.Hmtx.Advance(glyphIDs[numberOfHMetrics-1]) == sfnt.Hmtx.Advance(glyphIDs[numberOfHMetrics-2]) {
		numberOfHMetrics--
	}

	tagSet := map[string]bool{"glyf": true, "head": true, "hhea": true, "hmtx": true, "loca": true, "maxp": true}
	for _, tag := range []string{"cmap", "name", "OS/2", "post"} {
		if _, ok := sfnt.Tables[tag]; ok {
			tagSet[tag] = true
		}
	}
	if sfnt.Kern != nil {
		tagSet["kern"] = true
	}
	for _, tag := range append([]string{"cvt ", "fpgm", "prep"}, keepTables...) {
		if _, ok := sfnt.Tables[tag]; ok {
			tagSet[tag] = true
		}
	}
	tags := make([]string, 0, len(tagSet))
	for tag := range tagSet {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	numTables := uint16(len(tags))
	entrySelector := uint16(0)
	for 1<<(entrySelector+1) <= numTables {
		entrySelector++
	}
	searchRange := uint16(1<<entrySelector) * 16

	w := newBinaryWriter([]byte{})
	w.WriteUint32(0x00010000) // sfntVersion
	w.WriteUint16(numTables)
	w.WriteUint16(searchRange)
	w.WriteUint16(entrySelector)
	w.WriteUint16(numTables*16 - searchRange) // rangeShift

	// table records are patched after the tables are written
	for range tags {
		w.WriteUint64(0)
		w.WriteUint64(0)
	}

	var checksumAdjustmentPos uint32
	glyfOffsets := make([]uint32, 1, numGlyphs+1)
	offsets := make([]uint32, numTables)
	lengths := make([]uint32, numTables)
	for i, tag := range tags {
		offsets[i] = w.Len()
		switch tag {
		case "glyf":
			start := w.Len()
			for _, glyphID := range glyphIDs {
				b := sfnt.Glyf.Get(glyphID)
				if 10 <= len(b) && int16(binary.BigEndian.Uint16(b)) < 0 {
					// composite glyph, renumber the component glyph IDs
					b = append([]byte{}, b...)
					pos := uint32(10)
					for pos+4 <= uint32(len(b)) {
						flags := binary.BigEndian.Uint16(b[pos:])
						subGlyphID := binary.BigEndian.Uint16(b[pos+2:])
						binary.BigEndian.PutUint16(b[pos+2:], glyphMap[subGlyphID])
						length, more := glyfCompositeLength(flags)
						if !more {
							break
						}
						pos += length
					}
				}
				w.WriteBytes(b)
				// pad each glyph to four bytes so that the table length and
				// all loca offsets stay aligned
				for (w.Len()-start)%4 != 0 {
					w.WriteByte(0)
				}
				glyfOffsets = append(glyfOffsets, w.Len()-start)
			}
		case "head":
			head := append([]byte{}, sfnt.Tables["head"]...)
			checksumAdjustmentPos = w.Len() + 8
			binary.BigEndian.PutUint32(head[8:], 0) // checksumAdjustment
			modified := uint64(time.Now().UTC().Sub(time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)) / time.Second)
			binary.BigEndian.PutUint64(head[28:], modified)
			binary.BigEndian.PutUint16(head[50:], 1) // indexToLocFormat, always long
			w.WriteBytes(head)
		case "hhea":
			hhea := append([]byte{}, sfnt.Tables["hhea"]...)
			binary.BigEndian.PutUint16(hhea[34:], numberOfHMetrics)
			w.WriteBytes(hhea)
		case "hmtx":
			for j, glyphID := range glyphIDs {
				if uint16(j) < numberOfHMetrics {
					w.WriteUint16(sfnt.Hmtx.Advance(glyphID))
				}
				w.WriteInt16(sfnt.Hmtx.LeftSideBearing(glyphID))
			}
		case "loca":
			for _, offset := range glyfOffsets {
				w.WriteUint32(offset)
			}
		case "maxp":
			maxp := append([]byte{}, sfnt.Tables["maxp"]...)
			binary.BigEndian.PutUint16(maxp[4:], numGlyphs)
			w.WriteBytes(maxp)
		case "cmap":
			sfnt.writeCmapSubset(w, glyphIDs, glyphMap)
		case "OS/2":
			sfnt.writeOS2Subset(w, glyphIDs)
		case "post":
			sfnt.writePostSubset(w, glyphIDs)
		case "kern":
			sfnt.writeKernSubset(w, glyphMap)
		default:
			w.WriteBytes(sfnt.Tables[tag])
		}
		lengths[i] = w.Len() - offsets[i]
		for w.Len()%4 != 0 {
			w.WriteByte(0)
		}
	}

	buf := w.Bytes()
	for i, tag := range tags {
		pos := 12 + 16*i
		copy(buf[pos:], tag)
		end := offsets[i] + lengths[i] + (4-lengths[i]&3)&3
		binary.BigEndian.PutUint32(buf[pos+4:], calcChecksum(buf[offsets[i]:end]))
		binary.BigEndian.PutUint32(buf[pos+8:], offsets[i])
		binary.BigEndian.PutUint32(buf[pos+12:], lengths[i])
	}
	binary.BigEndian.PutUint32(buf[checksumAdjustmentPos:], 0xB1B0AFBA-calcChecksum(buf))
	return buf, glyphIDs
}

// writeOS2Subset copies the OS/2 table with usFirstCharIndex and
// usLastCharIndex recomputed over the characters of the retained glyphs, in
// line with the cmap subtable written by writeCmapSubset.
func (sfnt *SFNT) writeOS2Subset(w *binaryWriter, glyphIDs []uint16) {
	b := sfnt.Tables["OS/2"]
	if len(b) < 68 {
		w.WriteBytes(b)
		return
	}
	first, last := uint16(0xFFFF), uint16(0)
	if sfnt.Cmap != nil {
		for _, glyphID := range glyphIDs[1:] {
			if r := sfnt.Cmap.ToUnicode(glyphID); 0 < r && r < 0xFFFF {
				if uint16(r) < first {
					first = uint16(r)
				}
				if last < uint16(r) {
					last = uint16(r)
				}
			}
		}
	}
	if last < first {
		first, last = 0, 0
	}
	b = append([]byte{}, b...)
	binary.BigEndian.PutUint16(b[64:], first)
	binary.BigEndian.PutUint16(b[66:], last)
	w.WriteBytes(b)
}

type cmapSegment struct {
	start, end uint16
	delta      uint16 // new glyph ID minus character code, modulo 65536
}

// writeCmapSubset writes a cmap table with a single format 4 subtable for the
// Unicode BMP, mapping the characters of the retained glyphs to their new
// glyph IDs.
func (sfnt *SFNT) writeCmapSubset(w *binaryWriter, glyphIDs []uint16, glyphMap map[uint16]uint16) {
	codeMap := map[uint16]uint16{}
	codes := []uint16{}
	for _, glyphID := range glyphIDs[1:] {
		r := sfnt.Cmap.ToUnicode(glyphID)
		if 0 < r && r < 0xFFFF {
			if _, ok := codeMap[uint16(r)]; !ok {
				codeMap[uint16(r)] = glyphMap[glyphID]
				codes = append(codes, uint16(r))
			}
		}
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	// consecutive character codes mapping to consecutive glyph IDs share a
	// segment with idRangeOffset zero
	segments := []cmapSegment{}
	for i, code := range codes {
		delta := codeMap[code] - code
		if 0 < i && codes[i-1]+1 == code && segments[len(segments)-1].delta == delta {
			segments[len(segments)-1].end = code
		} else {
			segments = append(segments, cmapSegment{code, code, delta})
		}
	}
	segments = append(segments, cmapSegment{0xFFFF, 0xFFFF, 1}) // end-of-table segment
	segCount := uint16(len(segments))

	w.WriteUint16(0) // version
	w.WriteUint16(1) // numTables
	w.WriteUint16(3) // platformID, Windows
	w.WriteUint16(1) // encodingID, Unicode BMP
	w.WriteUint32(12)

	entrySelector := uint16(0)
	for 1<<(entrySelector+1) <= segCount {
		entrySelector++
	}
	searchRange := uint16(1<<entrySelector) * 2

	w.WriteUint16(4) // format
	w.WriteUint16(16 + 8*segCount)
	w.WriteUint16(0) // language
	w.WriteUint16(2 * segCount)
	w.WriteUint16(searchRange)
	w.WriteUint16(entrySelector)
	w.WriteUint16(2*segCount - searchRange) // rangeShift
	for _, segment := range segments {
		w.WriteUint16(segment.end)
	}
	w.WriteUint16(0) // reservedPad
	for _, segment := range segments {
		w.WriteUint16(segment.start)
	}
	for _, segment := range segments {
		w.WriteUint16(segment.delta)
	}
	for range segments {
		w.WriteUint16(0) // idRangeOffset
	}
}

// writePostSubset writes the post table with the glyph names reindexed for
// the new glyph order. Versions other than 2.0 carry no per-glyph data and
// are copied verbatim.
func (sfnt *SFNT) writePostSubset(w *binaryWriter, glyphIDs []uint16) {
	b := sfnt.Tables["post"]
	if binary.BigEndian.Uint32(b) != 0x00020000 || sfnt.Post == nil {
		w.WriteBytes(b)
		return
	}

	w.WriteBytes(b[:32])
	w.WriteUint16(uint16(len(glyphIDs)))
	var names []string
	for _, glyphID := range glyphIDs {
		index := uint16(0)
		if int(glyphID) < len(sfnt.Post.GlyphNameIndex) {
			index = sfnt.Post.GlyphNameIndex[glyphID]
		}
		if 258 <= index {
			index = uint16(258 + len(names))
			names = append(names, sfnt.Post.Get(glyphID))
		}
		w.WriteUint16(index)
	}
	for _, name := range names {
		if 255 < len(name) {
			name = name[:255]
		}
		w.WriteByte(byte(len(name)))
		w.WriteString(name)
	}
}

// writeKernSubset writes a kern table with a single format 0 subtable holding
// the horizontal kerning pairs of which both glyphs are retained.
func (sfnt *SFNT) writeKernSubset(w *binaryWriter, glyphMap map[uint16]uint16) {
	pairs := []kernPair{}
	for _, subtable := range sfnt.Kern.Subtables {
		if !subtable.Coverage[0] || subtable.Coverage[1] {
			continue // only horizontal kerning values
		}
		for _, pair := range subtable.Pairs {
			l, ok := glyphMap[uint16(pair.Key>>16)]
			r, ok2 := glyphMap[uint16(pair.Key&0xFFFF)]
			if ok && ok2 {
				pairs = append(pairs, kernPair{uint32(l)<<16 | uint32(r), pair.Value})
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })

	nPairs := uint16(len(pairs))
	entrySelector := uint16(0)
	for 1<<(entrySelector+1) <= nPairs {
		entrySelector++
	}
	searchRange := uint16(1<<entrySelector) * 6

	w.WriteUint16(0) // version
	w.WriteUint16(1) // nTables
	w.WriteUint16(0) // subtable version
	w.WriteUint16(14 + 6*nPairs)
	w.WriteUint8(0) // format
	w.WriteUint8(1) // coverage, horizontal kerning values
	w.WriteUint16(nPairs)
	w.WriteUint16(searchRange)
	w.WriteUint16(entrySelector)
	w.WriteUint16(6*nPairs - searchRange) // rangeShift
	for _, pair := range pairs {
		w.WriteUint32(pair.Key)
		w.WriteInt16(pair.Value)
	}
}
