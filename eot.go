package font

import (
	"fmt"
)

// ParseEOT decodes an Embedded OpenType file and returns the SFNT data (TTF
// or OTF) it wraps. See https://www.w3.org/Submission/EOT/
func ParseEOT(b []byte) ([]byte, error) {
	r := newBinaryReader(b)
	_ = r.ReadUint32LE() // eotSize
	fontDataSize := r.ReadUint32LE()
	version := r.ReadUint32LE()
	if version != 0x00010000 && version != 0x00020001 && version != 0x00020002 {
		return nil, fmt.Errorf("unsupported version")
	}
	flags := r.ReadUint32LE()
	_ = r.ReadBytes(10)  // panose
	_ = r.ReadBytes(2)   // charset, italic
	_ = r.ReadUint32LE() // weight
	_ = r.ReadUint16LE() // fsType
	if r.ReadUint16LE() != 0x504C {
		return nil, fmt.Errorf("invalid magic number")
	}
	_ = r.ReadBytes(24) // unicode and code page ranges
	_ = r.ReadUint32LE() // checkSumAdjustment
	_ = r.ReadBytes(18) // reserved fields and first padding

	// a size-prefixed UTF-16 string, each followed by a padding word except
	// the last
	skipName := func() {
		size := r.ReadUint16LE()
		_ = r.ReadBytes(uint32(size))
	}
	skipName() // family name
	_ = r.ReadUint16LE()
	skipName() // style name
	_ = r.ReadUint16LE()
	skipName() // version name
	_ = r.ReadUint16LE()
	skipName() // full name

	if version == 0x00020001 || version == 0x00020002 {
		_ = r.ReadUint16LE()
		skipName() // root string
	}
	if version == 0x00020002 {
		_ = r.ReadUint32LE() // root string checksum
		_ = r.ReadUint32LE() // EUDC code page
		_ = r.ReadUint16LE()
		skipName()           // signature
		_ = r.ReadUint32LE() // EUDC flags
		eudcFontSize := r.ReadUint32LE()
		_ = r.ReadBytes(eudcFontSize)
	}

	fontData := r.ReadBytes(fontDataSize)
	if r.EOF() {
		return nil, ErrInvalidFontData
	}

	if flags&0x10000000 != 0 {
		// the font data is obfuscated by XORing every byte with 0x50
		deXORed := make([]byte, len(fontData))
		for i, c := range fontData {
			deXORed[i] = c ^ 0x50
		}
		fontData = deXORed
	}
	if flags&0x00000004 != 0 {
		return nil, fmt.Errorf("EOT compression not supported")
	}
	return fontData, nil
}
