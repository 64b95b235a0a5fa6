package font

import "encoding/binary"

// MaxMemory is the maximum memory that can be allocated by a font.
var MaxMemory uint32 = 30 * 1024 * 1024

func uint8ToFlags(v uint8) (flags [8]bool) {
	for i := 0; i < 8; i++ {
		flags[i] = v&(1<<i) != 0
	}
	return
}

func uint16ToFlags(v uint16) (flags [16]bool) {
	for i := 0; i < 16; i++ {
		flags[i] = v&(1<<i) != 0
	}
	return
}

// calcChecksum sums the table as big-endian uint32 words, with implicit zero
// padding to a word boundary.
func calcChecksum(b []byte) uint32 {
	var sum uint32
	for 4 <= len(b) {
		sum += binary.BigEndian.Uint32(b)
		b = b[4:]
	}
	if 0 < len(b) {
		var last [4]byte
		copy(last[:], b)
		sum += binary.BigEndian.Uint32(last[:])
	}
	return sum
}

func uint32ToString(v uint32) string {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return string(b)
}

// binaryReader is a big-endian binary file format reader. Reads beyond the
// buffer set the EOF flag and return zero values; callers check Len() before
// multi-field reads or EOF() afterwards so that garbage never escapes.
type binaryReader struct {
	buf []byte
	pos uint32
	eof bool
}

func newBinaryReader(buf []byte) *binaryReader {
	if uint32(MaxMemory) < uint32(len(buf)) {
		return &binaryReader{eof: true}
	}
	return &binaryReader{buf: buf}
}

func (r *binaryReader) ReadBytes(n uint32) []byte {
	if r.eof || r.Len() < n {
		r.eof = true
		return nil
	}
	buf := r.buf[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return buf
}

func (r *binaryReader) ReadString(n uint32) string {
	return string(r.ReadBytes(n))
}

func (r *binaryReader) ReadByte() byte {
	if b := r.ReadBytes(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *binaryReader) ReadUint8() uint8 {
	return r.ReadByte()
}

func (r *binaryReader) ReadUint16() uint16 {
	if b := r.ReadBytes(2); b != nil {
		return binary.BigEndian.Uint16(b)
	}
	return 0
}

func (r *binaryReader) ReadUint32() uint32 {
	if b := r.ReadBytes(4); b != nil {
		return binary.BigEndian.Uint32(b)
	}
	return 0
}

func (r *binaryReader) ReadUint64() uint64 {
	if b := r.ReadBytes(8); b != nil {
		return binary.BigEndian.Uint64(b)
	}
	return 0
}

func (r *binaryReader) ReadInt8() int8 {
	return int8(r.ReadByte())
}

func (r *binaryReader) ReadInt16() int16 {
	return int16(r.ReadUint16())
}

func (r *binaryReader) ReadInt32() int32 {
	return int32(r.ReadUint32())
}

func (r *binaryReader) ReadUint16LE() uint16 {
	if b := r.ReadBytes(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (r *binaryReader) ReadUint32LE() uint32 {
	if b := r.ReadBytes(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

// ReadUintN reads an unsigned integer of 1, 2, 3, or 4 bytes, as used by CFF
// INDEX offsets.
func (r *binaryReader) ReadUintN(n int) uint32 {
	var v uint32
	for i := 0; i < n; i++ {
		v = v<<8 | uint32(r.ReadByte())
	}
	return v
}

// ReadBase128 reads a variable-length UIntBase128 as used by WOFF2.
func (r *binaryReader) ReadBase128() uint32 {
	var accum uint32
	for i := 0; i < 5; i++ {
		dataByte := r.ReadByte()
		if i == 0 && dataByte == 0x80 {
			r.eof = true
			return 0
		}
		if (accum & 0xFE000000) != 0 {
			r.eof = true
			return 0
		}
		accum = (accum << 7) | uint32(dataByte&0x7F)
		if (dataByte & 0x80) == 0 {
			return accum
		}
	}
	r.eof = true
	return 0
}

func (r *binaryReader) Pos() uint32 {
	return r.pos
}

func (r *binaryReader) Seek(pos uint32) {
	if uint32(len(r.buf)) < pos {
		r.eof = true
		return
	}
	r.pos = pos
}

func (r *binaryReader) Skip(n uint32) {
	r.Seek(r.pos + n)
}

func (r *binaryReader) Len() uint32 {
	return uint32(len(r.buf)) - r.pos
}

func (r *binaryReader) EOF() bool {
	return r.eof
}

// binaryWriter is a big-endian binary file format writer.
type binaryWriter struct {
	buf []byte
}

func newBinaryWriter(buf []byte) *binaryWriter {
	return &binaryWriter{buf[:0]}
}

func (w *binaryWriter) Bytes() []byte {
	return w.buf
}

func (w *binaryWriter) WriteBytes(v []byte) {
	pos := len(w.buf)
	w.buf = append(w.buf, make([]byte, len(v))...)
	copy(w.buf[pos:], v)
}

func (w *binaryWriter) WriteByte(v byte) {
	w.WriteBytes([]byte{v})
}

func (w *binaryWriter) WriteString(v string) {
	w.WriteBytes([]byte(v))
}

func (w *binaryWriter) WriteUint8(v uint8) {
	w.WriteByte(v)
}

func (w *binaryWriter) WriteUint16(v uint16) {
	pos := len(w.buf)
	w.buf = append(w.buf, make([]byte, 2)...)
	binary.BigEndian.PutUint16(w.buf[pos:], v)
}

func (w *binaryWriter) WriteUint32(v uint32) {
	pos := len(w.buf)
	w.buf = append(w.buf, make([]byte, 4)...)
	binary.BigEndian.PutUint32(w.buf[pos:], v)
}

func (w *binaryWriter) WriteUint64(v uint64) {
	pos := len(w.buf)
	w.buf = append(w.buf, make([]byte, 8)...)
	binary.BigEndian.PutUint64(w.buf[pos:], v)
}

func (w *binaryWriter) WriteInt8(v int8) {
	w.WriteByte(byte(v))
}

func (w *binaryWriter) WriteInt16(v int16) {
	w.WriteUint16(uint16(v))
}

func (w *binaryWriter) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

// WriteUintN writes an unsigned integer of 1, 2, 3, or 4 bytes, as used by
// CFF INDEX offsets.
func (w *binaryWriter) WriteUintN(v uint32, n int) {
	for i := n - 1; 0 <= i; i-- {
		w.WriteByte(byte(v >> (8 * i)))
	}
}

func (w *binaryWriter) Len() uint32 {
	return uint32(len(w.buf))
}
