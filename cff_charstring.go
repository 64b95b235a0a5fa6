package font

import (
	"fmt"
	"math"
)

// maxCharstringDepth limits subroutine call and seac nesting.
const maxCharstringDepth = 10

// calcSubrBias returns the subroutine index bias of Type 2 charstrings.
func calcSubrBias(n int) int {
	if n < 1240 {
		return 107
	} else if n < 33900 {
		return 1131
	}
	return 32768
}

////////////////////////////////////////////////////////////////

// type1Builder executes Type 1 path operations. The Type 2 interpreter
// translates its charstrings into calls on this builder, so that both
// charstring types construct outlines through the same operation set.
type type1Builder struct {
	p Pather

	x, y     float64
	sbx, sby float64
	width    float64
	hasWidth bool
	open     bool

	flexing bool
	flex    []float64 // absolute flex points, x y interleaved
}

func (b *type1Builder) hsbw(sbx, width float64) {
	b.sbx = sbx
	b.width = width
	b.hasWidth = true
	b.x = sbx
}

func (b *type1Builder) sbw(sbx, sby, wx, _ float64) {
	b.hsbw(sbx, wx)
	b.sby = sby
	b.y = sby
}

func (b *type1Builder) rmoveto(dx, dy float64) {
	b.x += dx
	b.y += dy
	if b.flexing {
		b.flex = append(b.flex, b.x, b.y)
		return
	}
	b.p.MoveTo(b.x, b.y)
	b.open = true
}

func (b *type1Builder) rlineto(dx, dy float64) {
	if !b.open {
		// tolerate a path operator before any moveto
		b.p.MoveTo(b.x, b.y)
		b.open = true
	}
	b.x += dx
	b.y += dy
	b.p.LineTo(b.x, b.y)
}

func (b *type1Builder) rrcurveto(dx1, dy1, dx2, dy2, dx3, dy3 float64) {
	if !b.open {
		b.p.MoveTo(b.x, b.y)
		b.open = true
	}
	cpx1 := b.x + dx1
	cpy1 := b.y + dy1
	cpx2 := cpx1 + dx2
	cpy2 := cpy1 + dy2
	b.x = cpx2 + dx3
	b.y = cpy2 + dy3
	b.p.CubeTo(cpx1, cpy1, cpx2, cpy2, b.x, b.y)
}

func (b *type1Builder) closepath() {
	if b.open {
		b.p.Close()
		b.open = false
	}
}

// flexBegin starts collecting flex points; subsequent rmoveto calls
// accumulate instead of moving.
func (b *type1Builder) flexBegin() {
	b.flexing = true
	b.flex = b.flex[:0]
}

// flexEnd rewrites the seven collected points as two curves. The first
// collected point is the flex reference point and produces no output.
func (b *type1Builder) flexEnd() bool {
	b.flexing = false
	if len(b.flex) != 14 {
		return false
	}
	if !b.open {
		b.p.MoveTo(b.flex[0], b.flex[1])
		b.open = true
	}
	b.p.CubeTo(b.flex[2], b.flex[3], b.flex[4], b.flex[5], b.flex[6], b.flex[7])
	b.p.CubeTo(b.flex[8], b.flex[9], b.flex[10], b.flex[11], b.flex[12], b.flex[13])
	return true
}

// offsetPather translates all coordinates, used to place a seac accent glyph.
type offsetPather struct {
	p      Pather
	dx, dy float64
}

func (o *offsetPather) MoveTo(x, y float64) {
	o.p.MoveTo(x+o.dx, y+o.dy)
}

func (o *offsetPather) LineTo(x, y float64) {
	o.p.LineTo(x+o.dx, y+o.dy)
}

func (o *offsetPather) QuadTo(cpx, cpy, x, y float64) {
	o.p.QuadTo(cpx+o.dx, cpy+o.dy, x+o.dx, y+o.dy)
}

func (o *offsetPather) CubeTo(cpx1, cpy1, cpx2, cpy2, x, y float64) {
	o.p.CubeTo(cpx1+o.dx, cpy1+o.dy, cpx2+o.dx, cpy2+o.dy, x+o.dx, y+o.dy)
}

func (o *offsetPather) Close() {
	o.p.Close()
}

////////////////////////////////////////////////////////////////

// GlyphPath appends the outline of the glyph to p, in font design units.
// Outlines are interpreted once and cached.
func (f *CFFFont) GlyphPath(p Pather, glyphID uint16) error {
	path, err := f.glyphPath(glyphID)
	if err != nil {
		return err
	}
	path.Replay(p)
	return nil
}

// AdvanceWidth returns the advance width of the glyph in design units.
func (f *CFFFont) AdvanceWidth(glyphID uint16) float64 {
	if _, err := f.glyphPath(glyphID); err != nil {
		return 0.0
	}
	f.mu.Lock()
	width := f.widthCache[glyphID]
	f.mu.Unlock()
	return width
}

func (f *CFFFont) glyphPath(glyphID uint16) (*Path, error) {
	f.mu.Lock()
	if path, ok := f.pathCache[glyphID]; ok {
		f.mu.Unlock()
		return path, nil
	}
	f.mu.Unlock()

	path := &Path{}
	width, err := f.buildGlyph(path, glyphID)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	if f.pathCache == nil {
		f.pathCache = map[uint16]*Path{}
		f.widthCache = map[uint16]float64{}
	}
	f.pathCache[glyphID] = path
	f.widthCache[glyphID] = width
	f.mu.Unlock()
	return path, nil
}

func (f *CFFFont) buildGlyph(p Pather, glyphID uint16) (float64, error) {
	charstring := f.CharstringBytes(glyphID)
	private, err := f.GetPrivateDict(glyphID)
	if err != nil {
		return 0.0, err
	}

	b := &type1Builder{p: p}
	if f.top.CharstringType == 1 {
		err = f.runType1(b, glyphID, charstring, 0)
	} else {
		b.width = private.DefaultWidthX
		err = f.runType2(b, glyphID, charstring, private)
	}
	if err != nil {
		return 0.0, err
	}
	b.closepath()
	return b.width, nil
}

func (f *CFFFont) glyphIDByStdCode(code int) uint16 {
	if code < 0 || 256 <= code {
		return 0
	}
	sid := cffStandardEncoding[code]
	if sid == 0 || int(sid) >= len(cffStandardStrings) {
		return 0
	}
	return f.NameToGID(cffStandardStrings[sid])
}

// seac draws a standard-encoded base glyph and an accent glyph translated on
// top of it. This is the one place charstring interpretation recurses into a
// sibling glyph.
func (f *CFFFont) seac(b *type1Builder, asb, adx, ady float64, bchar, achar int, depth int) error {
	if maxCharstringDepth <= depth {
		return fmt.Errorf("CFF: seac: too deeply nested")
	}
	bGID := f.glyphIDByStdCode(bchar)
	aGID := f.glyphIDByStdCode(achar)
	if bGID == 0 && aGID == 0 {
		return nil
	}

	run := func(b *type1Builder, glyphID uint16) error {
		charstring := f.CharstringBytes(glyphID)
		if f.top.CharstringType == 1 {
			return f.runType1(b, glyphID, charstring, depth+1)
		}
		private, err := f.GetPrivateDict(glyphID)
		if err != nil {
			return err
		}
		b.width = private.DefaultWidthX
		return f.runType2(b, glyphID, charstring, private)
	}

	base := &type1Builder{p: b.p}
	if err := run(base, bGID); err != nil {
		return err
	}
	base.closepath()

	accent := &type1Builder{p: &offsetPather{b.p, b.sbx - asb + adx, ady}}
	if err := run(accent, aGID); err != nil {
		return err
	}
	accent.closepath()

	// the accented glyph's own width wins; only without one does the base
	// glyph's width carry over
	if !b.hasWidth {
		b.width = base.width
		b.hasWidth = true
	}
	return nil
}

////////////////////////////////////////////////////////////////

// runType1 interprets a Type 1 charstring. Subroutine indices are unbiased,
// 255 introduces a 32-bit integer, and flex is built from OtherSubrs 0 and 1.
func (f *CFFFont) runType1(b *type1Builder, glyphID uint16, charstring []byte, depth int) error {
	if charstring == nil {
		return nil
	}
	localSubrs := f.fonts.GetLocalSubrs(glyphID)

	stack := []float64{}
	psStack := []float64{}
	callStack := []*binaryReader{}
	r := newBinaryReader(charstring)
	for {
		if r.Len() == 0 {
			if len(callStack) == 0 {
				break
			}
			// implicit return at the end of a subroutine
			r = callStack[len(callStack)-1]
			callStack = callStack[:len(callStack)-1]
			continue
		}

		b0 := int32(r.ReadUint8())
		if 32 <= b0 || b0 == 28 {
			var v float64
			if b0 == 28 {
				v = float64(r.ReadInt16())
			} else if b0 < 247 {
				v = float64(b0 - 139)
			} else if b0 < 251 {
				b1 := int32(r.ReadUint8())
				v = float64((b0-247)*256 + b1 + 108)
			} else if b0 < 255 {
				b1 := int32(r.ReadUint8())
				v = float64(-(b0-251)*256 - b1 - 108)
			} else {
				v = float64(r.ReadInt32())
			}
			if 48 <= len(stack) {
				return fmt.Errorf("CFF: too many operands")
			}
			stack = append(stack, v)
			continue
		}

		if b0 == 12 {
			b0 = 256 + int32(r.ReadUint8())
		}
		switch b0 {
		case 1, 3, 256 + 1, 256 + 2, 256 + 0:
			// hstem, vstem, vstem3, hstem3, dotsection: no path output
			stack = stack[:0]
		case 4:
			if 1 <= len(stack) {
				b.closepath()
				b.rmoveto(0.0, stack[len(stack)-1])
			}
			stack = stack[:0]
		case 21:
			if 2 <= len(stack) {
				if !b.flexing {
					b.closepath()
				}
				b.rmoveto(stack[len(stack)-2], stack[len(stack)-1])
			}
			stack = stack[:0]
		case 22:
			if 1 <= len(stack) {
				b.closepath()
				b.rmoveto(stack[len(stack)-1], 0.0)
			}
			stack = stack[:0]
		case 5:
			if 2 <= len(stack) {
				b.rlineto(stack[len(stack)-2], stack[len(stack)-1])
			}
			stack = stack[:0]
		case 6:
			if 1 <= len(stack) {
				b.rlineto(stack[len(stack)-1], 0.0)
			}
			stack = stack[:0]
		case 7:
			if 1 <= len(stack) {
				b.rlineto(0.0, stack[len(stack)-1])
			}
			stack = stack[:0]
		case 8:
			if 6 <= len(stack) {
				s := stack[len(stack)-6:]
				b.rrcurveto(s[0], s[1], s[2], s[3], s[4], s[5])
			}
			stack = stack[:0]
		case 30:
			if 4 <= len(stack) {
				s := stack[len(stack)-4:]
				b.rrcurveto(0.0, s[0], s[1], s[2], s[3], 0.0)
			}
			stack = stack[:0]
		case 31:
			if 4 <= len(stack) {
				s := stack[len(stack)-4:]
				b.rrcurveto(s[0], 0.0, s[1], s[2], 0.0, s[3])
			}
			stack = stack[:0]
		case 9:
			b.closepath()
			stack = stack[:0]
		case 13:
			if 2 <= len(stack) {
				b.hsbw(stack[len(stack)-2], stack[len(stack)-1])
			}
			stack = stack[:0]
		case 256 + 7:
			if 4 <= len(stack) {
				s := stack[len(stack)-4:]
				b.sbw(s[0], s[1], s[2], s[3])
			}
			stack = stack[:0]
		case 256 + 6:
			if 5 <= len(stack) {
				s := stack[len(stack)-5:]
				return f.seac(b, s[0], s[1], s[2], int(s[3]), int(s[4]), depth)
			}
			stack = stack[:0]
		case 256 + 12:
			if 2 <= len(stack) {
				num := stack[len(stack)-2]
				den := stack[len(stack)-1]
				stack = stack[:len(stack)-2]
				if den == 0.0 {
					den = 1.0
				}
				stack = append(stack, num/den)
			}
		case 10:
			if len(stack) == 0 {
				break
			}
			index := int(stack[len(stack)-1])
			stack = stack[:len(stack)-1]
			subr := localSubrs.Get(uint16(index))
			if subr == nil || index < 0 {
				break
			}
			if maxCharstringDepth <= len(callStack) {
				return fmt.Errorf("CFF: too deeply nested subroutines")
			}
			callStack = append(callStack, r)
			r = newBinaryReader(subr)
		case 11:
			if len(callStack) == 0 {
				return nil
			}
			r = callStack[len(callStack)-1]
			callStack = callStack[:len(callStack)-1]
		case 256 + 16:
			// callothersubr: args..., count, othersubr number
			if len(stack) < 2 {
				stack = stack[:0]
				break
			}
			othersubr := int(stack[len(stack)-1])
			n := int(stack[len(stack)-2])
			stack = stack[:len(stack)-2]
			if n < 0 || len(stack) < n {
				n = len(stack)
			}
			args := stack[len(stack)-n:]
			stack = stack[:len(stack)-n]
			switch othersubr {
			case 1:
				b.flexBegin()
			case 2:
				// collecting flex points
			case 0:
				b.flexEnd()
				// endpoint coordinates for the two following pops
				psStack = append(psStack, b.y, b.x)
			case 3:
				// hint replacement
				psStack = append(psStack, 3.0)
			default:
				for i := len(args) - 1; 0 <= i; i-- {
					psStack = append(psStack, args[i])
				}
			}
		case 256 + 17:
			// pop from the PostScript interpreter stack
			v := 0.0
			if 0 < len(psStack) {
				v = psStack[len(psStack)-1]
				psStack = psStack[:len(psStack)-1]
			}
			if len(stack) < 48 {
				stack = append(stack, v)
			}
		case 256 + 33:
			if 2 <= len(stack) {
				b.x = stack[len(stack)-2]
				b.y = stack[len(stack)-1]
			}
			stack = stack[:0]
		case 14:
			return nil
		default:
			// unknown operator, ignore
			stack = stack[:0]
		}
		if r.EOF() {
			return fmt.Errorf("CFF: bad charstring")
		}
	}
	return nil
}

////////////////////////////////////////////////////////////////

// runType2 interprets a Type 2 charstring by translating it into Type 1
// operations on the builder: the optional leading width operand is folded
// into an hsbw, alternating-axis operators expand into single-axis segments,
// and the flex family decomposes into pairs of curves.
func (f *CFFFont) runType2(b *type1Builder, glyphID uint16, charstring []byte, private *cffPrivateDICT) error {
	if charstring == nil {
		return nil
	}
	localSubrs := f.fonts.GetLocalSubrs(glyphID)
	localBias := calcSubrBias(localSubrs.Len())
	globalBias := calcSubrBias(f.globalSubrs.Len())

	stack := []float64{}
	callStack := []*binaryReader{}
	hints := 0

	// consume the optional width operand on the first stack-clearing
	// operator; nArgs is what the operator itself consumes
	clearWidth := func(nArgs int) {
		if !b.hasWidth {
			if nArgs < len(stack) {
				b.hsbw(0.0, private.NominalWidthX+stack[0])
				stack = stack[1:]
			} else {
				b.hsbw(0.0, private.DefaultWidthX)
			}
			b.x, b.y = 0.0, 0.0
		}
	}

	r := newBinaryReader(charstring)
	for {
		if r.Len() == 0 {
			if len(callStack) == 0 {
				break
			}
			r = callStack[len(callStack)-1]
			callStack = callStack[:len(callStack)-1]
			continue
		}

		b0 := int32(r.ReadUint8())
		if 32 <= b0 || b0 == 28 {
			var v float64
			if b0 == 28 {
				v = float64(r.ReadInt16())
			} else if b0 < 247 {
				v = float64(b0 - 139)
			} else if b0 < 251 {
				b1 := int32(r.ReadUint8())
				v = float64((b0-247)*256 + b1 + 108)
			} else if b0 < 255 {
				b1 := int32(r.ReadUint8())
				v = float64(-(b0-251)*256 - b1 - 108)
			} else {
				v = float64(r.ReadInt32()) / 65536.0 // 16.16 fixed-point
			}
			if 48 <= len(stack) {
				return fmt.Errorf("CFF: too many operands")
			}
			stack = append(stack, v)
			continue
		}

		if b0 == 12 {
			b0 = 256 + int32(r.ReadUint8())
		}
		switch b0 {
		case 1, 3, 18, 23:
			// hstem, vstem, hstemhm, vstemhm
			clearWidth(len(stack) &^ 1)
			hints += len(stack) / 2
			stack = stack[:0]
		case 19, 20:
			// hintmask, cntrmask: an implicit vstemhm precedes the mask
			clearWidth(len(stack) &^ 1)
			hints += len(stack) / 2
			stack = stack[:0]
			r.Skip(uint32((hints + 7) / 8))
		case 21:
			clearWidth(2)
			if 2 <= len(stack) {
				b.closepath()
				b.rmoveto(stack[len(stack)-2], stack[len(stack)-1])
			}
			stack = stack[:0]
		case 22:
			clearWidth(1)
			if 1 <= len(stack) {
				b.closepath()
				b.rmoveto(stack[len(stack)-1], 0.0)
			}
			stack = stack[:0]
		case 4:
			clearWidth(1)
			if 1 <= len(stack) {
				b.closepath()
				b.rmoveto(0.0, stack[len(stack)-1])
			}
			stack = stack[:0]
		case 5:
			for i := 0; i+2 <= len(stack); i += 2 {
				b.rlineto(stack[i], stack[i+1])
			}
			stack = stack[:0]
		case 6, 7:
			horizontal := b0 == 6
			for i := 0; i < len(stack); i++ {
				if horizontal {
					b.rlineto(stack[i], 0.0)
				} else {
					b.rlineto(0.0, stack[i])
				}
				horizontal = !horizontal
			}
			stack = stack[:0]
		case 8:
			for i := 0; i+6 <= len(stack); i += 6 {
				b.rrcurveto(stack[i], stack[i+1], stack[i+2], stack[i+3], stack[i+4], stack[i+5])
			}
			stack = stack[:0]
		case 24:
			// rcurveline: curves followed by one line
			i := 0
			for ; i+6 <= len(stack)-2; i += 6 {
				b.rrcurveto(stack[i], stack[i+1], stack[i+2], stack[i+3], stack[i+4], stack[i+5])
			}
			if i+2 <= len(stack) {
				b.rlineto(stack[i], stack[i+1])
			}
			stack = stack[:0]
		case 25:
			// rlinecurve: lines followed by one curve
			i := 0
			for ; i+2 <= len(stack)-6; i += 2 {
				b.rlineto(stack[i], stack[i+1])
			}
			if i+6 <= len(stack) {
				b.rrcurveto(stack[i], stack[i+1], stack[i+2], stack[i+3], stack[i+4], stack[i+5])
			}
			stack = stack[:0]
		case 26, 27:
			// vvcurveto, hhcurveto: optional leading odd operand is a
			// first-segment offset on the other axis
			i := 0
			d := 0.0
			if len(stack)%4 == 1 {
				d = stack[0]
				i = 1
			}
			for ; i+4 <= len(stack); i += 4 {
				if b0 == 26 {
					b.rrcurveto(d, stack[i], stack[i+1], stack[i+2], 0.0, stack[i+3])
				} else {
					b.rrcurveto(stack[i], d, stack[i+1], stack[i+2], stack[i+3], 0.0)
				}
				d = 0.0
			}
			stack = stack[:0]
		case 30, 31:
			// vhcurveto, hvcurveto: alternate the starting axis per curve;
			// an odd trailing fifth operand adds a final other-axis offset
			horizontal := b0 == 31
			i := 0
			for ; i+4 <= len(stack); i += 4 {
				last := 0.0
				if i+4 == len(stack)-1 {
					last = stack[len(stack)-1]
				}
				if horizontal {
					b.rrcurveto(stack[i], 0.0, stack[i+1], stack[i+2], last, stack[i+3])
				} else {
					b.rrcurveto(0.0, stack[i], stack[i+1], stack[i+2], stack[i+3], last)
				}
				horizontal = !horizontal
			}
			stack = stack[:0]
		case 256 + 35:
			// flex
			if 13 <= len(stack) {
				s := stack[len(stack)-13:]
				b.rrcurveto(s[0], s[1], s[2], s[3], s[4], s[5])
				b.rrcurveto(s[6], s[7], s[8], s[9], s[10], s[11])
			}
			stack = stack[:0]
		case 256 + 34:
			// hflex: horizontal flex, ends at the starting y
			if 7 <= len(stack) {
				s := stack[len(stack)-7:]
				b.rrcurveto(s[0], 0.0, s[1], s[2], s[3], 0.0)
				b.rrcurveto(s[4], 0.0, s[5], -s[2], s[6], 0.0)
			}
			stack = stack[:0]
		case 256 + 36:
			// hflex1: ends at the starting y
			if 9 <= len(stack) {
				s := stack[len(stack)-9:]
				b.rrcurveto(s[0], s[1], s[2], s[3], s[4], 0.0)
				b.rrcurveto(s[5], 0.0, s[6], s[7], s[8], -(s[1] + s[3] + s[7]))
			}
			stack = stack[:0]
		case 256 + 37:
			// flex1: the larger accumulated delta keeps the literal final
			// operand, the other axis returns to its starting coordinate
			if 11 <= len(stack) {
				s := stack[len(stack)-11:]
				startX, startY := b.x, b.y
				dx := s[0] + s[2] + s[4] + s[6] + s[8]
				dy := s[1] + s[3] + s[5] + s[7] + s[9]
				b.rrcurveto(s[0], s[1], s[2], s[3], s[4], s[5])
				var dx6, dy6 float64
				if math.Abs(dx) > math.Abs(dy) {
					dx6 = s[10]
					dy6 = startY - (b.y + s[7] + s[9])
				} else {
					dx6 = startX - (b.x + s[6] + s[8])
					dy6 = s[10]
				}
				b.rrcurveto(s[6], s[7], s[8], s[9], dx6, dy6)
			}
			stack = stack[:0]
		case 10, 29:
			if len(stack) == 0 {
				break
			}
			var subr []byte
			if b0 == 10 {
				subr = localSubrs.Get(uint16(int(stack[len(stack)-1]) + localBias))
			} else {
				subr = f.globalSubrs.Get(uint16(int(stack[len(stack)-1]) + globalBias))
			}
			stack = stack[:len(stack)-1]
			if subr == nil {
				break
			}
			if maxCharstringDepth <= len(callStack) {
				return fmt.Errorf("CFF: too deeply nested subroutines")
			}
			callStack = append(callStack, r)
			r = newBinaryReader(subr)
		case 11:
			if len(callStack) == 0 {
				return nil
			}
			r = callStack[len(callStack)-1]
			callStack = callStack[:len(callStack)-1]
		case 14:
			// endchar with four operands is the deprecated implicit seac
			if 4 <= len(stack) {
				clearWidth(4)
			} else {
				clearWidth(0)
			}
			if 4 <= len(stack) {
				s := stack[len(stack)-4:]
				b.closepath()
				return f.seac(b, 0.0, s[0], s[1], int(s[2]), int(s[3]), 0)
			}
			b.closepath()
			return nil
		case 256 + 3, 256 + 4, 256 + 5, 256 + 9, 256 + 10, 256 + 11, 256 + 12,
			256 + 14, 256 + 15, 256 + 18, 256 + 21, 256 + 22, 256 + 23,
			256 + 24, 256 + 26, 256 + 27, 256 + 28, 256 + 29, 256 + 30:
			// arithmetic and storage operators, unused in practice
			stack = stack[:0]
		default:
			// unknown operator, ignore
			stack = stack[:0]
		}
		if r.EOF() {
			return fmt.Errorf("CFF: bad charstring")
		}
	}
	b.closepath()
	return nil
}
