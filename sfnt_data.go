package font

import "strings"

// Platform, encoding, and name IDs of the name and cmap tables. Only the
// values the parser consults are named here; records with other IDs are kept
// as raw values.
type PlatformID uint16

const (
	PlatformUnicode   PlatformID = 0
	PlatformMacintosh PlatformID = 1
	PlatformWindows   PlatformID = 3
	PlatformCustom    PlatformID = 4
)

type EncodingID uint16

const EncodingMacintoshRoman EncodingID = 0

type NameID uint16

const (
	NameFontFamily    NameID = 1
	NameFontSubfamily NameID = 2
	NameUniqueID      NameID = 3
	NameFull          NameID = 4
	NameVersion       NameID = 5
	NamePostScript    NameID = 6
)

// macintoshGlyphNames is the standard Macintosh glyph order that post table
// versions 1.0 and 2.0 index into for the first 258 glyph names.
var macintoshGlyphNames = strings.Fields(`
	.notdef .null nonmarkingreturn space exclam quotedbl numbersign dollar
	percent ampersand quotesingle parenleft parenright asterisk plus comma
	hyphen period slash zero one two three four five six seven eight nine
	colon semicolon less equal greater question at A B C D E F G H I J K L M
	N O P Q R S T U V W X Y Z bracketleft backslash bracketright asciicircum
	underscore grave a b c d e f g h i j k l m n o p q r s t u v w x y z
	braceleft bar braceright asciitilde Adieresis Aring Ccedilla Eacute
	Ntilde Odieresis Udieresis aacute agrave acircumflex adieresis atilde
	aring ccedilla eacute egrave ecircumflex edieresis iacute igrave
	icircumflex idieresis ntilde oacute ograve ocircumflex odieresis otilde
	uacute ugrave ucircumflex udieresis dagger degree cent sterling section
	bullet paragraph germandbls registered copyright trademark acute
	dieresis notequal AE Oslash infinity plusminus lessequal greaterequal
	yen mu partialdiff summation product pi integral ordfeminine
	ordmasculine Omega ae oslash questiondown exclamdown logicalnot radical
	florin approxequal Delta guillemotleft guillemotright ellipsis
	nonbreakingspace Agrave Atilde Otilde OE oe endash emdash quotedblleft
	quotedblright quoteleft quoteright divide lozenge ydieresis Ydieresis
	fraction currency guilsinglleft guilsinglright fi fl daggerdbl
	periodcentered quotesinglbase quotedblbase perthousand Acircumflex
	Ecircumflex Aacute Edieresis Egrave Iacute Icircumflex Idieresis Igrave
	Oacute Ocircumflex apple Ograve Uacute Ucircumflex Ugrave dotlessi
	circumflex tilde macron breve dotaccent ring cedilla hungarumlaut
	ogonek caron Lslash lslash Scaron scaron Zcaron zcaron brokenbar Eth
	eth Yacute yacute Thorn thorn minus multiply onesuperior twosuperior
	threesuperior onehalf onequarter threequarters franc Gbreve gbreve
	Idotaccent Scedilla scedilla Cacute cacute Ccaron ccaron dcroat`)
