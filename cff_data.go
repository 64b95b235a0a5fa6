package font

// cffStandardStrings are the 391 standard strings of the Compact Font Format,
// indexed by SID. Custom strings in the font's String INDEX continue at SID
// 391.
var cffStandardStrings = []string{
	".notdef", "space", "exclam", "quotedbl", "numbersign", "dollar",
	"percent", "ampersand", "quoteright", "parenleft", "parenright",
	"asterisk", "plus", "comma", "hyphen", "period", "slash", "zero", "one",
	"two", "three", "four", "five", "six", "seven", "eight", "nine", "colon",
	"semicolon", "less", "equal", "greater", "question", "at", "A", "B", "C",
	"D", "E", "F", "G", "H", "I", "J", "K", "L", "M", "N", "O", "P", "Q", "R",
	"S", "T", "U", "V", "W", "X", "Y", "Z", "bracketleft", "backslash",
	"bracketright", "asciicircum", "underscore", "quoteleft", "a", "b", "c",
	"d", "e", "f", "g", "h", "i", "j", "k", "l", "m", "n", "o", "p", "q", "r",
	"s", "t", "u", "v", "w", "x", "y", "z", "braceleft", "bar", "braceright",
	"asciitilde", "exclamdown", "cent", "sterling", "fraction", "yen",
	"florin", "section", "currency", "quotesingle", "quotedblleft",
	"guillemotleft", "guilsinglleft", "guilsinglright", "fi", "fl", "endash",
	"dagger", "daggerdbl", "periodcentered", "paragraph", "bullet",
	"quotesinglbase", "quotedblbase", "quotedblright", "guillemotright",
	"ellipsis", "perthousand", "questiondown", "grave", "acute", "circumflex",
	"tilde", "macron", "breve", "dotaccent", "dieresis", "ring", "cedilla",
	"hungarumlaut", "ogonek", "caron", "emdash", "AE", "ordfeminine",
	"Lslash", "Oslash", "OE", "ordmasculine", "ae", "dotlessi", "lslash",
	"oslash", "oe", "germandbls", "onesuperior", "logicalnot", "mu",
	"trademark", "Eth", "onehalf", "plusminus", "Thorn", "onequarter",
	"divide", "brokenbar", "degree", "thorn", "threequarters", "twosuperior",
	"registered", "minus", "eth", "multiply", "threesuperior", "copyright",
	"Aacute", "Acircumflex", "Adieresis", "Agrave", "Aring", "Atilde",
	"Ccedilla", "Eacute", "Ecircumflex", "Edieresis", "Egrave", "Iacute",
	"Icircumflex", "Idieresis", "Igrave", "Ntilde", "Oacute", "Ocircumflex",
	"Odieresis", "Ograve", "Otilde", "Scaron", "Uacute", "Ucircumflex",
	"Udieresis", "Ugrave", "Yacute", "Ydieresis", "Zcaron", "aacute",
	"acircumflex", "adieresis", "agrave", "aring", "atilde", "ccedilla",
	"eacute", "ecircumflex", "edieresis", "egrave", "iacute", "icircumflex",
	"idieresis", "igrave", "ntilde", "oacute", "ocircumflex", "odieresis",
	"ograve", "otilde", "scaron", "uacute", "ucircumflex", "udieresis",
	"ugrave", "yacute", "ydieresis", "zcaron", "exclamsmall",
	"Hungarumlautsmall", "dollaroldstyle", "dollarsuperior", "ampersandsmall",
	"Acutesmall", "parenleftsuperior", "parenrightsuperior", "twodotenleader",
	"onedotenleader", "zerooldstyle", "oneoldstyle", "twooldstyle",
	"threeoldstyle", "fouroldstyle", "fiveoldstyle", "sixoldstyle",
	"sevenoldstyle", "eightoldstyle", "nineoldstyle", "commasuperior",
	"threequartersemdash", "periodsuperior", "questionsmall", "asuperior",
	"bsuperior", "centsuperior", "dsuperior", "esuperior", "isuperior",
	"lsuperior", "msuperior", "nsuperior", "osuperior", "rsuperior",
	"ssuperior", "tsuperior", "ff", "ffi", "ffl", "parenleftinferior",
	"parenrightinferior", "Circumflexsmall", "hyphensuperior", "Gravesmall",
	"Asmall", "Bsmall", "Csmall", "Dsmall", "Esmall", "Fsmall", "Gsmall",
	"Hsmall", "Ismall", "Jsmall", "Ksmall", "Lsmall", "Msmall", "Nsmall",
	"Osmall", "Psmall", "Qsmall", "Rsmall", "Ssmall", "Tsmall", "Usmall",
	"Vsmall", "Wsmall", "Xsmall", "Ysmall", "Zsmall", "colonmonetary",
	"onefitted", "rupiah", "Tildesmall", "exclamdownsmall", "centoldstyle",
	"Lslashsmall", "Scaronsmall", "Zcaronsmall", "Dieresissmall",
	"Brevesmall", "Caronsmall", "Dotaccentsmall", "Macronsmall",
	"figuredash", "hypheninferior", "Ogoneksmall", "Ringsmall",
	"Cedillasmall", "questiondownsmall", "oneeighth", "threeeighths",
	"fiveeighths", "seveneighths", "onethird", "twothirds", "zerosuperior",
	"foursuperior", "fivesuperior", "sixsuperior", "sevensuperior",
	"eightsuperior", "ninesuperior", "zeroinferior", "oneinferior",
	"twoinferior", "threeinferior", "fourinferior", "fiveinferior",
	"sixinferior", "seveninferior", "eightinferior", "nineinferior",
	"centinferior", "dollarinferior", "periodinferior", "commainferior",
	"Agravesmall", "Aacutesmall", "Acircumflexsmall", "Atildesmall",
	"Adieresissmall", "Aringsmall", "AEsmall", "Ccedillasmall", "Egravesmall",
	"Eacutesmall", "Ecircumflexsmall", "Edieresissmall", "Igravesmall",
	"Iacutesmall", "Icircumflexsmall", "Idieresissmall", "Ethsmall",
	"Ntildesmall", "Ogravesmall", "Oacutesmall", "Ocircumflexsmall",
	"Otildesmall", "Odieresissmall", "OEsmall", "Oslashsmall", "Ugravesmall",
	"Uacutesmall", "Ucircumflexsmall", "Udieresissmall", "Yacutesmall",
	"Thornsmall", "Ydieresissmall", "001.000", "001.001", "001.002",
	"001.003", "Black", "Bold", "Book", "Light", "Medium", "Regular",
	"Roman", "Semibold",
}

// cffStandardEncoding maps a character code to a SID, per the Standard
// Encoding of the Compact Font Format. Unlisted codes map to SID 0 (.notdef).
var cffStandardEncoding = buildEncoding(map[byte]uint16{
	173: 108, 174: 109, 175: 110, 177: 111, 178: 112, 179: 113, 180: 114,
	182: 115, 183: 116, 184: 117, 185: 118, 186: 119, 187: 120, 188: 121,
	189: 122, 191: 123, 193: 124, 194: 125, 195: 126, 196: 127, 197: 128,
	198: 129, 199: 130, 200: 131, 202: 132, 203: 133, 205: 134, 206: 135,
	207: 136, 208: 137, 225: 138, 227: 139, 232: 140, 233: 141, 234: 142,
	235: 143, 241: 144, 245: 145, 248: 146, 249: 147, 250: 148, 251: 149,
})

func buildEncoding(high map[byte]uint16) [256]uint16 {
	var enc [256]uint16
	for code := 32; code <= 126; code++ {
		enc[code] = uint16(code - 31)
	}
	for code := 161; code <= 172; code++ {
		enc[code] = uint16(code - 65) // exclamdown through guilsinglleft
	}
	for code, sid := range high {
		enc[code] = sid
	}
	return enc
}

// cffExpertEncoding maps a character code to a SID, per the Expert Encoding
// of the Compact Font Format.
var cffExpertEncoding = buildExpertEncoding()

func buildExpertEncoding() [256]uint16 {
	var enc [256]uint16
	pairs := [][2]uint16{
		{32, 1}, {33, 229}, {34, 230}, {36, 231}, {37, 232}, {38, 233},
		{39, 234}, {40, 235}, {41, 236}, {42, 237}, {43, 238}, {44, 13},
		{45, 14}, {46, 15}, {47, 99}, {58, 27}, {59, 28}, {60, 249},
		{61, 250}, {62, 251}, {63, 252}, {65, 253}, {66, 255}, {67, 256},
		{68, 257}, {71, 258}, {74, 259}, {75, 260}, {76, 261}, {77, 262},
		{79, 263}, {80, 264}, {81, 265}, {83, 266}, {84, 109}, {85, 110},
		{86, 267}, {87, 268}, {88, 269}, {89, 270}, {90, 271}, {91, 272},
		{92, 273}, {119, 300}, {120, 301}, {121, 302}, {122, 303},
		{123, 304}, {124, 305}, {125, 306}, {126, 307}, {161, 308},
		{162, 309}, {163, 310}, {164, 311}, {166, 312}, {168, 313},
		{171, 314}, {172, 315}, {175, 316}, {176, 317}, {177, 318},
		{181, 158}, {182, 155}, {183, 163}, {184, 319}, {193, 326},
		{194, 150}, {195, 164}, {196, 169},
	}
	for _, p := range pairs {
		enc[p[0]] = p[1]
	}
	for i := 0; i < 10; i++ {
		enc[48+i] = uint16(239 + i) // zerooldstyle through nineoldstyle
	}
	for i := 0; i < 26; i++ {
		enc[93+i] = uint16(274 + i) // Asmall through Zsmall
	}
	for i := 0; i < 6; i++ {
		enc[185+i] = uint16(320 + i) // oneeighth through twothirds
	}
	for i := 0; i < 52; i++ {
		enc[197+i] = uint16(327 + i) // foursuperior through Ydieresissmall
	}
	return enc
}

func buildCharsetList(ranges [][2]uint16) []uint16 {
	sids := []uint16{}
	for _, r := range ranges {
		for sid := r[0]; sid <= r[1]; sid++ {
			sids = append(sids, sid)
		}
	}
	return sids
}

// The predefined charsets, selected in the Top DICT by the charset operator
// values 0, 1, and 2 instead of a table offset.
var (
	cffISOAdobeCharset = buildCharsetList([][2]uint16{{0, 228}})

	cffExpertCharset = buildCharsetList([][2]uint16{
		{0, 1}, {229, 238}, {13, 15}, {99, 99}, {239, 248}, {27, 28},
		{249, 266}, {109, 110}, {267, 318}, {158, 158}, {155, 155},
		{163, 163}, {319, 326}, {150, 150}, {164, 164}, {169, 169},
		{327, 378},
	})

	cffExpertSubsetCharset = buildCharsetList([][2]uint16{
		{0, 1}, {231, 232}, {235, 238}, {13, 15}, {99, 99}, {239, 248},
		{27, 28}, {249, 251}, {253, 266}, {109, 110}, {267, 270},
		{272, 272}, {300, 302}, {305, 305}, {314, 315}, {158, 158},
		{155, 155}, {163, 163}, {320, 326}, {150, 150}, {164, 164},
		{169, 169}, {327, 346},
	})
)
