package sanitize

// homoglyphTable maps Cyrillic and Greek characters that are visually
// identical (or near-identical) to a Latin letter onto that Latin letter.
// It is a fixed lookup, built once as a package-level map rather than
// computed, per the design note that homoglyph tables should be
// compile-time constants.
var homoglyphTable = map[rune]rune{
	// Cyrillic lookalikes, lowercase.
	'а': 'a', 'е': 'e', 'о': 'o', 'р': 'p', 'с': 'c', 'х': 'x',
	'у': 'y', 'і': 'i', 'ѕ': 's', 'ј': 'j', 'ԛ': 'q', 'ԝ': 'w',
	'ѵ': 'v', 'ո': 'n',
	// Cyrillic lookalikes, uppercase.
	'А': 'A', 'В': 'B', 'Е': 'E', 'К': 'K', 'М': 'M', 'Н': 'H',
	'О': 'O', 'Р': 'P', 'С': 'C', 'Т': 'T', 'Х': 'X', 'Ѕ': 'S',
	'І': 'I', 'Ј': 'J',
	// Greek lookalikes, lowercase.
	'α': 'a', 'β': 'b', 'ε': 'e', 'ι': 'i', 'κ': 'k', 'ο': 'o',
	'ρ': 'p', 'τ': 't', 'υ': 'u', 'ν': 'v', 'χ': 'x', 'η': 'n',
	// Greek lookalikes, uppercase.
	'Α': 'A', 'Β': 'B', 'Ε': 'E', 'Ζ': 'Z', 'Η': 'H', 'Ι': 'I',
	'Κ': 'K', 'Μ': 'M', 'Ν': 'N', 'Ο': 'O', 'Ρ': 'P', 'Τ': 'T',
	'Χ': 'X', 'Υ': 'Y',
}
