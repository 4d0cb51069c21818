// Package sanitize implements the first stage of the security pipeline: a
// deterministic, pure text normalizer that strips invisible and obfuscating
// characters and annotates what it found. It never rejects input — only
// the downstream classifier decides what to do with the flags it raises.
package sanitize

import (
	"encoding/base64"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Flag is an enumerated annotation describing something the sanitizer
// noticed or changed about the input.
type Flag string

const (
	FlagEmptyInput             Flag = "empty_input"
	FlagInputTruncated         Flag = "input_truncated"
	FlagInvisibleCharsRemoved  Flag = "invisible_chars_removed"
	FlagBase64Detected         Flag = "base64_detected"
	FlagCyrillicHomoglyphs     Flag = "unicode_cyrillic_homoglyphs"
	FlagHomoglyphNormalized    Flag = "unicode_homoglyph_normalized"
	FlagZalgoText              Flag = "unicode_zalgo_text"
	FlagFullwidthChars         Flag = "unicode_fullwidth_chars"
	FlagMathAlphanumerics      Flag = "unicode_math_alphanumerics"
)

// MaxInputLength is the hard cap on sanitized text length, in UTF-16 code
// units as the spec states it; we apply it to runes, which is the closest
// Go equivalent for the kind of text this service handles.
const MaxInputLength = 2000

// Result is the outcome of sanitizing one piece of raw input.
type Result struct {
	Text  string
	Flags map[Flag]bool
}

// HasFlag reports whether f was raised during sanitization.
func (r Result) HasFlag(f Flag) bool {
	return r.Flags[f]
}

// HasDangerousFlag reports whether any of the flags the classifier treats
// as "dangerous" (base64 payloads or any unicode obfuscation probe) fired.
func (r Result) HasDangerousFlag() bool {
	if r.Flags[FlagBase64Detected] {
		return true
	}
	for f := range r.Flags {
		if strings.HasPrefix(string(f), "unicode_") {
			return true
		}
	}
	return false
}

var (
	invisibleRanges = []struct{ lo, hi rune }{
		{0x200B, 0x200F},
		{0x202A, 0x202E},
		{0x2060, 0x2064},
	}
	invisibleSingles = map[rune]bool{0xFEFF: true, 0x00AD: true}

	base64Pattern = regexp.MustCompile(`[A-Za-z0-9+/]{20,}={0,2}`)

	combiningDiacritical = regexp.MustCompile(`[\x{0300}-\x{036F}]`)
)

// Sanitize runs the fixed ten-step pipeline from the security design and
// returns the cleaned text plus every flag raised along the way. It never
// returns an error: malformed or empty input is itself represented as a
// flag, not a failure.
func Sanitize(raw string) Result {
	flags := make(map[Flag]bool)

	if raw == "" {
		return Result{Text: "", Flags: map[Flag]bool{FlagEmptyInput: true}}
	}

	text := truncate(raw, flags)
	text = removeInvisible(text, flags)
	text = removeControl(text)
	text = detectAndDecodeBase64(text, flags)
	probeObfuscation(text, flags)
	text = collapseWhitespace(text)
	text = normalizeFullwidth(text)
	text = stripCombiningMarks(text, flags)
	text = normalizeHomoglyphs(text, flags)

	return Result{Text: text, Flags: flags}
}

func truncate(s string, flags map[Flag]bool) string {
	r := []rune(s)
	if len(r) > MaxInputLength {
		flags[FlagInputTruncated] = true
		return string(r[:MaxInputLength])
	}
	return s
}

func removeInvisible(s string, flags map[Flag]bool) string {
	var b strings.Builder
	removed := false
	for _, r := range s {
		if isInvisible(r) {
			removed = true
			continue
		}
		b.WriteRune(r)
	}
	if removed {
		flags[FlagInvisibleCharsRemoved] = true
	}
	return b.String()
}

func isInvisible(r rune) bool {
	if invisibleSingles[r] {
		return true
	}
	for _, rg := range invisibleRanges {
		if r >= rg.lo && r <= rg.hi {
			return true
		}
	}
	return false
}

func removeControl(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '\t' || r == '\n' {
			b.WriteRune(r)
			continue
		}
		if (r >= 0x00 && r <= 0x1F) || (r >= 0x7F && r <= 0x9F) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// detectAndDecodeBase64 looks for long base64-alphabet runs bordered by
// whitespace or punctuation. A run is only flagged if it actually decodes
// to printable ASCII longer than five bytes — this keeps ordinary long
// tokens (hashes, IDs) that happen to match the alphabet from tripping the
// flag when they don't decode to anything meaningful.
func detectAndDecodeBase64(s string, flags map[Flag]bool) string {
	for _, m := range base64Pattern.FindAllString(s, -1) {
		decoded, err := base64.StdEncoding.DecodeString(m)
		if err != nil {
			continue
		}
		if len(decoded) <= 5 || !isPrintableASCII(decoded) {
			continue
		}
		flags[FlagBase64Detected] = true
	}
	return s
}

func isPrintableASCII(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7E {
			if c == '\n' || c == '\r' || c == '\t' {
				continue
			}
			return false
		}
	}
	return true
}

func probeObfuscation(s string, flags map[Flag]bool) {
	var hasLatin, hasCyrillic, hasFullwidth, hasMath bool
	combiningRun := 0
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Latin, r):
			hasLatin = true
		case unicode.Is(unicode.Cyrillic, r) || unicode.Is(unicode.Greek, r):
			hasCyrillic = true
		case r >= 0xFF01 && r <= 0xFF5E:
			hasFullwidth = true
		case (r >= 0x1D400 && r <= 0x1D7FF):
			hasMath = true
		}
		if unicode.Is(unicode.Mn, r) {
			combiningRun++
		} else {
			combiningRun = 0
		}
		if combiningRun >= 3 {
			flags[FlagZalgoText] = true
		}
	}
	if hasLatin && hasCyrillic {
		flags[FlagCyrillicHomoglyphs] = true
	}
	if hasFullwidth {
		flags[FlagFullwidthChars] = true
	}
	if hasMath {
		flags[FlagMathAlphanumerics] = true
	}
}

var (
	multiNewline = regexp.MustCompile(`\n{3,}`)
	multiSpace   = regexp.MustCompile(`[ \t]{2,}`)
)

func collapseWhitespace(s string) string {
	s = multiNewline.ReplaceAllString(s, "\n\n")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// normalizeFullwidth applies NFKC compatibility decomposition, which folds
// both fullwidth Latin and mathematical alphanumeric symbols down to their
// plain ASCII equivalents so downstream pattern matching can't be dodged by
// swapping "ignore" for "𝐢𝐠𝐧𝐨𝐫𝐞" or "ｉｇｎｏｒｅ". NFKC also normalizes
// unrelated compatibility characters (ligatures, superscripts), so the
// fullwidth flag itself is left to probeObfuscation, which only fires on an
// actual fullwidth codepoint rather than "NFKC changed something".
func normalizeFullwidth(s string) string {
	return norm.NFKC.String(s)
}

func stripCombiningMarks(s string, flags map[Flag]bool) string {
	if !combiningDiacritical.MatchString(s) {
		return s
	}
	flags[FlagZalgoText] = true
	return combiningDiacritical.ReplaceAllString(s, "")
}

func normalizeHomoglyphs(s string, flags map[Flag]bool) string {
	var b strings.Builder
	changed := false
	for _, r := range s {
		if repl, ok := homoglyphTable[r]; ok {
			b.WriteRune(repl)
			changed = true
			continue
		}
		b.WriteRune(r)
	}
	if changed {
		flags[FlagHomoglyphNormalized] = true
	}
	return b.String()
}
