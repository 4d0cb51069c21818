package orchestrator

import "regexp"

// technicalSignals are the fixed markers the source-suppression gate checks
// against the sanitized query. A short social message ("hi", "thanks") has
// none of these and so receives no source cards even if retrieval happened
// to return low-relevance chunks.
var technicalSignals = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bhow\s+(do|can|to)\b`),
	regexp.MustCompile(`(?i)\bwhat\s+(is|are|size|does)\b`),
	regexp.MustCompile(`(?i)\berror\b`),
	regexp.MustCompile(`(?i)\binstall(ation)?\b`),
	regexp.MustCompile(`(?i)\bconfigur(e|ation)\b`),
	regexp.MustCompile(`(?i)\btroubleshoot(ing)?\b`),
	regexp.MustCompile(`(?i)\bsetting(s)?\b`),
	regexp.MustCompile(`(?i)\bspec(ification)?s?\b`),
	regexp.MustCompile(`(?i)\bmanual\b`),
	regexp.MustCompile(`(?i)\bmount(ing)?\b`),
	regexp.MustCompile(`(?i)\bdimension(s)?\b`),
	regexp.MustCompile(`(?i)\bapi\b`),
	regexp.MustCompile(`(?i)\bintegrat(e|ion)\b`),
	regexp.MustCompile(`(?i)\bcompatib(le|ility)\b`),
	// Alphanumeric model/part numbers, e.g. "PMP-25".
	regexp.MustCompile(`\b[A-Z]{2,}-?\d{1,5}\b`),
}

// isTechnicalQuery reports whether the sanitized query matches any fixed
// technical signal. Applied after classification but against the sanitized
// text, not the raw input.
func isTechnicalQuery(sanitizedText string) bool {
	for _, re := range technicalSignals {
		if re.MatchString(sanitizedText) {
			return true
		}
	}
	return false
}
