package classifier

import "regexp"

// suspiciousKeywords are security-adjacent terms that, on their own, are
// weaker evidence than an InjectionDetector match but still tip the scale
// when business keywords are absent from the same query.
var suspiciousKeywords = compileAll([]string{
	`(?i)\bjailbreak\b`,
	`(?i)\bprompt\s+injection\b`,
	`(?i)\bsystem\s+prompt\b`,
	`(?i)\bapi\s+key\b`,
	`(?i)\bsecurity\s+(filter|bypass|restriction)s?\b`,
	`(?i)\bunrestricted\b`,
	`(?i)\bexploit\b`,
	`(?i)\badmin(istrator)?\s+(access|mode|override)\b`,
	`(?i)\bbackdoor\b`,
	`(?i)\bvulnerability\b`,
	`(?i)\bpenetration\s+test(ing)?\b`,
	`(?i)\bignore\b.{0,20}\brules?\b`,
})

// businessKeywords are terms that indicate a legitimate product or
// documentation question, used to suppress false positives from the
// suspicious-keyword bucket.
var businessKeywords = compileAll([]string{
	`(?i)\bdocumentation\b`,
	`(?i)\bpricing\b`,
	`(?i)\binvoice\b`,
	`(?i)\baccount\b`,
	`(?i)\bsubscription\b`,
	`(?i)\bfeature\b`,
	`(?i)\bhow\s+(do|can)\s+i\b`,
	`(?i)\btroubleshoot(ing)?\b`,
	`(?i)\bintegrat(e|ion)\b`,
	`(?i)\bconfigur(e|ation)\b`,
	`(?i)\bsupport\b`,
	`(?i)\bexport\b`,
	`(?i)\bdashboard\b`,
	`(?i)\breport(ing)?\b`,
	`(?i)\bapi\s+(endpoint|reference|documentation)\b`,
})

func compileAll(exprs []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

func countMatches(patterns []*regexp.Regexp, text string) int {
	n := 0
	for _, re := range patterns {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}
