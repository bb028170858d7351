package ttsnorm

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	phoneRe      = regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)
	cardRe       = regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`)
	cvvRe        = regexp.MustCompile(`(?i)\b(CVV|CVC|security code|code)[:\s]*(\d{3,4})\b`)
	currencyRe   = regexp.MustCompile(`\$([0-9,]+\.?[0-9]*)`)
	rangeRe      = regexp.MustCompile(`\b(\d+)-(\d+)\b`)
	percentRe    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	timeRe       = regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s*(am|pm|a\.m\.|p\.m\.)?`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	abbreviations = []struct {
		re   *regexp.Regexp
		repl string
	}{
		{regexp.MustCompile(`\bDr\.\s`), "Doctor "},
		{regexp.MustCompile(`\bMr\.\s`), "Mister "},
		{regexp.MustCompile(`\bMrs\.\s`), "Missus "},
		{regexp.MustCompile(`\bMs\.\s`), "Miss "},
		{regexp.MustCompile(`\bSt\.\s`), "Street "},
		{regexp.MustCompile(`\bAve\.\s`), "Avenue "},
		{regexp.MustCompile(`\bBlvd\.\s`), "Boulevard "},
		{regexp.MustCompile(`\betc\.`), "et cetera"},
		{regexp.MustCompile(`\be\.g\.`), "for example"},
		{regexp.MustCompile(`\bi\.e\.`), "that is"},
	}
)

// Normalize rewrites text into a more naturally spoken form, applying each
// transform in a fixed order: phone numbers, card numbers, CVV codes,
// currency, numeric ranges, percentages, times, symbols, abbreviations, then
// whitespace collapse. Each pass only ever operates on the previous pass's
// output, so earlier patterns (e.g. phone numbers) must not be re-matched by
// later ones (e.g. the generic digit range pattern) — this is why phone and
// card numbers run first, before any other digit-oriented substitution.
func Normalize(text string) string {
	if text == "" {
		return text
	}

	result := phoneRe.ReplaceAllStringFunc(text, phoneToWords)
	result = cardRe.ReplaceAllStringFunc(result, cardToWords)
	result = cvvRe.ReplaceAllStringFunc(result, replaceCVV)
	result = currencyRe.ReplaceAllStringFunc(result, replaceCurrency)
	result = rangeRe.ReplaceAllStringFunc(result, replaceRange)
	result = percentRe.ReplaceAllStringFunc(result, replacePercent)
	result = timeRe.ReplaceAllStringFunc(result, replaceTime)

	result = strings.ReplaceAll(result, " & ", " and ")
	result = strings.ReplaceAll(result, "&", " and ")
	result = regexp.MustCompile(`\s*@\s*`).ReplaceAllString(result, " at ")
	result = strings.ReplaceAll(result, " + ", " plus ")
	result = strings.ReplaceAll(result, " = ", " equals ")
	result = strings.ReplaceAll(result, " / ", " or ")
	result = strings.ReplaceAll(result, "24/7", "twenty-four seven")

	for _, a := range abbreviations {
		result = a.re.ReplaceAllString(result, a.repl)
	}

	result = whitespaceRe.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

func replaceCVV(match string) string {
	groups := cvvRe.FindStringSubmatch(match)
	return groups[1] + " " + digitsToWords(groups[2])
}

func replaceCurrency(match string) string {
	amount := strings.ReplaceAll(currencyRe.FindStringSubmatch(match)[1], ",", "")
	if dollars, cents, ok := strings.Cut(amount, "."); ok {
		d := parseIntOr(dollars, 0)
		centsStr := cents
		if len(centsStr) < 2 {
			centsStr = (centsStr + "00")[:2]
		} else {
			centsStr = centsStr[:2]
		}
		c := parseIntOr(centsStr, 0)

		switch {
		case c == 0:
			return numberToWords(d) + " dollars"
		case d == 0:
			return numberToWords(c) + " cents"
		default:
			return numberToWords(d) + " dollars and " + numberToWords(c) + " cents"
		}
	}
	return numberToWords(parseIntOr(amount, 0)) + " dollars"
}

func replaceRange(match string) string {
	groups := rangeRe.FindStringSubmatch(match)
	return numberToWords(parseIntOr(groups[1], 0)) + " to " + numberToWords(parseIntOr(groups[2], 0))
}

func replacePercent(match string) string {
	groups := percentRe.FindStringSubmatch(match)
	num := strings.ReplaceAll(groups[1], ",", "")
	if strings.Contains(num, ".") {
		return num + " percent" // decimal percentages are kept as-is
	}
	return numberToWords(parseIntOr(num, 0)) + " percent"
}

func replaceTime(match string) string {
	groups := timeRe.FindStringSubmatch(match)
	hour := parseIntOr(groups[1], 0)
	minute := groups[2]
	suffix := groups[3]

	var timeStr string
	if minute == "00" {
		timeStr = numberToWords(hour) + " o'clock"
	} else {
		timeStr = numberToWords(hour) + " " + numberToWords(parseIntOr(minute, 0))
	}
	if suffix != "" {
		lower := strings.ToLower(suffix)
		timeStr += " " + string(lower[0]) + "." + string(lower[len(lower)-1]) + "."
	}
	return timeStr
}

func parseIntOr(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}
