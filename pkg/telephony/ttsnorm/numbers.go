// Package ttsnorm normalizes text into a more naturally spoken form before
// it reaches a TTS engine: phone numbers, card numbers, currency, ranges,
// percentages, times, symbols, and common abbreviations are each rewritten
// as words, in the fixed order SPEC_FULL.md §4.6 specifies. Grounded on
// (distilled from) original_source/tts.py's preprocess_text_for_speech.
package ttsnorm

import "strings"

var digitWords = map[byte]string{
	'0': "zero", '1': "one", '2': "two", '3': "three", '4': "four",
	'5': "five", '6': "six", '7': "seven", '8': "eight", '9': "nine",
}

// digitsToWords speaks a string of digits one at a time.
func digitsToWords(digits string) string {
	var words []string
	for i := 0; i < len(digits); i++ {
		if w, ok := digitWords[digits[i]]; ok {
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}

var onesWords = []string{
	"", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
	"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
	"seventeen", "eighteen", "nineteen",
}

var tensWords = []string{
	"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety",
}

// numberToWords converts an integer to its spoken English form.
func numberToWords(n int) string {
	switch {
	case n == 0:
		return "zero"
	case n < 0:
		return "negative " + numberToWords(-n)
	case n < 20:
		return onesWords[n]
	case n < 100:
		s := tensWords[n/10]
		if n%10 != 0 {
			s += " " + onesWords[n%10]
		}
		return s
	case n < 1000:
		s := onesWords[n/100] + " hundred"
		if n%100 != 0 {
			s += " " + numberToWords(n%100)
		}
		return s
	case n < 1000000:
		s := numberToWords(n/1000) + " thousand"
		if n%1000 != 0 {
			s += " " + numberToWords(n%1000)
		}
		return s
	case n < 1000000000:
		s := numberToWords(n/1000000) + " million"
		if n%1000000 != 0 {
			s += " " + numberToWords(n%1000000)
		}
		return s
	default:
		return itoa(n)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// phoneToWords speaks a phone number digit-by-digit, grouped the way a
// person would read it aloud.
func phoneToWords(phone string) string {
	digits := onlyDigits(phone)
	switch {
	case len(digits) == 10:
		return digitsToWords(digits[:3]) + ", " + digitsToWords(digits[3:6]) + ", " + digitsToWords(digits[6:])
	case len(digits) == 11 && digits[0] == '1':
		return "one, " + digitsToWords(digits[1:4]) + ", " + digitsToWords(digits[4:7]) + ", " + digitsToWords(digits[7:])
	default:
		return digitsToWords(digits)
	}
}

// cardToWords speaks a card number in groups of four digits.
func cardToWords(card string) string {
	digits := onlyDigits(card)
	var groups []string
	for i := 0; i < len(digits); i += 4 {
		end := i + 4
		if end > len(digits) {
			end = len(digits)
		}
		groups = append(groups, digitsToWords(digits[i:end]))
	}
	return strings.Join(groups, ", ")
}
