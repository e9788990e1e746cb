// Package mrz validates machine readable zone text and the Turkish national
// identifier using the ICAO 9303 check digit scheme. Everything here is a
// pure function over strings; the only package state is the constant weight
// table.
package mrz

import (
	"strings"
	"unicode"
)

// LineLength is the fixed width of a TD1 MRZ line.
const LineLength = 30

// Filler is the MRZ padding character.
const Filler = '<'

// FieldScore is awarded per field whose check digit holds.
const FieldScore = 15

// MaxScore is the highest total a validation run can reach.
const MaxScore = 4 * FieldScore

// weights is the cyclic 7-3-1 check digit weighting from ICAO 9303.
var weights = [3]int{7, 3, 1}

// Score breaks down a validation run over three MRZ lines. Each of the four
// check digit fields contributes FieldScore points when valid.
type Score struct {
	Total int

	DocNumberValid bool
	BirthDateValid bool
	ExpiryValid    bool
	CompositeValid bool

	DocNumberScore int
	BirthDateScore int
	ExpiryScore    int
	CompositeScore int

	// TCKN is the national identifier read from line 1; empty unless it
	// passed its own check digit algorithm.
	TCKN string

	CorrectedLine1 string
	CorrectedLine2 string
	CorrectedLine3 string
}

// CorrectOCRErrors uppercases a recognized line and maps visually ambiguous
// glyphs toward the numeric-friendly MRZ alphabet: O, D and Q become 0,
// I becomes 1, S becomes 5, B becomes 8, G becomes 6, Z becomes 2, and
// spaces, dots and anything outside [A-Z0-9<] become fillers. The
// correction is lossy and biased toward digits; it runs over whole lines
// before any checksum, matching how OCR-B misreads skew in practice.
func CorrectOCRErrors(line string) string {
	var b strings.Builder
	b.Grow(len(line))

	for _, r := range line {
		c := unicode.ToUpper(r)
		switch c {
		case 'O', 'D', 'Q':
			b.WriteByte('0')
		case 'I':
			b.WriteByte('1')
		case 'S':
			b.WriteByte('5')
		case 'B':
			b.WriteByte('8')
		case 'G':
			b.WriteByte('6')
		case 'Z':
			b.WriteByte('2')
		case ' ', '.':
			b.WriteByte(Filler)
		default:
			if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == Filler {
				b.WriteRune(c)
			} else {
				b.WriteByte(Filler)
			}
		}
	}

	return b.String()
}

// ValidateWithScore corrects the three MRZ lines, normalizes each to 30
// characters and runs the four TD1 check digit fields: document number,
// birth date, expiry date and the composite digit spanning both data lines.
// Line 3 carries only names and participates in no checksum; it is
// corrected and returned for completeness.
func ValidateWithScore(line1, line2, line3 string) Score {
	var s Score

	s.CorrectedLine1 = CorrectOCRErrors(line1)
	s.CorrectedLine2 = CorrectOCRErrors(line2)
	s.CorrectedLine3 = CorrectOCRErrors(line3)

	l1 := normalizeLine(s.CorrectedLine1)
	l2 := normalizeLine(s.CorrectedLine2)

	// Document number: line 1 positions 5-13, check digit at 14.
	if validateCheckDigit(l1[5:14], l1[14]) {
		s.DocNumberValid = true
		s.DocNumberScore = FieldScore
	}

	// TCKK puts the national identifier in line 1 positions 16-26.
	if tckn := l1[16:27]; ValidateTCKN(tckn) {
		s.TCKN = tckn
	}

	// Birth date: line 2 positions 0-5 (YYMMDD), check digit at 6.
	if validateCheckDigit(l2[0:6], l2[6]) {
		s.BirthDateValid = true
		s.BirthDateScore = FieldScore
	}

	// Expiry date: line 2 positions 8-13, check digit at 14.
	if validateCheckDigit(l2[8:14], l2[14]) {
		s.ExpiryValid = true
		s.ExpiryScore = FieldScore
	}

	// Composite: document number area, birth date and expiry with their
	// check digits, and the optional data area, against the last digit of
	// line 2.
	composite := l1[5:30] + l2[0:7] + l2[8:15] + l2[18:29]
	if validateCheckDigit(composite, l2[29]) {
		s.CompositeValid = true
		s.CompositeScore = FieldScore
	}

	s.Total = s.DocNumberScore + s.BirthDateScore + s.ExpiryScore + s.CompositeScore
	return s
}

// normalizeLine pads a corrected line to exactly LineLength with fillers
// and truncates anything longer. The scanner that produced the line only
// guarantees a 30 character minimum; fixing the length here makes every
// offset in the checksum protocol well defined.
func normalizeLine(line string) string {
	if len(line) >= LineLength {
		return line[:LineLength]
	}
	return line + strings.Repeat(string(Filler), LineLength-len(line))
}

// charValue maps an MRZ character to its ICAO 9303 numeric value: digits as
// themselves, letters as 10 through 35, the filler and anything
// unrecognized as 0.
func charValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	default:
		return 0
	}
}

// checksum computes the weighted mod-10 check digit over data using the
// cyclic 7-3-1 weights.
func checksum(data string) int {
	sum := 0
	for i := 0; i < len(data); i++ {
		sum += charValue(data[i]) * weights[i%3]
	}
	return sum % 10
}

// validateCheckDigit reports whether digit is an ASCII digit equal to the
// checksum of data.
func validateCheckDigit(data string, digit byte) bool {
	if digit < '0' || digit > '9' {
		return false
	}
	return checksum(data) == int(digit-'0')
}
