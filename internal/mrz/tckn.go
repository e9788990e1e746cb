package mrz

// ValidateTCKN checks an 11-digit Turkish national identifier. Digits one
// through nine determine the tenth: ((7 * sum of digits 1,3,5,7,9) - sum of
// digits 2,4,6,8) mod 10, normalized into [0,9]. The eleventh digit is the
// sum of the first ten mod 10. Identifiers cannot start with zero.
func ValidateTCKN(s string) bool {
	if len(s) != 11 || s[0] == '0' {
		return false
	}

	oddSum, evenSum := 0, 0
	for i := 0; i < 9; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if i%2 == 0 {
			oddSum += d
		} else {
			evenSum += d
		}
	}

	if s[9] < '0' || s[9] > '9' || s[10] < '0' || s[10] > '9' {
		return false
	}

	digit10 := ((oddSum * 7) - evenSum) % 10
	if digit10 < 0 {
		digit10 += 10
	}
	if digit10 != int(s[9]-'0') {
		return false
	}

	digit11 := (oddSum + evenSum + digit10) % 10
	return digit11 == int(s[10]-'0')
}
