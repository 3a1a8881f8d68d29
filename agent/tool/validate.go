package tool

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Optional +977 country code, then a 10 digit mobile number on the 96/97/98 ranges.
var nepaliMobilePattern = regexp.MustCompile(`^(?:\+?977[- ]?)?9[678]\d{8}$`)

func ValidatePhoneNumber(phoneNumber string) bool {
	return nepaliMobilePattern.MatchString(strings.TrimSpace(phoneNumber))
}

// ValidateName accepts names of at least two characters made only of letters.
func ValidateName(name string) bool {
	if utf8.RuneCountInString(name) < 2 {
		return false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
