package bot

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	nameRe         = regexp.MustCompile(`^[A-Za-zА-Яа-яІіЇїЄєҐґ\s]+$`)
	phoneRe        = regexp.MustCompile(`^(\+?380|0)?(67|68|96|97|98|77|50|66|95|99|75|63|73|93)\d{7}$`)
	streetPrefixRe = regexp.MustCompile(`^(?:(?:вулиця|вул)(?:\.|\s)\s*)+`)
	streetNumberRe = regexp.MustCompile(`(?s)\s+\d+.*$`)
)

// ValidName: только буквы и пробелы, минимум две буквы.
func ValidName(name string) bool {
	name = strings.TrimSpace(name)
	if !nameRe.MatchString(name) {
		return false
	}
	letters := 0
	for _, r := range name {
		if !unicode.IsSpace(r) {
			letters++
		}
	}
	return letters >= 2
}

// NormalizeStreet lowercases, drops leading "вул."/"вулиця" tokens and the
// trailing house number. Applying it twice gives the same result.
func NormalizeStreet(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = streetPrefixRe.ReplaceAllString(s, "")
	s = streetNumberRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func ValidStreet(raw string) bool {
	return utf8.RuneCountInString(NormalizeStreet(raw)) >= 3
}

// NormalizePhone убирает все пробельные символы.
func NormalizePhone(raw string) string {
	return strings.Join(strings.Fields(raw), "")
}

// ValidPhone accepts Ukrainian mobile numbers of the known operator codes.
func ValidPhone(raw string) bool {
	return phoneRe.MatchString(NormalizePhone(raw))
}
