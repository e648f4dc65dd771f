package helper

import "regexp"

var nonDigit = regexp.MustCompile(`[^\d]`)

// DigitsOnly strips everything except digits: "+62 812-3456" -> "628123456".
func DigitsOnly(phone string) string {
	return nonDigit.ReplaceAllString(phone, "")
}
