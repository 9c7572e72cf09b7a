package quiz

import "strings"

// CheckAnswer reports whether the user's answer matches the stored one,
// ignoring case and surrounding whitespace.
func CheckAnswer(userAnswer, correctAnswer string) bool {
	return strings.EqualFold(strings.TrimSpace(userAnswer), strings.TrimSpace(correctAnswer))
}
