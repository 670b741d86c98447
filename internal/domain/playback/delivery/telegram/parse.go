package telegram

import (
	"strings"
	"unicode"
)

const (
	slashPrefix = "/"
	dotPrefix   = "."
)

// commandPrefixes are the characters that start a command
var commandPrefixes = []string{slashPrefix, dotPrefix}

// parseCommand splits "/play@RolaBot never gonna" into ("play", "never gonna").
// ok is false when text does not start with a command prefix.
func parseCommand(text string) (name, args string, ok bool) {
	text = strings.TrimSpace(text)

	prefixed := false
	for _, p := range commandPrefixes {
		if strings.HasPrefix(text, p) {
			text = strings.TrimPrefix(text, p)
			prefixed = true
			break
		}
	}
	if !prefixed {
		return "", "", false
	}

	head, rest := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		head, rest = text[:i], text[i:]
	}
	head, _, _ = strings.Cut(head, "@")
	if head == "" || strings.IndexFunc(head, notCommandRune) >= 0 {
		return "", "", false
	}

	return strings.ToLower(head), strings.TrimSpace(rest), true
}

func notCommandRune(r rune) bool {
	return !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r))
}
