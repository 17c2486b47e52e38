package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	PostTextMaxLength    = 50000
	CommentTextMaxLength = 10000
	GroupTitleMaxLength  = 200
	GroupSlugMaxLength   = 50
	SubjectMaxLength     = 200
	MessageMaxLength     = 5000
)

var groupSlugRegex = regexp.MustCompile(`^[-a-z0-9_]+$`)

// RequiredText trims s and checks it is non-empty and at most max characters.
func RequiredText(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%s is required", field)
	}
	if utf8.RuneCountInString(s) > max {
		return "", fmt.Errorf("%s must not exceed %d characters", field, max)
	}
	return s, nil
}

// ValidateGroupSlug accepts lowercase letters, digits, hyphens and underscores.
func ValidateGroupSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("slug is required")
	}
	if len(slug) > GroupSlugMaxLength {
		return fmt.Errorf("slug must not exceed %d characters", GroupSlugMaxLength)
	}
	if !groupSlugRegex.MatchString(slug) {
		return fmt.Errorf("slug can only contain lowercase letters, numbers, hyphens, and underscores")
	}
	return nil
}

// HasHeaderBreak reports whether s would split a mail header line.
func HasHeaderBreak(s string) bool {
	return strings.ContainsAny(s, "\r\n")
}
