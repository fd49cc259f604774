package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// Control characters (except common whitespace)
var controlCharPattern = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

// MaxDescriptionLength caps incident descriptions to keep rows and alert
// payloads bounded.
const MaxDescriptionLength = 2000

// SanitizationResult contains the sanitized text and any warnings.
type SanitizationResult struct {
	Text     string
	Warnings []string
	Modified bool
}

// SanitizeDescription cleans up a free-text incident description: control
// characters are stripped, whitespace runs collapse to single spaces, and
// overlong text is truncated. The words themselves are preserved so the
// duplicate engine sees what the reporter wrote.
func SanitizeDescription(text string) *SanitizationResult {
	result := &SanitizationResult{Text: text}
	if text == "" {
		return result
	}

	if controlCharPattern.MatchString(result.Text) {
		result.Text = controlCharPattern.ReplaceAllString(result.Text, "")
		result.Warnings = append(result.Warnings, "Removed control characters")
		result.Modified = true
	}

	collapsed := strings.Join(strings.Fields(result.Text), " ")
	if collapsed != result.Text {
		result.Text = collapsed
		result.Modified = true
	}

	if len(result.Text) > MaxDescriptionLength {
		result.Text = result.Text[:MaxDescriptionLength]
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Description truncated to %d characters", MaxDescriptionLength))
		result.Modified = true
	}

	return result
}

// ValidateIncidentUUID validates that a UUID is properly formatted
func ValidateIncidentUUID(uuid string) error {
	if uuid == "" {
		return fmt.Errorf("incident UUID is required")
	}

	// Standard UUID format: 8-4-4-4-12 hex characters
	uuidPattern := regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)
	if !uuidPattern.MatchString(strings.ToLower(uuid)) {
		return fmt.Errorf("invalid UUID format")
	}

	return nil
}

// EscapeForLogging escapes free-form content for safe single-line logging.
func EscapeForLogging(text string, maxLen int) string {
	if len(text) > maxLen {
		text = text[:maxLen] + "..."
	}

	text = strings.ReplaceAll(text, "\n", "\\n")
	text = strings.ReplaceAll(text, "\r", "\\r")
	text = strings.ReplaceAll(text, "\t", "\\t")

	return text
}
