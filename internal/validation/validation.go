// Package validation provides input validation and sanitization utilities.
package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shelfindex/bookfts/internal/constants"
)

// ValidateQuery validates and sanitizes user input queries
func ValidateQuery(query string) (string, error) {
	// Check length
	if len(query) == 0 {
		return "", fmt.Errorf("Please provide a search query")
	}

	if len(query) > constants.MaxQueryLength {
		return "", fmt.Errorf("search query is too long (max %d characters)", constants.MaxQueryLength)
	}

	// Basic sanitization - remove control characters but keep printable chars
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1 // Remove control characters except newlines and tabs
		}
		return r
	}, query)

	// Trim excessive whitespace
	cleaned = strings.TrimSpace(cleaned)

	// Replace multiple spaces with single spaces
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	if len(cleaned) == 0 {
		return "", fmt.Errorf("Please provide a search query (no valid characters found)")
	}

	return cleaned, nil
}

// ValidateLimit validates search result limits
func ValidateLimit(limit int) (int, error) {
	if limit < 0 {
		return 0, fmt.Errorf("result limit must be between 1 and 100, got %d", limit)
	}

	if limit == 0 {
		return constants.DefaultSearchLimit, nil
	}

	if limit > 100 {
		return 100, fmt.Errorf("result limit must be between 1 and 100, got %d", limit)
	}

	return limit, nil
}

// SanitizeFilename sanitizes filenames for safe filesystem operations
func SanitizeFilename(filename string) string {
	// Replace unsafe characters
	unsafe := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	cleaned := filename

	for _, char := range unsafe {
		cleaned = strings.ReplaceAll(cleaned, char, "_")
	}

	// Trim spaces and dots from start/end
	cleaned = strings.Trim(cleaned, " .")

	// Limit length
	if len(cleaned) > 255 {
		cleaned = cleaned[:255]
	}

	return cleaned
}
