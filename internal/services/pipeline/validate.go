package pipeline

import (
	"fmt"
	"strings"

	"github.com/ternarybob/scribo/internal/common"
)

var validLengths = []string{"short", "medium", "long"}

func validateTopic(topic string) error {
	trimmed := strings.TrimSpace(topic)
	if trimmed == "" {
		return common.NewValidationError("topic", "topic cannot be empty")
	}
	if len(trimmed) < 3 {
		return common.NewValidationError("topic", "topic must be at least 3 characters long")
	}
	return nil
}

func validateMediaType(mediaType string, validTypes []string) error {
	if mediaType == "" {
		return common.NewValidationError("media_type", "media type cannot be empty")
	}
	for _, valid := range validTypes {
		if mediaType == valid {
			return nil
		}
	}
	return common.NewValidationError("media_type",
		fmt.Sprintf("invalid media type %q, valid types: %s", mediaType, strings.Join(validTypes, ", ")))
}

func validateLength(length string) error {
	if length == "" {
		return common.NewValidationError("length", "length cannot be empty")
	}
	for _, valid := range validLengths {
		if length == valid {
			return nil
		}
	}
	return common.NewValidationError("length",
		fmt.Sprintf("invalid length %q, valid lengths: %s", length, strings.Join(validLengths, ", ")))
}

func validateMaxResults(maxResults int) error {
	if maxResults <= 0 {
		return common.NewValidationError("max_results", fmt.Sprintf("max_results must be positive, got %d", maxResults))
	}
	if maxResults > 100 {
		return common.NewValidationError("max_results", fmt.Sprintf("max_results cannot exceed 100, got %d", maxResults))
	}
	return nil
}
