package common

import (
	"errors"
	"fmt"
)

// ConfigurationError indicates missing or invalid configuration. Pipeline
// runs cannot start with one of these.
type ConfigurationError struct {
	Field string
	Msg   string
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Msg)
	}
	return fmt.Sprintf("configuration error: %s", e.Msg)
}

// NewConfigurationError creates a ConfigurationError for a config field
func NewConfigurationError(field, msg string) error {
	return &ConfigurationError{Field: field, Msg: msg}
}

// ValidationError indicates rejected pipeline input (topic, media type,
// length, max results).
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Msg)
}

// NewValidationError creates a ValidationError for an input field
func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// SearchProviderError wraps a failure from a web search provider
type SearchProviderError struct {
	Provider string
	Err      error
}

func (e *SearchProviderError) Error() string {
	return fmt.Sprintf("search provider %s: %v", e.Provider, e.Err)
}

func (e *SearchProviderError) Unwrap() error {
	return e.Err
}

// NewSearchProviderError wraps err with the provider name
func NewSearchProviderError(provider string, err error) error {
	return &SearchProviderError{Provider: provider, Err: err}
}

// LLMProviderError wraps a failure from an LLM provider after retries are
// exhausted
type LLMProviderError struct {
	Provider string
	Err      error
}

func (e *LLMProviderError) Error() string {
	return fmt.Sprintf("llm provider %s: %v", e.Provider, e.Err)
}

func (e *LLMProviderError) Unwrap() error {
	return e.Err
}

// NewLLMProviderError wraps err with the provider name
func NewLLMProviderError(provider string, err error) error {
	return &LLMProviderError{Provider: provider, Err: err}
}

// IsValidationError reports whether err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
