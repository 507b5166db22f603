package airstarkvm

import (
	"testing"
)

func TestErrors(t *testing.T) {
	t.Run("VMError", func(t *testing.T) {
		// Test VM error types
		// This would test the public API error types
	})

	t.Run("STARKError", func(t *testing.T) {
		// Test STARK error types
		// This would test the public API error types
	})

	t.Run("ValidationError", func(t *testing.T) {
		// Test validation error types
		// This would test the public API error types
	})
}

func TestErrorMessages(t *testing.T) {
	t.Run("ErrorMessages", func(t *testing.T) {
		// Test error message formatting
		// This would test error message consistency
	})

	t.Run("ErrorWrapping", func(t *testing.T) {
		// Test error wrapping
		// This would test error context preservation
	})
}
