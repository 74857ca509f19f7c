package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrTemporary    = errors.New("temporary failure")

	// Extraction taxonomy.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrExtraction        = errors.New("extraction failed")
	ErrNoAttachments     = errors.New("material has no matching attachments")
	ErrNoExtractableText = errors.New("no extractable text")

	// Conversation taxonomy.
	ErrEmptyMessage = errors.New("empty message")

	// Model client taxonomy.
	ErrAIService        = errors.New("ai service failure")
	ErrAIServiceTimeout = errors.New("ai service timeout")

	// Generation taxonomy. Malformed output and per-item schema failures
	// roll up into ErrGenerationFailed before reaching the caller.
	ErrMalformedAIOutput  = errors.New("malformed ai output")
	ErrMalformedQuestion  = errors.New("malformed question")
	ErrAnswerNotInChoices = errors.New("correct answer not among choices")
	ErrGenerationFailed   = errors.New("generation failed")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
