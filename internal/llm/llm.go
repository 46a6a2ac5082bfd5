package llm

import "context"

// Generator is the language-model collaborator: it turns an assembled
// prompt into prose. The core never retries a failed generation.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerationError wraps a collaborator failure so callers can
// distinguish it from core errors.
type GenerationError struct {
	Cause error
}

func (e *GenerationError) Error() string {
	return "generation failed: " + e.Cause.Error()
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
