package generator

import "context"

// ContentGenerator produces prose for a single prompt. Implementations
// own their retry policy; an error means retries are exhausted.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}
