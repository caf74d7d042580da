package llm

import "context"

// CompletionClient is the non-streaming completion surface the generation
// pipeline drives. Adapters classify provider failures into the sentinel
// errors in errors.go; retry policy belongs to the caller.
type CompletionClient interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
	Provider() string
}

type GenerateRequest struct {
	System       string
	Prompt       string
	Temperature  float64
	MaxTokens    int
	JSONResponse bool
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}

type GenerateResult struct {
	Text  string
	Usage Usage
}
