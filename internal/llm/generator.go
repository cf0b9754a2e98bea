package llm

import "context"

// PlaceholderAnswer is returned when answer generation exhausts its retries.
// The request degrades instead of failing.
const PlaceholderAnswer = "Answer unavailable."

type GenerationParams struct {
	Model       string
	Temperature *float32
	MaxTokens   *int
	TopP        *float32
}

// Generator is the prompted-generation capability the services depend on.
type Generator interface {
	// GenerateAnswer produces an answer for the question. When answerAware is
	// true the reference text grounds the answer; otherwise the model answers
	// from its own knowledge.
	GenerateAnswer(ctx context.Context, question string, answerAware bool, reference string, p GenerationParams) (string, error)
	// GenerateHints produces count hints, one per line, that narrow down the
	// answer without revealing it.
	GenerateHints(ctx context.Context, question, answer string, count int, p GenerationParams) ([]string, error)
	// GenerateCandidates produces count candidate answers. By prompt contract
	// the correct option is the last line. Returns an empty slice when retries
	// are exhausted; the caller decides whether that is fatal.
	GenerateCandidates(ctx context.Context, question string, count int, hints []string, p GenerationParams) ([]string, error)
}

// Embedder produces sentence embeddings for the textual hint similarity view.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
