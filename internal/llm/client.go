package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/logger"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient talks to an OpenAI-compatible chat-completions endpoint
// (Together by default) for answer/hint/candidate generation and embeddings.
type OpenAIClient struct {
	client         *openai.Client
	model          string
	embeddingModel string
	retry          RetryPolicy
	log            *logger.Logger
}

var _ Generator = (*OpenAIClient)(nil)
var _ Embedder = (*OpenAIClient)(nil)

func NewOpenAIClient(apiKey, baseURL, model, embeddingModel string, log *logger.Logger) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client:         openai.NewClientWithConfig(cfg),
		model:          model,
		embeddingModel: embeddingModel,
		retry:          DefaultRetry,
		log:            log,
	}
}

func (c *OpenAIClient) IsAvailable() bool {
	return c != nil && c.client != nil
}

func (c *OpenAIClient) chat(ctx context.Context, system, user string, p GenerationParams) (string, error) {
	model := p.Model
	if model == "" {
		model = c.model
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	if p.Temperature != nil {
		req.Temperature = *p.Temperature
	}
	if p.MaxTokens != nil {
		req.MaxTokens = *p.MaxTokens
	}
	if p.TopP != nil {
		req.TopP = *p.TopP
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from model")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("blank completion")
	}
	return text, nil
}

func (c *OpenAIClient) GenerateAnswer(ctx context.Context, question string, answerAware bool, reference string, p GenerationParams) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "No question provided.", nil
	}

	maxTokens := 512
	if p.MaxTokens != nil {
		maxTokens = *p.MaxTokens
	}
	prompt := answerAgnosticPrompt(strings.TrimSpace(question), maxTokens)
	if answerAware {
		prompt = answerAwarePrompt(strings.TrimSpace(question), reference, maxTokens)
	}

	var text string
	err := c.retry.Do(c.log, "generate_answer", func() error {
		var err error
		text, err = c.chat(ctx, answerSystemPrompt, prompt, p)
		return err
	})
	if err != nil {
		return PlaceholderAnswer, nil
	}
	return text, nil
}

func (c *OpenAIClient) GenerateHints(ctx context.Context, question, answer string, count int, p GenerationParams) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}

	var hints []string
	err := c.retry.Do(c.log, "generate_hints", func() error {
		text, err := c.chat(ctx, hintSystemPrompt, hintsPrompt(question, answer, count), p)
		if err != nil {
			return err
		}
		hints = parseLines(text, count)
		if len(hints) == 0 {
			return errors.New("no hints parsed from completion")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("hint generation exhausted retries: %w", err)
	}
	return hints, nil
}

func (c *OpenAIClient) GenerateCandidates(ctx context.Context, question string, count int, hints []string, p GenerationParams) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}

	maxTokens := 256
	if p.MaxTokens != nil {
		maxTokens = *p.MaxTokens
	}

	var out []string
	err := c.retry.Do(c.log, "generate_candidates", func() error {
		text, err := c.chat(ctx, candidateSystemPrompt, candidatesPrompt(question, count, maxTokens, hints), p)
		if err != nil {
			return err
		}
		out = parseLines(text, count)
		if len(out) == 0 {
			return errors.New("no candidates parsed from completion")
		}
		return nil
	})
	if err != nil {
		// Degrade to an empty list; the caller decides whether that is fatal.
		return nil, nil
	}
	return out, nil
}

func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.embeddingModel),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}
	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}
